package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoRef_AcceptedForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"https URL", "https://github.com/octocat/hello-world"},
		{"http URL", "http://github.com/octocat/hello-world"},
		{"trailing slash", "https://github.com/octocat/hello-world/"},
		{"dot-git suffix", "https://github.com/octocat/hello-world.git"},
		{"no scheme", "github.com/octocat/hello-world"},
		{"scp style", "github.com:octocat/hello-world"},
		{"shorthand", "octocat/hello-world"},
		{"surrounding whitespace", "  octocat/hello-world  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := ParseRepoRef(tc.input)
			require.NoError(t, err)

			assert.Equal(t, "octocat", ref.Owner)
			assert.Equal(t, "hello-world", ref.Name)
			assert.Equal(t, "https://github.com/octocat/hello-world", ref.URL)
			assert.Equal(t, "octocat/hello-world", ref.FullName())
		})
	}
}

func TestParseRepoRef_Rejected(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"https://gitlab.com/owner/repo",
		"https://github.com/owner-only",
		"not a url at all with spaces",
	}

	for _, input := range tests {
		_, err := ParseRepoRef(input)
		assert.ErrorIs(t, err, ErrInvalidInput, "input %q", input)
	}
}
