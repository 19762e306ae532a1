package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// githubURLPattern accepts full https URLs, scp-style github.com:owner/repo,
// and bare owner/repo shorthand after normalisation.
var githubURLPattern = regexp.MustCompile(
	`(?i)^(?:https?://)?github\.com[/:]([^/\s]+)/([^/\s]+?)(?:\.git)?/?$`,
)

// RepoRef identifies a GitHub repository. It is immutable once parsed;
// construct it with ParseRepoRef.
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// ParseRepoRef parses a repository URL or "owner/name" shorthand into a
// RepoRef. Invalid input returns ErrInvalidInput.
func ParseRepoRef(raw string) (RepoRef, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "/"))
	if s == "" {
		return RepoRef{}, fmt.Errorf("%w: empty repository URL", ErrInvalidInput)
	}

	// Normalise shorthand forms to a full URL.
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		if strings.HasPrefix(s, "github.com") {
			s = "https://" + s
		} else {
			s = "https://github.com/" + s
		}
	}

	m := githubURLPattern.FindStringSubmatch(s)
	if m == nil {
		return RepoRef{}, fmt.Errorf(
			"%w: %q is not a valid GitHub repository (expected https://github.com/owner/repo)",
			ErrInvalidInput, raw,
		)
	}

	owner, name := m[1], m[2]
	if owner == "" || name == "" {
		return RepoRef{}, fmt.Errorf("%w: repository URL must contain owner and name", ErrInvalidInput)
	}

	return RepoRef{
		Owner: owner,
		Name:  name,
		URL:   fmt.Sprintf("https://github.com/%s/%s", owner, name),
	}, nil
}

// FullName returns "owner/name".
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

func (r RepoRef) String() string {
	return r.FullName()
}
