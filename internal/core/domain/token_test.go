package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyToken_Empty(t *testing.T) {
	token := ClassifyToken("")

	assert.Equal(t, TokenNone, token.Kind)
	assert.Equal(t, 60, token.RateLimitPerHour)
	assert.Equal(t, 1, token.MaxBatchSize)
	assert.Equal(t, AuthNone, token.Scheme)
	assert.False(t, token.IsPresent())
}

func TestClassifyToken_WhitespaceOnlyIsEmpty(t *testing.T) {
	token := ClassifyToken("   \t ")

	assert.Equal(t, TokenNone, token.Kind)
	assert.Empty(t, token.Secret)
}

func TestClassifyToken_Classic(t *testing.T) {
	token := ClassifyToken("ghp_abc123")

	assert.Equal(t, TokenClassic, token.Kind)
	assert.Equal(t, 5000, token.RateLimitPerHour)
	assert.Equal(t, 10, token.MaxBatchSize)
	assert.Equal(t, AuthToken, token.Scheme)
	assert.True(t, token.IsPresent())
}

func TestClassifyToken_FineGrained(t *testing.T) {
	token := ClassifyToken("github_pat_xyz")

	assert.Equal(t, TokenFineGrained, token.Kind)
	assert.Equal(t, 5000, token.RateLimitPerHour)
	assert.Equal(t, 3, token.MaxBatchSize)
	assert.Equal(t, AuthBearer, token.Scheme)
}

func TestClassifyToken_UnknownPrefixDegradesToClassic(t *testing.T) {
	for _, secret := range []string{"ghs_installation", "gho_oauth", "some-opaque-secret"} {
		token := ClassifyToken(secret)

		assert.Equal(t, TokenClassic, token.Kind, secret)
		assert.Equal(t, 5000, token.RateLimitPerHour, secret)
		assert.Equal(t, 10, token.MaxBatchSize, secret)
		assert.Equal(t, AuthToken, token.Scheme, secret)
	}
}

func TestToken_Masked(t *testing.T) {
	assert.Equal(t, "not provided", Token{}.Masked())
	assert.Equal(t, "****", Token{Secret: "short"}.Masked())

	masked := ClassifyToken("ghp_abcdefghij1234").Masked()
	assert.Equal(t, "ghp_", masked[:4])
	assert.Equal(t, "1234", masked[len(masked)-4:])
	assert.NotContains(t, masked, "abcdefghij")
}
