package domain

import "strings"

// TokenKind classifies a credential by its syntactic shape.
type TokenKind string

const (
	TokenNone        TokenKind = "none"
	TokenClassic     TokenKind = "classic"
	TokenFineGrained TokenKind = "fine_grained"
)

// AuthScheme selects the Authorization header form used for API calls.
type AuthScheme string

const (
	AuthNone   AuthScheme = "none"
	AuthToken  AuthScheme = "token"
	AuthBearer AuthScheme = "bearer"
)

// Token is a classified credential. Classification is purely syntactic;
// whether the secret actually authenticates is discovered at the first
// network call. A Token is constructed once per run and never mutated.
type Token struct {
	Secret           string
	Kind             TokenKind
	RateLimitPerHour int
	MaxBatchSize     int
	Scheme           AuthScheme
}

const (
	unauthenticatedRateLimit = 60
	authenticatedRateLimit   = 5000

	// Fine-grained tokens are throttled more aggressively per request,
	// so they get a smaller concurrent batch.
	batchSizeNone        = 1
	batchSizeFineGrained = 3
	batchSizeClassic     = 10
)

// ClassifyToken derives a Token from a raw secret. It never fails: an empty
// secret yields an unauthenticated token, and unrecognised prefixes degrade
// to classic-style authentication.
func ClassifyToken(secret string) Token {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return Token{
			Kind:             TokenNone,
			RateLimitPerHour: unauthenticatedRateLimit,
			MaxBatchSize:     batchSizeNone,
			Scheme:           AuthNone,
		}
	}

	if strings.HasPrefix(secret, "github_pat_") {
		return Token{
			Secret:           secret,
			Kind:             TokenFineGrained,
			RateLimitPerHour: authenticatedRateLimit,
			MaxBatchSize:     batchSizeFineGrained,
			Scheme:           AuthBearer,
		}
	}

	// Classic PATs (ghp_), app installation tokens (ghs_), OAuth tokens
	// (gho_), and anything unrecognised all use the classic profile.
	return Token{
		Secret:           secret,
		Kind:             TokenClassic,
		RateLimitPerHour: authenticatedRateLimit,
		MaxBatchSize:     batchSizeClassic,
		Scheme:           AuthToken,
	}
}

// IsPresent reports whether the token carries a secret.
func (t Token) IsPresent() bool {
	return t.Kind != TokenNone
}

// Masked returns a log-safe rendering of the secret.
func (t Token) Masked() string {
	if t.Secret == "" {
		return "not provided"
	}
	if len(t.Secret) <= 8 {
		return "****"
	}
	return t.Secret[:4] + strings.Repeat("*", len(t.Secret)-8) + t.Secret[len(t.Secret)-4:]
}
