package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/repolens/repolens-cli/internal/core/domain"
)

const (
	// DefaultTimeout bounds every API request.
	DefaultTimeout = 30 * time.Second

	// ArchiveTimeout bounds the zipball download, which can be large.
	ArchiveTimeout = 180 * time.Second

	// DefaultArchiveBase is the host serving repository zipballs.
	DefaultArchiveBase = "https://codeload.github.com"
)

// Client wraps the go-github client plus a raw HTTP client for archive
// downloads. It owns the rate controller shared by both.
type Client struct {
	gh          *gh.Client
	http        *http.Client
	archiveHTTP *http.Client
	archiveBase string
	rateLimiter *RateLimiter
	token       domain.Token
}

// Option adjusts client construction, mainly for tests.
type Option func(*Client)

// WithAPIBaseURL points API calls at an alternate endpoint.
func WithAPIBaseURL(base string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if u, err := url.Parse(base); err == nil {
			c.gh.BaseURL = u
		}
	}
}

// WithArchiveBaseURL points zipball downloads at an alternate host.
func WithArchiveBaseURL(base string) Option {
	return func(c *Client) {
		c.archiveBase = strings.TrimSuffix(base, "/")
	}
}

// WithProactiveRate overrides the proactive request throttle, so tests can
// run the fetch loop at full speed.
func WithProactiveRate(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.rateLimiter.SetProactiveRate(perSecond, burst)
	}
}

// NewClient builds a client honouring the token's auth scheme.
func NewClient(token domain.Token, opts ...Option) *Client {
	var hc *http.Client
	switch token.Scheme {
	case domain.AuthBearer:
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Secret})
		hc = oauth2.NewClient(context.Background(), ts)
	case domain.AuthToken:
		hc = &http.Client{
			Transport: &tokenTransport{secret: token.Secret, next: http.DefaultTransport},
		}
	default:
		hc = &http.Client{}
	}
	hc.Timeout = DefaultTimeout

	c := &Client{
		gh:          gh.NewClient(hc),
		http:        hc,
		archiveHTTP: &http.Client{Transport: hc.Transport, Timeout: ArchiveTimeout},
		archiveBase: DefaultArchiveBase,
		rateLimiter: NewRateLimiter(token),
		token:       token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tokenTransport sends classic "token" scheme Authorization headers. The
// oauth2 transport always sends "Bearer", which fine-grained tokens use.
type tokenTransport struct {
	secret string
	next   http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "token "+t.secret)
	return t.next.RoundTrip(clone)
}

// RateLimiter returns the shared rate controller.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// Token returns the classified token the client was built with.
func (c *Client) Token() domain.Token {
	return c.token
}

// updateRateLimitFromResponse feeds response headers into the controller.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors into this package's typed errors.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		reset := time.Now().Add(time.Minute)
		if abuseErr.RetryAfter != nil {
			reset = time.Now().Add(*abuseErr.RetryAfter)
		}
		return &RateLimitError{ResetAt: reset}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}

// Probe performs the single lightweight repository-metadata request used by
// the access planner. A failed probe never aborts the run; it returns
// unknown visibility and a nil error for anything other than a definitive
// 404.
func (c *Client) Probe(ctx context.Context, ref domain.RepoRef) (domain.RepoInfo, domain.Visibility) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return domain.RepoInfo{}, domain.VisibilityUnknown
	}

	repo, resp, err := c.gh.Repositories.Get(ctx, ref.Owner, ref.Name)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		werr := c.wrapError(err, "probe")
		if IsNotFound(werr) {
			return domain.RepoInfo{}, domain.VisibilityMissing
		}
		// Auth failures against the probe can mean a private repository
		// without sufficient credential.
		if IsUnauthorized(werr) || IsForbidden(werr) {
			return domain.RepoInfo{}, domain.VisibilityPrivate
		}
		return domain.RepoInfo{}, domain.VisibilityUnknown
	}

	info := domain.RepoInfo{
		Description:   repo.GetDescription(),
		DefaultBranch: repo.GetDefaultBranch(),
		Stars:         repo.GetStargazersCount(),
		SizeKB:        repo.GetSize(),
		Private:       repo.GetPrivate(),
	}
	vis := domain.VisibilityPublic
	if info.Private {
		vis = domain.VisibilityPrivate
	}
	return info, vis
}
