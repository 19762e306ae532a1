package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gh "github.com/repolens/repolens-cli/internal/connectors/github"
	"github.com/repolens/repolens-cli/internal/core/domain"
	"github.com/repolens/repolens-cli/internal/filter"
	"github.com/repolens/repolens-cli/internal/logger"
	"github.com/repolens/repolens-cli/internal/retry"
)

// SkippedFile records one file that could not be retrieved after retries.
// It never aborts the run; it only appears in the end-of-run summary.
type SkippedFile struct {
	Path   string
	Reason string
}

// FetchOutcome is what an acquisition run produced.
type FetchOutcome struct {
	Entries      []domain.RawEntry
	Method       domain.Method
	UsedFallback bool
	// Prefiltered counts tree entries skipped before fetch (binary
	// extension, excluded directory, oversize) on the API path.
	Prefiltered int
	Skipped     []SkippedFile
}

// Engine executes a FetchPlan: one-shot archive download, or the
// concurrent, rate-limited batch file-fetch loop, with archive-to-API
// fallback at most once per run.
type Engine struct {
	Client *gh.Client
	Retry  retry.Policy

	// Progress, when set, observes "done of total" after every batch
	// boundary on the API path.
	Progress func(done, total int)

	// MaxResumeWaits caps how many rate-limit pauses a single run absorbs
	// before surfacing ErrRateLimited.
	MaxResumeWaits int

	// ResumeFallbackDelay is the pause applied when the provider gave no
	// usable reset time.
	ResumeFallbackDelay time.Duration
}

// NewEngine builds an engine with the default retry policy and resume caps.
func NewEngine(client *gh.Client) *Engine {
	return &Engine{
		Client:              client,
		Retry:               retry.Default(),
		MaxResumeWaits:      3,
		ResumeFallbackDelay: 60 * time.Second,
	}
}

// Run drives the fetch state machine:
//
//	START → primary attempt → SUCCESS | FAILED
//	FAILED → (fallback allowed and eligible?) → API attempt → SUCCESS | FAILED
//	FAILED with no fallback remaining → TERMINAL_ERROR
//
// The terminal error is always a categorised domain error, never a raw
// transport failure.
func (e *Engine) Run(ctx context.Context, req domain.AnalysisRequest, plan domain.FetchPlan) (FetchOutcome, error) {
	entries, prefiltered, skipped, err := e.attempt(ctx, req, plan, plan.Primary)
	if err == nil {
		return FetchOutcome{
			Entries:     entries,
			Method:      plan.Primary,
			Prefiltered: prefiltered,
			Skipped:     skipped,
		}, nil
	}

	if plan.Primary == domain.MethodZip && plan.AllowFallback && fallbackEligible(err) {
		logger.Warn("archive fetch failed (%v), falling back to API", err)
		entries, prefiltered, skipped, apiErr := e.attempt(ctx, req, plan, domain.MethodAPI)
		if apiErr == nil {
			return FetchOutcome{
				Entries:      entries,
				Method:       domain.MethodAPI,
				UsedFallback: true,
				Prefiltered:  prefiltered,
				Skipped:      skipped,
			}, nil
		}
		return FetchOutcome{}, categorize(apiErr)
	}

	return FetchOutcome{}, categorize(err)
}

func (e *Engine) attempt(ctx context.Context, req domain.AnalysisRequest, plan domain.FetchPlan, method domain.Method) ([]domain.RawEntry, int, []SkippedFile, error) {
	if method == domain.MethodZip {
		entries, err := e.fetchArchive(ctx, req, plan)
		return entries, 0, nil, err
	}
	return e.fetchViaAPI(ctx, req, plan)
}

// fallbackEligible decides whether an archive failure is worth an API
// attempt. Quota exhaustion and cancellation are not: the API path shares
// the same quota and the same context.
func fallbackEligible(err error) bool {
	if gh.IsRateLimited(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// categorize maps connector errors onto the run-level failure taxonomy.
func categorize(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return err
	case gh.IsRateLimited(err):
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	case gh.IsNotFound(err) || gh.IsUnauthorized(err) || gh.IsForbidden(err):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrNotFound):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
}

// fetchArchive is the one-shot path: a streamed zipball of the default
// branch. Transient failures are retried under the policy; 404 and auth
// failures are not.
func (e *Engine) fetchArchive(ctx context.Context, req domain.AnalysisRequest, plan domain.FetchPlan) ([]domain.RawEntry, error) {
	branches := []string{plan.DefaultBranch}
	if plan.DefaultBranch == "" {
		// Probe degraded to unknown; try the common default branches.
		branches = []string{"main", "master"}
	}

	maxBytes := req.Limits.MaxTotalBytes * 2
	if maxBytes <= 0 {
		maxBytes = 200 << 20
	}

	policy := e.Retry
	policy.Retryable = gh.RetryableArchive

	var lastErr error
	for _, branch := range branches {
		entries, err := retry.Do(ctx, policy, func() ([]domain.RawEntry, error) {
			return e.Client.DownloadArchive(ctx, req.Repo, branch, maxBytes)
		})
		if err == nil {
			logger.Info("archive download complete: %d entries from %s@%s", len(entries), req.Repo, branch)
			return entries, nil
		}
		lastErr = err
		if !errors.Is(err, gh.ErrArchiveUnavailable) {
			break
		}
	}
	return nil, lastErr
}

// fetchViaAPI lists the tree, pre-skips entries the filter would discard
// anyway, and fetches blobs in batches of at most Token.MaxBatchSize
// concurrent requests. A rate-limit signal pauses the whole batch until the
// advertised reset; a non-rate-limit failure is retried per file and then
// recorded as a skip.
func (e *Engine) fetchViaAPI(ctx context.Context, req domain.AnalysisRequest, plan domain.FetchPlan) ([]domain.RawEntry, int, []SkippedFile, error) {
	branch := plan.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	tree, err := e.listTree(ctx, req.Repo, branch)
	if err != nil {
		return nil, 0, nil, err
	}

	pending := make([]gh.TreeEntry, 0, len(tree))
	prefiltered := 0
	for _, entry := range tree {
		if filter.SkipByPath(entry.Path) ||
			(req.Limits.MaxFileBytes > 0 && entry.Size > req.Limits.MaxFileBytes) {
			prefiltered++
			continue
		}
		pending = append(pending, entry)
	}

	batchSize := req.Token.MaxBatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	total := len(pending)
	done := 0
	resumes := 0
	entries := make([]domain.RawEntry, 0, total)
	var skipped []SkippedFile

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, 0, nil, err
		}

		n := min(batchSize, len(pending))
		batch := pending[:n]
		rest := pending[n:]

		results := e.fetchBatch(ctx, req.Repo, batch)

		var requeue []gh.TreeEntry
		for i, res := range results {
			switch {
			case res.err == nil:
				entries = append(entries, res.entry)
				done++
			case gh.IsRateLimited(res.err):
				requeue = append(requeue, batch[i])
			default:
				logger.Debug("skipping %s: %v", batch[i].Path, res.err)
				skipped = append(skipped, SkippedFile{Path: batch[i].Path, Reason: res.err.Error()})
			}
		}

		if e.Progress != nil {
			e.Progress(done, total)
		}

		if len(requeue) > 0 {
			resumes++
			if resumes > e.MaxResumeWaits {
				return nil, 0, nil, fmt.Errorf("%w: quota still exhausted after %d pauses", domain.ErrRateLimited, e.MaxResumeWaits)
			}
			logger.Warn("rate limit reached, pausing batch until reset (%d/%d fetched)", done, total)
			if err := e.Client.RateLimiter().WaitForReset(ctx, e.ResumeFallbackDelay); err != nil {
				return nil, 0, nil, err
			}
		}

		pending = append(requeue, rest...)
	}

	logger.Info("API fetch complete: %d of %d files, %d skipped", done, total, len(skipped))
	return entries, prefiltered, skipped, nil
}

func (e *Engine) listTree(ctx context.Context, ref domain.RepoRef, branch string) ([]gh.TreeEntry, error) {
	policy := e.Retry
	policy.Retryable = func(err error) bool {
		return retry.IsTransient(err) || gh.IsServerError(err)
	}
	return retry.Do(ctx, policy, func() ([]gh.TreeEntry, error) {
		return e.Client.ListTree(ctx, ref, branch)
	})
}

type fetchResult struct {
	entry domain.RawEntry
	err   error
}

// fetchBatch fetches up to len(batch) blobs concurrently. The batch size is
// the hard concurrency ceiling: no more fetches are ever in flight at once.
// Workers only report outcomes; pause decisions belong to the caller.
func (e *Engine) fetchBatch(ctx context.Context, ref domain.RepoRef, batch []gh.TreeEntry) []fetchResult {
	results := make([]fetchResult, len(batch))
	policy := e.Retry
	policy.Retryable = func(err error) bool {
		return retry.IsTransient(err) || gh.IsServerError(err)
	}

	var wg sync.WaitGroup
	for i, entry := range batch {
		wg.Add(1)
		go func(i int, entry gh.TreeEntry) {
			defer wg.Done()
			raw, err := retry.Do(ctx, policy, func() (domain.RawEntry, error) {
				return e.Client.FetchBlob(ctx, ref, entry)
			})
			results[i] = fetchResult{entry: raw, err: err}
		}(i, entry)
	}
	wg.Wait()

	return results
}
