package services

import (
	"context"
	"fmt"

	"github.com/repolens/repolens-cli/internal/core/domain"
	"github.com/repolens/repolens-cli/internal/logger"
)

// Prober is the single lightweight repository-metadata request the planner
// is permitted before committing to a plan.
type Prober interface {
	Probe(ctx context.Context, ref domain.RepoRef) (domain.RepoInfo, domain.Visibility)
}

// BuildPlan resolves the acquisition method to attempt first and whether
// fallback is permitted. The decision is made once, up front, and threaded
// through the fetch engine unchanged.
//
// A forced method (zip or api) is honoured with fallback disabled. For
// auto, the archive is preferred: it is a single request and works
// unauthenticated for public repositories. The one exception is a known
// private repository with no token, where the plan short-circuits to the
// API path so the caller gets a clear needs-token failure instead of an
// opaque archive 404. A failed probe degrades to unknown visibility and
// the plan proceeds optimistically.
func BuildPlan(ctx context.Context, req domain.AnalysisRequest, prober Prober) (domain.FetchPlan, domain.RepoInfo, error) {
	info, visibility := prober.Probe(ctx, req.Repo)
	logger.Debug("probe: %s visibility=%s default_branch=%q", req.Repo, visibility, info.DefaultBranch)

	if visibility == domain.VisibilityMissing {
		return domain.FetchPlan{}, info, fmt.Errorf("%w: %s", domain.ErrNotFound, req.Repo)
	}

	plan := domain.FetchPlan{
		Visibility:    visibility,
		DefaultBranch: info.DefaultBranch,
	}

	switch req.Method {
	case domain.MethodZip, domain.MethodAPI:
		plan.Primary = req.Method
		plan.AllowFallback = false
	default:
		plan.Primary = domain.MethodZip
		plan.AllowFallback = req.AllowFallback
		if visibility == domain.VisibilityPrivate && !req.Token.IsPresent() {
			plan.Primary = domain.MethodAPI
			plan.AllowFallback = false
		}
	}

	logger.Debug("plan: primary=%s fallback=%v", plan.Primary, plan.AllowFallback)
	return plan, info, nil
}
