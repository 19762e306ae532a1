// Package services orchestrates a repository analysis run: plan the
// acquisition, execute the fetch, filter and rank the results, and
// assemble the final artifact.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	gh "github.com/repolens/repolens-cli/internal/connectors/github"
	"github.com/repolens/repolens-cli/internal/core/domain"
	"github.com/repolens/repolens-cli/internal/filter"
	"github.com/repolens/repolens-cli/internal/logger"
)

// Analyzer ties the planner, fetch engine, filter, and assembler together.
type Analyzer struct {
	client *gh.Client
	engine *Engine
	filter *filter.Filter
}

// NewAnalyzer builds an analyzer for one request's token and limits.
func NewAnalyzer(client *gh.Client, limits domain.Limits) *Analyzer {
	return &Analyzer{
		client: client,
		engine: NewEngine(client),
		filter: filter.New(limits),
	}
}

// Engine exposes the fetch engine for progress wiring.
func (a *Analyzer) Engine() *Engine {
	return a.engine
}

// Filter exposes the filter for weight overrides from configuration.
func (a *Analyzer) Filter() *filter.Filter {
	return a.filter
}

// Analyze runs the full pipeline for one request. The returned error, when
// non-nil, is always categorised (see domain.Categorize); partial per-file
// failures are absorbed into the result's skip count instead.
func (a *Analyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	runID := uuid.NewString()
	logger.Info("analysis %s: %s (method=%s, token=%s)", runID, req.Repo, req.Method, req.Token.Masked())

	plan, info, err := BuildPlan(ctx, req, a.client)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	if req.DryRun {
		return dryRunResult(req, info, plan, runID), nil
	}

	outcome, err := a.engine.Run(ctx, req, plan)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	records, stats := a.filter.Apply(outcome.Entries)
	skipped := stats.Total() + outcome.Prefiltered + len(outcome.Skipped)

	result, err := Assemble(req, info, outcome, records, skipped, runID)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	logger.Info("analysis %s complete: %d files kept, %d skipped, %d languages",
		runID, result.Metadata.TotalFiles, skipped, len(result.Metadata.Languages))
	return result, nil
}

// dryRunResult simulates a run: the plan and probe happened, nothing was
// fetched.
func dryRunResult(req domain.AnalysisRequest, info domain.RepoInfo, plan domain.FetchPlan, runID string) domain.AnalysisResult {
	return domain.AnalysisResult{
		Metadata: domain.RepoMetadata{
			Repo:          req.Repo.FullName(),
			Owner:         req.Repo.Owner,
			Name:          req.Repo.Name,
			URL:           req.Repo.URL,
			Description:   info.Description,
			DefaultBranch: info.DefaultBranch,
			Stars:         info.Stars,
			Languages:     []domain.LanguageStat{},
			EntryPoints:   []string{},
			Dependencies:  []string{},
			Method:        plan.Primary,
			RunID:         runID,
			GeneratedAt:   time.Now().UTC(),
			DryRun:        true,
		},
		Files: []domain.FileRecord{},
	}
}
