// Package cli wires the analyzer pipeline behind a cobra command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/repolens/repolens-cli/internal/adapters/driven/auth"
	"github.com/repolens/repolens-cli/internal/adapters/driven/config"
	"github.com/repolens/repolens-cli/internal/adapters/driven/output"
	gh "github.com/repolens/repolens-cli/internal/connectors/github"
	"github.com/repolens/repolens-cli/internal/core/domain"
	"github.com/repolens/repolens-cli/internal/core/services"
	"github.com/repolens/repolens-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	outputDir     string
	outputFormat  string
	tokenFlag     string
	methodFlag    string
	noFallback    bool
	dryRun        bool
	verboseFlag   bool
	maxFiles      int
	maxTotalBytes int64
	configPath    string
)

var rootCmd = &cobra.Command{
	Use:   "repolens [repository]",
	Short: "Analyse the source files of a GitHub repository",
	Long: `Downloads a GitHub repository (archive first, per-file API as fallback),
filters out binary and generated content, ranks the remaining files by
structural importance, and writes the result as JSON artifacts.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyze,
}

func init() {
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "./results", "directory for output artifacts")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "both", "artifact format: json, bin, or both")
	rootCmd.Flags().StringVarP(&tokenFlag, "token", "t", "", "GitHub token (falls back to GITHUB_TOKEN, GH_TOKEN, .env)")
	rootCmd.Flags().StringVarP(&methodFlag, "method", "m", "auto", "acquisition method: auto, zip, or api")
	rootCmd.Flags().BoolVar(&noFallback, "no-fallback", false, "disable the archive-to-API fallback")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan the run without fetching content")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose diagnostics on stderr")
	rootCmd.Flags().IntVar(&maxFiles, "max-files", 0, "cap on retained files (0 = default)")
	rootCmd.Flags().Int64Var(&maxTotalBytes, "max-total-size", 0, "cap on total retained bytes (0 = default)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config.toml (default ~/.repolens/config.toml)")
}

// Execute runs the root command and maps the failure taxonomy onto exit
// codes: 0 success, 2 invalid input, 3 not found, 4 rate limited,
// 5 network, 1 anything else.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	category := domain.Categorize(err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if guidance := category.Guidance(); guidance != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", guidance)
	}

	return exitCode(category)
}

func exitCode(category domain.FailureCategory) int {
	switch category {
	case domain.FailureInvalidInput:
		return 2
	case domain.FailureNotFound:
		return 3
	case domain.FailureRateLimited:
		return 4
	case domain.FailureNetwork:
		return 5
	default:
		return 1
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger.SetVerbose(verboseFlag)

	req, err := buildRequest(args[0])
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	client := gh.NewClient(req.Token)
	analyzer := services.NewAnalyzer(client, req.Limits)
	if cfg := loadConfig(); cfg != nil {
		analyzer.Filter().Weights = cfg.MergedWeights()
	}

	finishProgress := wireProgress(analyzer.Engine())

	result, err := analyzer.Analyze(context.Background(), req)
	finishProgress()
	if err != nil {
		return err
	}

	if req.DryRun {
		printDryRun(cmd, result)
		return nil
	}

	writer := output.NewWriter(outputDir, format)
	written, err := writer.Write(result)
	if err != nil {
		return err
	}

	printSummary(cmd, result, written)
	return nil
}

// buildRequest assembles the immutable run input from flags, environment,
// and configuration. All input validation happens here, before any network
// call.
func buildRequest(rawRepo string) (domain.AnalysisRequest, error) {
	ref, err := domain.ParseRepoRef(rawRepo)
	if err != nil {
		return domain.AnalysisRequest{}, err
	}

	method, err := domain.ParseMethod(methodFlag)
	if err != nil {
		return domain.AnalysisRequest{}, err
	}

	token := domain.ClassifyToken(auth.Resolve(tokenFlag))
	logger.Debug("token: kind=%s batch=%d (%s)", token.Kind, token.MaxBatchSize, token.Masked())

	limits := domain.DefaultLimits()
	if cfg := loadConfig(); cfg != nil {
		limits = cfg.MergedLimits()
	}
	if maxFiles > 0 {
		limits.MaxFiles = maxFiles
	}
	if maxTotalBytes > 0 {
		limits.MaxTotalBytes = maxTotalBytes
	}

	return domain.AnalysisRequest{
		Repo:          ref,
		Token:         token,
		Method:        method,
		AllowFallback: !noFallback,
		DryRun:        dryRun,
		Limits:        limits,
	}, nil
}

// loadConfig reads the config file if one exists. Configuration is
// optional; any load failure degrades to defaults with a warning.
func loadConfig() *config.Config {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn("config %s ignored: %v", path, err)
		return nil
	}
	return &cfg
}

// wireProgress attaches a progress bar to the engine's batch-boundary
// callback. The bar only appears on the API path, where per-file counts
// exist; verbose mode disables it so the bar does not interleave with
// diagnostics.
func wireProgress(engine *services.Engine) (finish func()) {
	if verboseFlag {
		return func() {}
	}
	var bar *pb.ProgressBar
	engine.Progress = func(done, total int) {
		if bar == nil {
			bar = pb.New(total).SetWriter(os.Stderr).Start()
		}
		bar.SetCurrent(int64(done))
	}
	return func() {
		if bar != nil {
			bar.Finish()
		}
	}
}

func printDryRun(cmd *cobra.Command, result domain.AnalysisResult) {
	meta := result.Metadata
	cmd.Printf("Dry run: %s\n", meta.Repo)
	cmd.Printf("  method:         %s\n", meta.Method)
	if meta.DefaultBranch != "" {
		cmd.Printf("  default branch: %s\n", meta.DefaultBranch)
	}
	cmd.Println("  nothing was fetched or written")
}

func printSummary(cmd *cobra.Command, result domain.AnalysisResult, written []string) {
	meta := result.Metadata
	cmd.Printf("Analysed %s (%s", meta.Repo, meta.Method)
	if meta.UsedFallback {
		cmd.Printf(", after fallback")
	}
	cmd.Printf(")\n")
	cmd.Printf("  files:     %d retained, %d skipped\n", meta.TotalFiles, meta.SkippedFiles)
	cmd.Printf("  size:      %d lines, %d bytes\n", meta.TotalLines, meta.TotalBytes)
	if len(meta.Languages) > 0 {
		cmd.Printf("  language:  %s\n", meta.Languages[0].Name)
	}
	if len(meta.Dependencies) > 0 {
		cmd.Printf("  deps:      %d\n", len(meta.Dependencies))
	}
	for _, p := range written {
		cmd.Printf("  wrote %s\n", p)
	}
}
