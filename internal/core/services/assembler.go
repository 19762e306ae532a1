package services

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"

	"github.com/repolens/repolens-cli/internal/core/domain"
	"github.com/repolens/repolens-cli/internal/filter"
	"github.com/repolens/repolens-cli/internal/logger"
)

// Assemble aggregates filtered records into the final immutable result:
// languages ranked by byte volume, detected entry points, dependency names
// extracted from recognised manifests, and run totals. It performs no I/O
// and fails only on internal invariant violations, which are defects, not
// user-facing errors.
func Assemble(req domain.AnalysisRequest, info domain.RepoInfo, outcome FetchOutcome, files []domain.FileRecord, skipped int, runID string) (domain.AnalysisResult, error) {
	if err := checkOrdering(files); err != nil {
		return domain.AnalysisResult{}, err
	}

	var totalBytes int64
	totalLines := 0
	langs := make(map[string]*domain.LanguageStat)
	var entryPoints []string

	for _, f := range files {
		totalBytes += f.Size
		totalLines += f.Lines

		stat, ok := langs[f.Language]
		if !ok {
			stat = &domain.LanguageStat{Name: f.Language}
			langs[f.Language] = stat
		}
		stat.Bytes += f.Size
		stat.Lines += f.Lines
		stat.Files++

		if filter.IsEntryPoint(f.Path) {
			entryPoints = append(entryPoints, f.Path)
		}
	}

	ranked := make([]domain.LanguageStat, 0, len(langs))
	for _, stat := range langs {
		ranked = append(ranked, *stat)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Bytes != ranked[j].Bytes {
			return ranked[i].Bytes > ranked[j].Bytes
		}
		return ranked[i].Name < ranked[j].Name
	})

	sort.Strings(entryPoints)

	return domain.AnalysisResult{
		Metadata: domain.RepoMetadata{
			Repo:          req.Repo.FullName(),
			Owner:         req.Repo.Owner,
			Name:          req.Repo.Name,
			URL:           req.Repo.URL,
			Description:   info.Description,
			DefaultBranch: info.DefaultBranch,
			Stars:         info.Stars,
			Languages:     ranked,
			EntryPoints:   entryPoints,
			Dependencies:  extractDependencies(files),
			TotalFiles:    len(files),
			TotalLines:    totalLines,
			TotalBytes:    totalBytes,
			SkippedFiles:  skipped,
			Method:        outcome.Method,
			UsedFallback:  outcome.UsedFallback,
			RunID:         runID,
			GeneratedAt:   time.Now().UTC(),
		},
		Files: files,
	}, nil
}

// checkOrdering verifies the files invariant: priority descending, path
// ascending on ties. A violation is a defect in the filter, surfaced as
// ErrAssembly.
func checkOrdering(files []domain.FileRecord) error {
	for i := 1; i < len(files); i++ {
		prev, cur := files[i-1], files[i]
		if prev.Priority < cur.Priority ||
			(prev.Priority == cur.Priority && prev.Path > cur.Path) {
			return fmt.Errorf("%w: file ordering violated at %q", domain.ErrAssembly, cur.Path)
		}
	}
	return nil
}

// extractDependencies pulls dependency names from recognised manifest files
// among the retained records. Parsing is best-effort: a manifest that fails
// to parse contributes nothing and is logged, never an error.
func extractDependencies(files []domain.FileRecord) []string {
	seen := make(map[string]struct{})

	for _, f := range files {
		var deps []string
		var err error

		switch strings.ToLower(path.Base(f.Path)) {
		case "package.json":
			deps, err = packageJSONDeps(f.Content)
		case "requirements.txt":
			deps = requirementsDeps(f.Content)
		case "go.mod":
			deps, err = goModDeps(f.Path, f.Content)
		case "cargo.toml":
			deps, err = cargoDeps(f.Content)
		case "pyproject.toml":
			deps, err = pyprojectDeps(f.Content)
		default:
			continue
		}

		if err != nil {
			logger.Debug("manifest %s not parseable: %v", f.Path, err)
			continue
		}
		for _, d := range deps {
			if d != "" {
				seen[d] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func packageJSONDeps(content string) ([]string, error) {
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(content), &manifest); err != nil {
		return nil, err
	}
	deps := make([]string, 0, len(manifest.Dependencies)+len(manifest.DevDependencies))
	for name := range manifest.Dependencies {
		deps = append(deps, name)
	}
	for name := range manifest.DevDependencies {
		deps = append(deps, name)
	}
	return deps, nil
}

// requirementsDeps parses pip requirement lines, stripping version
// specifiers, extras, and environment markers.
func requirementsDeps(content string) []string {
	var deps []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if idx := strings.IndexAny(line, "=<>!~;[ "); idx >= 0 {
			line = line[:idx]
		}
		if line != "" {
			deps = append(deps, line)
		}
	}
	return deps
}

func goModDeps(p, content string) ([]string, error) {
	mf, err := modfile.ParseLax(p, []byte(content), nil)
	if err != nil {
		return nil, err
	}
	var deps []string
	for _, req := range mf.Require {
		if !req.Indirect {
			deps = append(deps, req.Mod.Path)
		}
	}
	return deps, nil
}

func cargoDeps(content string) ([]string, error) {
	var manifest struct {
		Dependencies    map[string]any `toml:"dependencies"`
		DevDependencies map[string]any `toml:"dev-dependencies"`
	}
	if err := toml.Unmarshal([]byte(content), &manifest); err != nil {
		return nil, err
	}
	deps := make([]string, 0, len(manifest.Dependencies)+len(manifest.DevDependencies))
	for name := range manifest.Dependencies {
		deps = append(deps, name)
	}
	for name := range manifest.DevDependencies {
		deps = append(deps, name)
	}
	return deps, nil
}

func pyprojectDeps(content string) ([]string, error) {
	var manifest struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal([]byte(content), &manifest); err != nil {
		return nil, err
	}

	var deps []string
	for _, spec := range manifest.Project.Dependencies {
		name := spec
		if idx := strings.IndexAny(name, "=<>!~;[ "); idx >= 0 {
			name = name[:idx]
		}
		deps = append(deps, strings.TrimSpace(name))
	}
	for name := range manifest.Tool.Poetry.Dependencies {
		if name != "python" {
			deps = append(deps, name)
		}
	}
	return deps, nil
}
