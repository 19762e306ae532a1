package filter

import (
	"path"
	"strings"
)

// Weights are the tunable knobs of the priority score. The exact values are
// policy, not protocol: any setting must still yield a deterministic total
// order (priority descending, path ascending on ties).
type Weights struct {
	// Default is the score for paths matching no pattern.
	Default int
	// DepthPenalty is subtracted per directory level below the root.
	DepthPenalty int
	// LargeFileBytes is the size above which LargeFilePenalty applies.
	LargeFileBytes int64
	// LargeFilePenalty is subtracted from files above LargeFileBytes.
	LargeFilePenalty int
}

// DefaultWeights mirrors the documented 1000-point scheme.
func DefaultWeights() Weights {
	return Weights{
		Default:          100,
		DepthPenalty:     10,
		LargeFileBytes:   256 << 10,
		LargeFilePenalty: 150,
	}
}

// filenameScores rates exact (lowercased) basenames. Entry points score
// highest, then build manifests, then documentation.
var filenameScores = map[string]int{
	// Entry points
	"main.py": 1000, "app.py": 1000, "run.py": 1000, "__main__.py": 1000,
	"manage.py": 1000, "index.js": 1000, "index.ts": 1000, "server.js": 1000,
	"main.go": 1000, "main.rs": 1000, "main.java": 1000,
	"cli.py": 950, "wsgi.py": 950, "asgi.py": 950,

	// Build manifests
	"package.json": 900, "pyproject.toml": 900, "setup.py": 900,
	"requirements.txt": 900, "dockerfile": 900, "docker-compose.yml": 900,
	"makefile": 900, "cargo.toml": 900, "go.mod": 900, "pom.xml": 900,
	"build.gradle": 900,

	// Documentation
	"readme.md": 800, "readme.txt": 800, "license": 800, "license.txt": 800,
	"license.md": 800, "changelog.md": 800, "contributing.md": 800,
}

// dirScores rates paths living under notable directories.
var dirScores = []struct {
	segment string
	score   int
}{
	{"src", 700}, {"app", 650}, {"core", 620}, {"api", 620}, {"cmd", 700},
	{"internal", 650}, {"lib", 600}, {"pkg", 600},
	{"utils", 580}, {"components", 580}, {"modules", 580},
	{"test", 400}, {"tests", 400}, {"spec", 400},
	{".github", 300}, {"scripts", 300},
	{"docs", 750},
}

// patternScore resolves the base score for a path: exact basename first,
// then the first notable ancestor directory, then test-file naming, then
// the default.
func (w Weights) patternScore(p string) int {
	lower := strings.ToLower(p)
	base := path.Base(lower)

	if score, ok := filenameScores[base]; ok {
		return score
	}

	segments := strings.Split(lower, "/")
	for _, seg := range segments[:max(len(segments)-1, 0)] {
		for _, ds := range dirScores {
			if seg == ds.segment {
				return ds.score
			}
		}
	}

	if strings.HasPrefix(base, "test_") || strings.Contains(base, "_test.") {
		return 400
	}

	return w.Default
}

// Score computes the priority for a path and size. Shallow paths are
// favoured and very large files penalised; the pattern table dominates.
func (w Weights) Score(p string, size int64) int {
	score := w.patternScore(p)
	score -= strings.Count(p, "/") * w.DepthPenalty
	if size > w.LargeFileBytes {
		score -= w.LargeFilePenalty
	}
	return score
}

// IsEntryPoint reports whether a basename is in the entry-point set.
func IsEntryPoint(p string) bool {
	score, ok := filenameScores[strings.ToLower(path.Base(p))]
	return ok && score >= 950
}
