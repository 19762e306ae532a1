package domain

import "time"

// RawEntry is a single file produced by either acquisition path, before
// filtering.
type RawEntry struct {
	Path    string
	Content []byte
	Size    int64
}

// FileRecord is a retained file after filtering and prioritisation.
type FileRecord struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Size     int64  `json:"size"`
	Lines    int    `json:"lines"`
	Language string `json:"language"`
	Priority int    `json:"priority"`
}

// LanguageStat aggregates per-language volume. Languages are ranked by bytes.
type LanguageStat struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
	Lines int    `json:"lines"`
	Files int    `json:"files"`
}

// RepoMetadata is the aggregate half of an analysis result.
type RepoMetadata struct {
	Repo          string         `json:"repo"`
	Owner         string         `json:"owner"`
	Name          string         `json:"name"`
	URL           string         `json:"url"`
	Description   string         `json:"description,omitempty"`
	DefaultBranch string         `json:"default_branch,omitempty"`
	Stars         int            `json:"stars,omitempty"`
	Languages     []LanguageStat `json:"languages"`
	EntryPoints   []string       `json:"entry_points"`
	Dependencies  []string       `json:"dependencies"`
	TotalFiles    int            `json:"total_files"`
	TotalLines    int            `json:"total_lines"`
	TotalBytes    int64          `json:"total_bytes"`
	SkippedFiles  int            `json:"skipped_files"`
	Method        Method         `json:"method"`
	UsedFallback  bool           `json:"used_fallback"`
	RunID         string         `json:"run_id"`
	GeneratedAt   time.Time      `json:"generated_at"`
	DryRun        bool           `json:"dry_run,omitempty"`
}

// AnalysisResult is the terminal artifact of a run. Files are ordered by
// priority descending, path ascending on ties; the ordering is deterministic
// for identical inputs.
type AnalysisResult struct {
	Metadata RepoMetadata `json:"metadata"`
	Files    []FileRecord `json:"files"`
}

// RepoInfo is what the visibility probe learned about the repository.
// Zero values mean the probe could not determine the field.
type RepoInfo struct {
	Description   string
	DefaultBranch string
	Stars         int
	SizeKB        int
	Private       bool
}
