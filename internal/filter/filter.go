// Package filter classifies raw fetched entries (binary or text, language,
// importance), ranks them, and trims the set to the configured caps. Every
// dropped entry is counted; nothing is silently discarded. The resulting
// order is deterministic for identical inputs: priority descending, path
// ascending on ties.
package filter

import (
	"sort"

	"github.com/repolens/repolens-cli/internal/core/domain"
)

// Stats tallies what the filter dropped and why.
type Stats struct {
	SkippedExcluded int
	SkippedBinary   int
	SkippedTooLarge int
	Truncated       int
}

// Total is the skip count reported in the end-of-run summary.
func (s Stats) Total() int {
	return s.SkippedExcluded + s.SkippedBinary + s.SkippedTooLarge + s.Truncated
}

// Filter applies classification, ranking, and caps.
type Filter struct {
	Limits  domain.Limits
	Weights Weights
}

// New builds a filter with the given limits and the default weights.
func New(limits domain.Limits) *Filter {
	return &Filter{Limits: limits, Weights: DefaultWeights()}
}

// Apply turns raw entries into ranked file records. Entries in excluded
// directories, with binary extensions or undecodable content, or over the
// per-file size cap are skipped and counted. After sorting, the
// lowest-priority tail beyond the file-count and total-byte caps is
// truncated; order among kept files is never altered.
func (f *Filter) Apply(entries []domain.RawEntry) ([]domain.FileRecord, Stats) {
	var stats Stats
	records := make([]domain.FileRecord, 0, len(entries))

	for _, entry := range entries {
		switch {
		case InExcludedDir(entry.Path):
			stats.SkippedExcluded++
			continue
		case HasBinaryExtension(entry.Path):
			stats.SkippedBinary++
			continue
		case f.Limits.MaxFileBytes > 0 && entry.Size > f.Limits.MaxFileBytes:
			stats.SkippedTooLarge++
			continue
		}

		text, ok := DecodeText(entry.Content)
		if !ok {
			stats.SkippedBinary++
			continue
		}

		records = append(records, domain.FileRecord{
			Path:     entry.Path,
			Content:  text,
			Size:     entry.Size,
			Lines:    CountLines(text),
			Language: DetectLanguage(entry.Path),
			Priority: f.Weights.Score(entry.Path, entry.Size),
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority > records[j].Priority
		}
		return records[i].Path < records[j].Path
	})

	kept := records
	if f.Limits.MaxFiles > 0 && len(kept) > f.Limits.MaxFiles {
		stats.Truncated += len(kept) - f.Limits.MaxFiles
		kept = kept[:f.Limits.MaxFiles]
	}

	if f.Limits.MaxTotalBytes > 0 {
		var total int64
		cut := len(kept)
		for i, rec := range kept {
			if total+rec.Size > f.Limits.MaxTotalBytes {
				cut = i
				break
			}
			total += rec.Size
		}
		stats.Truncated += len(kept) - cut
		kept = kept[:cut]
	}

	return kept, stats
}
