// Package output persists analysis results as on-disk artifacts. Each run
// writes into a per-repository directory: a pretty-printed metadata file
// for humans, and the retained code as a compact JSON map, optionally
// gzip-compressed.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/repolens/repolens-cli/internal/core/domain"
	"github.com/repolens/repolens-cli/internal/logger"
)

// Format selects which code artifacts a run writes. Metadata is always
// written.
type Format string

const (
	FormatJSON Format = "json"
	FormatBin  Format = "bin"
	FormatBoth Format = "both"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatBin, FormatBoth:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (expected json, bin, or both)", domain.ErrInvalidInput, s)
	}
}

// Writer persists results under Dir, one subdirectory per repository.
type Writer struct {
	Dir    string
	Format Format
}

// NewWriter builds a writer rooted at dir.
func NewWriter(dir string, format Format) *Writer {
	return &Writer{Dir: dir, Format: format}
}

// codePayload is the compact code artifact: metadata alongside a
// path-to-content map, keyed short to keep the uncompressed file small.
type codePayload struct {
	Metadata domain.RepoMetadata `json:"m"`
	Files    map[string]string   `json:"f"`
}

// Write persists the result's artifacts and returns the paths written.
func (w *Writer) Write(result domain.AnalysisResult) ([]string, error) {
	base := fmt.Sprintf("%s_%s", result.Metadata.Owner, result.Metadata.Name)
	dir := filepath.Join(w.Dir, base)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var written []string

	metaPath := filepath.Join(dir, base+"_meta.json")
	meta, err := json.MarshalIndent(result.Metadata, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode metadata: %v", domain.ErrAssembly, err)
	}
	if err := os.WriteFile(metaPath, append(meta, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}
	written = append(written, metaPath)

	code, err := MarshalCode(result)
	if err != nil {
		return nil, err
	}

	if w.Format == FormatJSON || w.Format == FormatBoth {
		codePath := filepath.Join(dir, base+"_code.json")
		if err := os.WriteFile(codePath, code, 0o644); err != nil {
			return nil, fmt.Errorf("write code artifact: %w", err)
		}
		written = append(written, codePath)
	}

	if w.Format == FormatBin || w.Format == FormatBoth {
		gzPath := filepath.Join(dir, base+"_code.json.gz")
		compressed, err := compress(code)
		if err != nil {
			return nil, fmt.Errorf("%w: compress code artifact: %v", domain.ErrAssembly, err)
		}
		if err := os.WriteFile(gzPath, compressed, 0o644); err != nil {
			return nil, fmt.Errorf("write compressed artifact: %w", err)
		}
		written = append(written, gzPath)
	}

	for _, p := range written {
		logger.Info("wrote %s", p)
	}
	return written, nil
}

// MarshalCode encodes the compact code artifact.
func MarshalCode(result domain.AnalysisResult) ([]byte, error) {
	payload := codePayload{
		Metadata: result.Metadata,
		Files:    make(map[string]string, len(result.Files)),
	}
	for _, f := range result.Files {
		payload.Files[f.Path] = f.Content
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode code artifact: %v", domain.ErrAssembly, err)
	}
	return data, nil
}

// UnmarshalCode decodes a code artifact back into its metadata and
// path-to-content map. Accepts both the plain and gzip-compressed form.
func UnmarshalCode(data []byte) (domain.RepoMetadata, map[string]string, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return domain.RepoMetadata{}, nil, fmt.Errorf("decompress code artifact: %w", err)
		}
		defer zr.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(zr); err != nil {
			return domain.RepoMetadata{}, nil, fmt.Errorf("decompress code artifact: %w", err)
		}
		data = buf.Bytes()
	}

	var payload codePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.RepoMetadata{}, nil, fmt.Errorf("decode code artifact: %w", err)
	}
	return payload.Metadata, payload.Files, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
