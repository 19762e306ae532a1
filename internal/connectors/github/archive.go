package github

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/repolens/repolens-cli/internal/core/domain"
	"github.com/repolens/repolens-cli/internal/retry"
)

// ErrArchiveTooLarge indicates the zipball exceeded the configured size
// ceiling. Fallback-eligible: the API path can still fetch selectively.
var ErrArchiveTooLarge = errors.New("github: archive exceeds size limit")

// archiveURL builds the zipball URL for a branch.
func (c *Client) archiveURL(ref domain.RepoRef, branch string) string {
	return fmt.Sprintf("%s/%s/%s/zip/refs/heads/%s", c.archiveBase, ref.Owner, ref.Name, branch)
}

// DownloadArchive streams the repository zipball for a branch and walks it
// into RawEntry values. maxBytes bounds the download; directories and the
// zipball's synthetic root prefix are stripped. HTTP 404 maps to
// ErrArchiveUnavailable and auth failures to APIError, neither of which is
// retryable; transient failures surface as-is for the caller's retry policy.
func (c *Client) DownloadArchive(ctx context.Context, ref domain.RepoRef, branch string, maxBytes int64) ([]domain.RawEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.archiveURL(ref, branch), nil)
	if err != nil {
		return nil, fmt.Errorf("build archive request: %w", err)
	}

	resp, err := c.archiveHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive download: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s@%s", ErrArchiveUnavailable, ref.FullName(), branch)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "archive access denied", URL: req.URL.String()}
	case resp.StatusCode != http.StatusOK:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "archive download failed", URL: req.URL.String()}
	}

	if resp.ContentLength > 0 && resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrArchiveTooLarge, resp.ContentLength)
	}

	// LimitReader with one spare byte so an over-limit body is detectable
	// even without a Content-Length header.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("archive read: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: download exceeded %d bytes", ErrArchiveTooLarge, maxBytes)
	}

	return walkZipball(data)
}

// walkZipball extracts every regular file from zipball bytes, stripping the
// single synthetic "{repo}-{ref}/" root directory GitHub prepends.
func walkZipball(data []byte) ([]domain.RawEntry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid zip archive: %w", err)
	}

	prefix := commonRootPrefix(zr.File)

	var entries []domain.RawEntry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		path := strings.TrimPrefix(f.Name, prefix)
		if path == "" || path == "/" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		entries = append(entries, domain.RawEntry{
			Path:    path,
			Content: content,
			Size:    int64(len(content)),
		})
	}

	return entries, nil
}

// commonRootPrefix returns "root/" when every file lives under a single
// top-level directory, else "".
func commonRootPrefix(files []*zip.File) string {
	roots := make(map[string]struct{})
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		idx := strings.Index(f.Name, "/")
		if idx < 0 {
			return ""
		}
		roots[f.Name[:idx+1]] = struct{}{}
		if len(roots) > 1 {
			return ""
		}
	}
	for root := range roots {
		return root
	}
	return ""
}

// RetryableArchive reports whether an archive failure is worth another
// attempt: transient network errors and 5xx responses are; 404 and auth
// failures are not.
func RetryableArchive(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrArchiveUnavailable) || errors.Is(err, ErrArchiveTooLarge) {
		return false
	}
	if IsServerError(err) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	return retry.IsTransient(err)
}
