package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/repolens/repolens-cli/internal/core/domain"
)

// TreeEntry is one blob in the repository's file listing.
type TreeEntry struct {
	Path string
	SHA  string
	Size int64
}

// ListTree fetches the full recursive file tree for a ref in one call.
// Every request waits on the rate controller first.
func (c *Client) ListTree(ctx context.Context, ref domain.RepoRef, branch string) ([]TreeEntry, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tree, resp, err := c.gh.Git.GetTree(ctx, ref.Owner, ref.Name, branch, true)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "get tree")
	}

	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() != "blob" {
			continue
		}
		entries = append(entries, TreeEntry{
			Path: e.GetPath(),
			SHA:  e.GetSHA(),
			Size: int64(e.GetSize()),
		})
	}
	return entries, nil
}

// FetchBlob retrieves one file's content by blob SHA, decoding the base64
// transport encoding the API uses.
func (c *Client) FetchBlob(ctx context.Context, ref domain.RepoRef, entry TreeEntry) (domain.RawEntry, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return domain.RawEntry{}, fmt.Errorf("rate limit wait: %w", err)
	}

	blob, resp, err := c.gh.Git.GetBlob(ctx, ref.Owner, ref.Name, entry.SHA)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return domain.RawEntry{}, c.wrapError(err, "get blob")
	}

	var content []byte
	if blob.GetEncoding() == "base64" {
		content, err = base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.GetContent(), "\n", ""))
		if err != nil {
			return domain.RawEntry{}, fmt.Errorf("decode blob %s: %w", entry.Path, err)
		}
	} else {
		content = []byte(blob.GetContent())
	}

	return domain.RawEntry{
		Path:    entry.Path,
		Content: content,
		Size:    int64(len(content)),
	}, nil
}
