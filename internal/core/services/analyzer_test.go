package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gh "github.com/repolens/repolens-cli/internal/connectors/github"
	"github.com/repolens/repolens-cli/internal/core/domain"
	"github.com/repolens/repolens-cli/internal/retry"
)

// probeHandler serves the repository-metadata endpoint and delegates
// everything else.
func probeHandler(body string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/octocat/hello-world" {
			fmt.Fprint(w, body)
			return
		}
		if next != nil {
			next.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

func newTestAnalyzer(t *testing.T, token domain.Token, api http.Handler, archive http.Handler) *Analyzer {
	t.Helper()
	apiSrv := httptest.NewServer(api)
	archiveSrv := httptest.NewServer(archive)
	t.Cleanup(apiSrv.Close)
	t.Cleanup(archiveSrv.Close)

	client := gh.NewClient(token,
		gh.WithAPIBaseURL(apiSrv.URL),
		gh.WithArchiveBaseURL(archiveSrv.URL),
		gh.WithProactiveRate(10000, 1000),
	)
	analyzer := NewAnalyzer(client, domain.DefaultLimits())
	analyzer.Engine().Retry = retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	return analyzer
}

func TestAnalyze_EndToEndArchive(t *testing.T) {
	files := map[string]string{
		"main.py":     "print('hi')\n",
		"src/core.py": "pass\n",
		"README.md":   "# hello\n",
		"logo.png":    "\x89PNGbytes",
	}
	api := probeHandler(`{"name":"hello-world","description":"demo","default_branch":"main","stargazers_count":7,"private":false}`, nil)
	archive := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipArchive(t, files))
	})

	analyzer := newTestAnalyzer(t, domain.Token{}, api, archive)
	result, err := analyzer.Analyze(context.Background(), fetchRequest(t, ""))
	require.NoError(t, err)

	meta := result.Metadata
	assert.Equal(t, "octocat/hello-world", meta.Repo)
	assert.Equal(t, "demo", meta.Description)
	assert.Equal(t, "main", meta.DefaultBranch)
	assert.Equal(t, 7, meta.Stars)
	assert.Equal(t, domain.MethodZip, meta.Method)
	assert.NotEmpty(t, meta.RunID)

	// The PNG is dropped and counted; everything else is retained.
	assert.Equal(t, 3, meta.TotalFiles)
	assert.Equal(t, 1, meta.SkippedFiles)
	assert.Equal(t, []string{"main.py"}, meta.EntryPoints)
	require.NotEmpty(t, meta.Languages)
	assert.Equal(t, "python", meta.Languages[0].Name)

	assert.Equal(t, "main.py", result.Files[0].Path)
}

func TestAnalyze_DryRun(t *testing.T) {
	var archiveHits atomic.Int32
	api := probeHandler(`{"name":"hello-world","default_branch":"main","private":false}`, nil)
	archive := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		archiveHits.Add(1)
		http.NotFound(w, r)
	})

	analyzer := newTestAnalyzer(t, domain.Token{}, api, archive)
	req := fetchRequest(t, "")
	req.DryRun = true

	result, err := analyzer.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.Metadata.DryRun)
	assert.Empty(t, result.Files)
	assert.Zero(t, result.Metadata.TotalFiles)
	assert.NotEmpty(t, result.Metadata.RunID)
	assert.Zero(t, archiveHits.Load())
}

func TestAnalyze_MissingRepository(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	archive := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("archive should never be contacted for a missing repository")
	})

	analyzer := newTestAnalyzer(t, domain.Token{}, api, archive)
	_, err := analyzer.Analyze(context.Background(), fetchRequest(t, ""))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalyze_SkipAccountingIncludesPerFileFailures(t *testing.T) {
	files := map[string]string{"a.py": "a\n", "gone.py": "b\n"}
	backend := newAPIBackend(files)
	gone := blobSHA("gone.py")
	backend.perBlob = func(sha string, hit int, w http.ResponseWriter) bool {
		if sha == gone {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return true
		}
		return false
	}
	api := probeHandler(`{"name":"hello-world","default_branch":"main","private":false}`, backend)
	archive := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	analyzer := newTestAnalyzer(t, domain.ClassifyToken("ghp_abc"), api, archive)
	req := fetchRequest(t, "ghp_abc")
	req.Method = domain.MethodAPI

	result, err := analyzer.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Metadata.TotalFiles)
	assert.Equal(t, 1, result.Metadata.SkippedFiles)
	assert.Equal(t, domain.MethodAPI, result.Metadata.Method)
}
