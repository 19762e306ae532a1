package github

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens-cli/internal/core/domain"
)

func zipball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testRef(t *testing.T) domain.RepoRef {
	t.Helper()
	ref, err := domain.ParseRepoRef("octocat/hello-world")
	require.NoError(t, err)
	return ref
}

func TestDownloadArchive_StripsRootPrefix(t *testing.T) {
	data := zipball(t, map[string]string{
		"hello-world-main/main.py":      "print('hi')\n",
		"hello-world-main/src/util.py":  "pass\n",
		"hello-world-main/docs/note.md": "# note\n",
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/octocat/hello-world/zip/refs/heads/main", r.URL.Path)
		w.Write(data)
	}))
	defer srv.Close()

	client := NewClient(domain.Token{}, WithArchiveBaseURL(srv.URL))
	entries, err := client.DownloadArchive(context.Background(), testRef(t), "main", 1<<20)
	require.NoError(t, err)

	paths := make(map[string]string)
	for _, e := range entries {
		paths[e.Path] = string(e.Content)
		assert.Equal(t, int64(len(e.Content)), e.Size)
	}
	assert.Equal(t, map[string]string{
		"main.py":      "print('hi')\n",
		"src/util.py":  "pass\n",
		"docs/note.md": "# note\n",
	}, paths)
}

func TestDownloadArchive_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(domain.Token{}, WithArchiveBaseURL(srv.URL))
	_, err := client.DownloadArchive(context.Background(), testRef(t), "main", 1<<20)

	assert.ErrorIs(t, err, ErrArchiveUnavailable)
	assert.True(t, IsNotFound(err))
}

func TestDownloadArchive_AccessDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(domain.Token{}, WithArchiveBaseURL(srv.URL))
	_, err := client.DownloadArchive(context.Background(), testRef(t), "main", 1<<20)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestDownloadArchive_TooLargeByContentLength(t *testing.T) {
	data := zipball(t, map[string]string{"repo-main/big.txt": "xxxxxxxxxxxxxxxx"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	client := NewClient(domain.Token{}, WithArchiveBaseURL(srv.URL))
	_, err := client.DownloadArchive(context.Background(), testRef(t), "main", 10)

	assert.ErrorIs(t, err, ErrArchiveTooLarge)
}

func TestWalkZipball_NoCommonRootKeepsPaths(t *testing.T) {
	data := zipball(t, map[string]string{
		"a/one.txt": "1",
		"b/two.txt": "2",
	})

	entries, err := walkZipball(data)
	require.NoError(t, err)

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.ElementsMatch(t, []string{"a/one.txt", "b/two.txt"}, paths)
}

func TestWalkZipball_InvalidData(t *testing.T) {
	_, err := walkZipball([]byte("this is not a zip"))
	assert.Error(t, err)
}

func TestRetryableArchive(t *testing.T) {
	assert.False(t, RetryableArchive(nil))
	assert.False(t, RetryableArchive(ErrArchiveUnavailable))
	assert.False(t, RetryableArchive(ErrArchiveTooLarge))
	assert.False(t, RetryableArchive(&APIError{StatusCode: 403}))
	assert.True(t, RetryableArchive(&APIError{StatusCode: 502}))
	assert.True(t, RetryableArchive(&net.OpError{Op: "read", Err: errors.New("reset")}))
}
