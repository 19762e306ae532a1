package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens-cli/internal/core/domain"
)

func resetFlags(t *testing.T) {
	t.Helper()
	origMethod, origToken, origNoFallback := methodFlag, tokenFlag, noFallback
	origMaxFiles, origMaxBytes, origConfig := maxFiles, maxTotalBytes, configPath
	t.Cleanup(func() {
		methodFlag, tokenFlag, noFallback = origMethod, origToken, origNoFallback
		maxFiles, maxTotalBytes, configPath = origMaxFiles, origMaxBytes, origConfig
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(domain.FailureInvalidInput))
	assert.Equal(t, 3, exitCode(domain.FailureNotFound))
	assert.Equal(t, 4, exitCode(domain.FailureRateLimited))
	assert.Equal(t, 5, exitCode(domain.FailureNetwork))
	assert.Equal(t, 1, exitCode(domain.FailureAssembly))
	assert.Equal(t, 1, exitCode(domain.FailureUnknown))
}

func TestBuildRequest(t *testing.T) {
	resetFlags(t)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	methodFlag = "zip"
	tokenFlag = "ghp_abc"
	noFallback = true
	maxFiles = 25
	maxTotalBytes = 2048
	configPath = "/nonexistent/config.toml"

	req, err := buildRequest("octocat/hello-world")
	require.NoError(t, err)

	assert.Equal(t, "octocat/hello-world", req.Repo.FullName())
	assert.Equal(t, domain.MethodZip, req.Method)
	assert.Equal(t, domain.TokenClassic, req.Token.Kind)
	assert.False(t, req.AllowFallback)
	assert.Equal(t, 25, req.Limits.MaxFiles)
	assert.Equal(t, int64(2048), req.Limits.MaxTotalBytes)
	// Flags left unset keep the defaults.
	assert.Equal(t, domain.DefaultLimits().MaxFileBytes, req.Limits.MaxFileBytes)
}

func TestBuildRequest_InvalidRepo(t *testing.T) {
	resetFlags(t)
	methodFlag = "auto"

	_, err := buildRequest("https://gitlab.com/owner/repo")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuildRequest_InvalidMethod(t *testing.T) {
	resetFlags(t)
	methodFlag = "teleport"

	_, err := buildRequest("octocat/hello-world")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRootCmd_RequiresRepositoryArgument(t *testing.T) {
	rootCmd.SetArgs([]string{})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	assert.Error(t, err)
}
