// Package auth discovers the GitHub credential feeding the analyzer. The
// core never reads the environment or filesystem mid-run: the secret is
// resolved once here and passed by value into the request.
package auth

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/repolens/repolens-cli/internal/logger"
)

// Environment variables consulted, in priority order.
const (
	EnvToken      = "GITHUB_TOKEN"
	EnvTokenAlias = "GH_TOKEN"
)

// envSearchDepth is how many parent directories are searched for .env
// files beyond the starting directory.
const envSearchDepth = 3

// Resolve returns the raw secret from the highest-priority source:
// explicit parameter, GITHUB_TOKEN, GH_TOKEN, then .env files discovered
// in the working directory and its parents. Empty means unauthenticated.
func Resolve(explicit string) string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return ResolveFrom(explicit, wd)
}

// ResolveFrom is Resolve with an explicit starting directory for the .env
// search.
func ResolveFrom(explicit, dir string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}

	for _, key := range []string{EnvToken, EnvTokenAlias} {
		if s := strings.TrimSpace(os.Getenv(key)); s != "" {
			logger.Debug("token sourced from %s", key)
			return s
		}
	}

	for _, envFile := range findEnvFiles(dir) {
		vars, err := godotenv.Read(envFile)
		if err != nil {
			continue
		}
		for _, key := range []string{EnvToken, EnvTokenAlias} {
			if s := strings.TrimSpace(vars[key]); s != "" {
				logger.Debug("token sourced from %s (%s)", envFile, key)
				return s
			}
		}
	}

	return ""
}

// findEnvFiles returns .env files in dir and up to envSearchDepth parents,
// nearest first.
func findEnvFiles(dir string) []string {
	var files []string
	for i := 0; i <= envSearchDepth; i++ {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			files = append(files, candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return files
}
