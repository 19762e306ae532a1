package domain

import "errors"

// Failure taxonomy. Everything below the level of the whole run is absorbed
// and counted (retries, per-file skips); only run-level exhaustion is
// surfaced, always as one of these categories wrapped with context.
var (
	// ErrInvalidInput indicates a malformed repository reference or flag
	// value. Failed fast, no network call was attempted.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates the repository is missing or private without a
	// sufficient credential. Never retried.
	ErrNotFound = errors.New("repository not found or inaccessible")

	// ErrRateLimited indicates the provider's quota stayed exhausted after
	// the maximum number of wait-and-resume attempts for a single run.
	ErrRateLimited = errors.New("rate limited")

	// ErrNetwork indicates transient network failure that persisted past the
	// retry ceiling.
	ErrNetwork = errors.New("network failure")

	// ErrAssembly indicates an internal invariant violation during result
	// assembly. A defect signal, never retried.
	ErrAssembly = errors.New("internal assembly error")
)

// FailureCategory is the caller-facing classification of a run failure,
// used for exit-code mapping and user messaging.
type FailureCategory int

const (
	FailureUnknown FailureCategory = iota
	FailureInvalidInput
	FailureNotFound
	FailureRateLimited
	FailureNetwork
	FailureAssembly
)

// Categorize maps a run-level error onto the failure taxonomy.
func Categorize(err error) FailureCategory {
	switch {
	case err == nil:
		return FailureUnknown
	case errors.Is(err, ErrInvalidInput):
		return FailureInvalidInput
	case errors.Is(err, ErrNotFound):
		return FailureNotFound
	case errors.Is(err, ErrRateLimited):
		return FailureRateLimited
	case errors.Is(err, ErrNetwork):
		return FailureNetwork
	case errors.Is(err, ErrAssembly):
		return FailureAssembly
	default:
		return FailureUnknown
	}
}

// Guidance returns an actionable message for a failure category.
func (c FailureCategory) Guidance() string {
	switch c {
	case FailureInvalidInput:
		return "check the repository URL; expected https://github.com/owner/repo"
	case FailureNotFound:
		return "the repository may be private or missing; supply a token with repo scope via --token, GITHUB_TOKEN, or a .env file"
	case FailureRateLimited:
		return "the GitHub API quota is exhausted; wait for the limit to reset or supply an authenticated token"
	case FailureNetwork:
		return "the network kept failing after retries; check connectivity and try again"
	case FailureAssembly:
		return "this is a bug in the analyzer; please report it"
	default:
		return ""
	}
}
