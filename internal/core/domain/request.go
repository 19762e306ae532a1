package domain

import "fmt"

// Method selects how repository contents are acquired.
type Method string

const (
	MethodAuto Method = "auto"
	MethodZip  Method = "zip"
	MethodAPI  Method = "api"
)

// ParseMethod validates a method flag value.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodAuto, MethodZip, MethodAPI:
		return Method(s), nil
	default:
		return "", fmt.Errorf("%w: unknown method %q (expected auto, zip, or api)", ErrInvalidInput, s)
	}
}

// Limits bounds what the filter retains.
type Limits struct {
	// MaxFiles caps the number of retained files.
	MaxFiles int
	// MaxTotalBytes caps the summed size of retained files.
	MaxTotalBytes int64
	// MaxFileBytes caps an individual file; larger files are treated as
	// generated or vendored artifacts and skipped.
	MaxFileBytes int64
}

// DefaultLimits mirrors the documented defaults: 1000 files, 100 MB total,
// 1 MB per file.
func DefaultLimits() Limits {
	return Limits{
		MaxFiles:      1000,
		MaxTotalBytes: 100 << 20,
		MaxFileBytes:  1 << 20,
	}
}

// AnalysisRequest is the immutable input to the fetch engine.
type AnalysisRequest struct {
	Repo          RepoRef
	Token         Token
	Method        Method
	AllowFallback bool
	DryRun        bool
	Limits        Limits
}

// Visibility is the result of the pre-flight repository probe.
type Visibility int

const (
	VisibilityUnknown Visibility = iota
	VisibilityPublic
	VisibilityPrivate
	VisibilityMissing
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityPrivate:
		return "private"
	case VisibilityMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// FetchPlan is the single up-front acquisition decision threaded through the
// fetch engine: which method to attempt first and whether falling back to the
// other is permitted.
type FetchPlan struct {
	Primary       Method
	AllowFallback bool
	Visibility    Visibility
	// DefaultBranch is the branch reported by the probe, empty when the
	// probe degraded to unknown visibility.
	DefaultBranch string
}
