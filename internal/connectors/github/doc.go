// Package github implements repository acquisition against the GitHub API
// and archive endpoint.
//
// Two acquisition primitives are exposed:
//
//   - DownloadArchive: one streamed zipball download of a branch, walked
//     entry by entry. Cheapest path: a single unauthenticated-friendly
//     request for public repositories.
//
//   - ListTree / FetchBlob: the per-file API path. The recursive Trees API
//     lists every blob in one call; blobs are then fetched individually.
//
// A pre-flight Probe classifies the repository as public, private, or
// missing before the fetch engine commits to a plan. Probe failure is not
// fatal; it degrades to unknown visibility.
//
// # Rate limiting
//
// The client applies a dual-strategy rate controller: a proactive token
// bucket keeps request rates under the provider's comfort threshold, and
// the X-RateLimit-* response headers are tracked reactively so the fetch
// engine can pause a whole batch until the advertised reset time.
//
// # Authentication
//
// The Authorization header form follows the classified token: classic
// tokens send "token <secret>", fine-grained tokens send "Bearer <secret>"
// via an oauth2 static source, and absent tokens send nothing.
package github
