// Package domain defines the core value types of the analyzer: repository
// references, classified tokens, analysis requests and plans, raw fetched
// entries, filtered file records, and the final analysis result. All types
// are plain values; construction validates, and nothing here performs I/O.
package domain
