// Package version exposes build metadata for the reminder binaries.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
// UserAgent tags gRPC calls so the server log shows which client build
// issued them.
package version
