// Package domain contains core entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// SourceFile is a watched source file discovered under the project tree.
// Discovered fresh on every invocation; it has no identity across runs.
type SourceFile struct {
	Path    string
	ModTime time.Time
}

// Report is the text artifact written by the supervised ghcid process.
// The hook is a read-only observer: ghcid is the sole writer.
type Report struct {
	Path    string
	ModTime time.Time
	Content string
}

// Stream identifies where a verdict's message is routed.
type Stream int

const (
	StreamStdout Stream = iota
	StreamStderr
)

// Verdict is the final outcome of one hook invocation.
type Verdict struct {
	ExitCode int
	Message  string
	Stream   Stream
}

// Exit codes surfaced to the calling hook.
const (
	ExitOK      = 0 // no relevant changes, or ghcid reports success
	ExitFailure = 2 // ghcid reports a compile failure
)

// DecisionPath records which branch of the staleness state machine a
// run took. Exposed for the debug log and tests, not for callers.
type DecisionPath string

const (
	PathNoChanges   DecisionPath = "no-changes"
	PathFreshReport DecisionPath = "fresh-report"
	PathAlreadyNew  DecisionPath = "already-new"
	PathWaited      DecisionPath = "waited"
	PathTimeout     DecisionPath = "timeout"
)
