package domain

import "time"

// ProcessManager handles OS process operations.
// Implementation: signal-0 probe plus gopsutil for process-table scans.
type ProcessManager interface {
	// IsRunning checks if a PID exists and is running.
	// Permission-denied counts as running to avoid duplicate spawns.
	IsRunning(pid int) bool

	// FindByOutputFile returns PIDs of processes whose command line
	// references the given report path. Used to adopt a ghcid that is
	// already writing our report even when the PID file is stale.
	FindByOutputFile(reportPath string) ([]int, error)

	// StartDetached spawns argv as a detached background process with
	// stdio discarded, returning its PID. Fire-and-forget: the caller
	// must not assume the process survives past exec.
	StartDetached(argv []string) (int, error)
}

// PIDRegistry persists the supervised process identifier across
// invocations. Overwrite semantics; no locking (racing invocations may
// both write, last one wins).
type PIDRegistry interface {
	// Load returns the persisted PID. ok is false if the file is
	// missing or its content is not a decimal number.
	Load() (pid int, ok bool)

	// Save overwrites the persisted PID.
	Save(pid int) error

	// Path returns the PID file location (for status output and tests).
	Path() string
}

// ReportStore is the read-only view of the report file owned by ghcid.
// All read errors collapse to "no report"; the store never fails loud.
type ReportStore interface {
	// ModTime returns the report's last-modified time.
	// ok is false if the report does not exist (or cannot be stat'd).
	ModTime() (t time.Time, ok bool)

	// Read returns the report's trimmed content, or "" if unreadable.
	Read() string

	// Path returns the report file location.
	Path() string
}

// SourceScanner discovers watched source files under a project tree.
type SourceScanner interface {
	// Scan walks root recursively and returns files matching the
	// recognized source extensions. Unreadable entries are skipped
	// silently.
	Scan(root string) ([]SourceFile, error)
}

// Clock abstracts time so the wait loop is testable without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// ReportAwaiter blocks until the report advances past the state
// observed at call time, bounded by timeout. Implementations: polling
// (default) and fsnotify.
type ReportAwaiter interface {
	// Await returns true if the report's mtime reached invocationTime
	// or advanced past its value at call start before timeout elapsed.
	Await(invocationTime time.Time, timeout time.Duration) bool
}
