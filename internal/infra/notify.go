package infra

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
)

// NotifyAwaiter implements domain.ReportAwaiter with filesystem events
// instead of polling. It watches the report's directory (the file
// itself may not exist yet) and re-stats on every event touching the
// report path. Observable contract is identical to the polling awaiter:
// true once the report mtime reaches invocationTime or advances past
// its value at call start, false after timeout.
type NotifyAwaiter struct {
	store    domain.ReportStore
	fallback domain.ReportAwaiter
}

// NewNotifyAwaiter creates an event-driven awaiter over store. If the
// OS watcher cannot be created at Await time, fallback handles the wait.
func NewNotifyAwaiter(store domain.ReportStore, fallback domain.ReportAwaiter) *NotifyAwaiter {
	return &NotifyAwaiter{store: store, fallback: fallback}
}

// Await blocks until the report advances, bounded by timeout.
func (a *NotifyAwaiter) Await(invocationTime time.Time, timeout time.Duration) bool {
	if t, ok := a.store.ModTime(); ok && !t.Before(invocationTime) {
		return true
	}
	start, hadReport := a.store.ModTime()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return a.fallback.Await(invocationTime, timeout)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(a.store.Path())); err != nil {
		return a.fallback.Await(invocationTime, timeout)
	}

	// The report may have advanced between the stat above and the
	// watch being registered.
	if a.advanced(start, hadReport) {
		return true
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return a.advanced(start, hadReport)
			}
			if event.Name != a.store.Path() {
				continue
			}
			if a.advanced(start, hadReport) {
				return true
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return a.advanced(start, hadReport)
			}
			// Overflow or transient error: re-stat rather than trust
			// the event stream.
			if a.advanced(start, hadReport) {
				return true
			}

		case <-deadline.C:
			return false
		}
	}
}

func (a *NotifyAwaiter) advanced(start time.Time, hadReport bool) bool {
	t, ok := a.store.ModTime()
	if !ok {
		return false
	}
	if !hadReport {
		return true // creation counts as an advance
	}
	return t.After(start)
}

// Ensure NotifyAwaiter implements domain.ReportAwaiter.
var _ domain.ReportAwaiter = (*NotifyAwaiter)(nil)
