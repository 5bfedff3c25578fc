package feedback

import (
	"time"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
)

// PollAwaiter implements domain.ReportAwaiter by re-statting the
// report at a fixed interval. Cooperative busy-waiting: the only way
// out is an advance or the timeout.
type PollAwaiter struct {
	store    domain.ReportStore
	clock    domain.Clock
	interval time.Duration
}

// NewPollAwaiter creates a polling awaiter over store.
func NewPollAwaiter(store domain.ReportStore, clock domain.Clock, interval time.Duration) *PollAwaiter {
	return &PollAwaiter{
		store:    store,
		clock:    clock,
		interval: interval,
	}
}

// Await returns true if the report's mtime already reached
// invocationTime, or advances past its value at call start before
// timeout elapses. An absent report counts as older than anything, so
// its later creation is an advance.
func (a *PollAwaiter) Await(invocationTime time.Time, timeout time.Duration) bool {
	start, hadReport := a.store.ModTime()
	if hadReport && !start.Before(invocationTime) {
		return true
	}

	deadline := a.clock.Now().Add(timeout)
	for a.clock.Now().Before(deadline) {
		if t, ok := a.store.ModTime(); ok {
			if !hadReport || t.After(start) {
				return true
			}
		}
		a.clock.Sleep(a.interval)
	}
	return false
}

// Ensure PollAwaiter implements domain.ReportAwaiter.
var _ domain.ReportAwaiter = (*PollAwaiter)(nil)
