// Package feedback implements the staleness-detection state machine:
// ensure ghcid is running, decide from timestamps whether a run is a
// no-op, can trust the existing report, or must wait for a new one,
// and classify the result.
package feedback

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/config"
	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
)

// Messages the calling hook may key on.
const (
	MsgNoChanges = "No Haskell files newer than last output, exiting."
	MsgTimeout   = "Timeout waiting for ghcid output"
)

// Runner executes one hook invocation. Single-threaded and
// synchronous; the only suspension point is the awaiter.
type Runner struct {
	cfg     config.Config
	root    string
	procs   domain.ProcessManager
	pids    domain.PIDRegistry
	store   domain.ReportStore
	scanner domain.SourceScanner
	awaiter domain.ReportAwaiter
	clock   domain.Clock
	out     io.Writer
	logger  *zap.Logger
}

// NewRunner creates a runner for the project rooted at root.
// Progress diagnostics go to out; the verdict's message is routed by
// the caller according to Verdict.Stream.
func NewRunner(
	cfg config.Config,
	root string,
	procs domain.ProcessManager,
	pids domain.PIDRegistry,
	store domain.ReportStore,
	scanner domain.SourceScanner,
	awaiter domain.ReportAwaiter,
	clock domain.Clock,
	out io.Writer,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		cfg:     cfg,
		root:    root,
		procs:   procs,
		pids:    pids,
		store:   store,
		scanner: scanner,
		awaiter: awaiter,
		clock:   clock,
		out:     out,
		logger:  logger,
	}
}

// Run executes the state machine and returns the final verdict plus
// the decision path taken. It never blocks past the configured
// timeout and never fails without producing a verdict.
func (r *Runner) Run() (domain.Verdict, domain.DecisionPath) {
	invocationTime := r.clock.Now()

	r.EnsureRunning()

	reportTime, hasReport := r.store.ModTime()

	// A report written just before this invocation already reflects
	// the latest edits; timestamp comparison against file saves would
	// only add clock-resolution slop.
	if hasReport && invocationTime.Sub(reportTime) < r.cfg.FreshnessWindow {
		r.logger.Debug("report is fresh, skipping change detection",
			zap.Time("report_time", reportTime),
			zap.Duration("window", r.cfg.FreshnessWindow))
		return Classify(r.store.Read()), domain.PathFreshReport
	}

	changed, total := r.findChangedInputs(reportTime, hasReport)
	fmt.Fprintf(r.out, "Found %d Haskell files, %d newer than last output\n", total, len(changed))
	if len(changed) > 0 {
		fmt.Fprintf(r.out, "Newer files: %s\n", strings.Join(changed, ", "))
	}

	if len(changed) == 0 {
		return domain.Verdict{
			ExitCode: domain.ExitOK,
			Message:  MsgNoChanges,
			Stream:   domain.StreamStdout,
		}, domain.PathNoChanges
	}

	// Re-stat: ghcid may have finished a cycle while we scanned the
	// tree, in which case there is nothing to wait for.
	if t, ok := r.store.ModTime(); ok && !t.Before(invocationTime) {
		return Classify(r.store.Read()), domain.PathAlreadyNew
	}

	if !r.awaiter.Await(invocationTime, r.cfg.Timeout) {
		// Soft failure: exit 0 with a stderr diagnostic so the
		// calling hook is never stalled by a dead or wedged ghcid.
		r.logger.Warn("timed out waiting for report",
			zap.Duration("timeout", r.cfg.Timeout),
			zap.String("report", r.store.Path()))
		return domain.Verdict{
			ExitCode: domain.ExitOK,
			Message:  MsgTimeout,
			Stream:   domain.StreamStderr,
		}, domain.PathTimeout
	}

	return Classify(r.store.Read()), domain.PathWaited
}

// EnsureRunning makes sure a ghcid process is serving this project.
// Idempotent and best-effort: a spawn that fails to launch is logged,
// not raised; a perpetually absent report is the observable failure.
func (r *Runner) EnsureRunning() {
	if pid, ok := r.pids.Load(); ok && r.procs.IsRunning(pid) {
		return
	}

	// The PID file may be stale while the process it once named, or a
	// manually started ghcid, is still writing our report. Adopt it
	// rather than spawning a duplicate.
	if pids, err := r.procs.FindByOutputFile(r.store.Path()); err == nil && len(pids) > 0 {
		r.logger.Info("adopted running ghcid", zap.Int("pid", pids[0]))
		if err := r.pids.Save(pids[0]); err != nil {
			r.logger.Warn("failed to persist adopted pid", zap.Error(err))
		}
		return
	}

	fmt.Fprintln(r.out, "Starting ghcid...")

	argv := make([]string, 0, len(r.cfg.Command)+1)
	argv = append(argv, r.cfg.Command...)
	argv = append(argv, "--outputfile="+r.store.Path())

	pid, err := r.procs.StartDetached(argv)
	if err != nil {
		r.logger.Warn("failed to start ghcid", zap.Error(err), zap.Strings("argv", argv))
		return
	}

	if err := r.pids.Save(pid); err != nil {
		r.logger.Warn("failed to persist pid", zap.Int("pid", pid), zap.Error(err))
	}
	r.logger.Info("started ghcid", zap.Int("pid", pid))
}

// findChangedInputs returns the watched files modified strictly after
// the report, plus the total number of watched files. With no report
// the reference is the beginning of time, so everything counts.
func (r *Runner) findChangedInputs(reportTime time.Time, hasReport bool) (changed []string, total int) {
	ref := time.Time{}
	if hasReport {
		ref = reportTime
	}

	files, err := r.scanner.Scan(r.root)
	if err != nil {
		// An unwalkable project root means nothing observable changed.
		r.logger.Warn("source scan failed", zap.Error(err), zap.String("root", r.root))
		return nil, 0
	}

	for _, f := range files {
		if f.ModTime.After(ref) {
			changed = append(changed, f.Path)
		}
	}
	return changed, len(files)
}
