// Package infra implements infrastructure concerns (process, PID file,
// report store, source scanner).
package infra

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using signal-0
// probes and gopsutil for process-table scans.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// IsRunning checks if a PID exists and is running.
// A permission-denied probe counts as running: the process exists but
// belongs to someone else, and spawning a duplicate would be worse
// than trusting it.
func (pm *ProcessManagerImpl) IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	// On Unix, FindProcess always succeeds
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Send signal 0 to check if process exists
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

// FindByOutputFile returns PIDs of processes whose command line
// references the report path. Lets a run adopt a ghcid that outlived
// its PID file.
func (pm *ProcessManagerImpl) FindByOutputFile(reportPath string) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var found []int
	for _, p := range procs {
		cmdline, err := p.Cmdline()
		if err != nil {
			continue // Process may have exited
		}
		if strings.Contains(cmdline, reportPath) {
			found = append(found, int(p.Pid))
		}
	}
	return found, nil
}

// StartDetached spawns argv detached from this process: new session,
// stdio discarded. The returned PID is only evidence that exec was
// attempted; the child may still die immediately.
func (pm *ProcessManagerImpl) StartDetached(argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, errors.New("empty command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}

	// No stdin/stdout/stderr - the report file is the sole channel
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
