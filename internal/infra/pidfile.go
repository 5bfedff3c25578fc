package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
)

// FilePIDRegistry implements domain.PIDRegistry as a plain-text file
// holding one decimal PID. The path is a deterministic function of the
// project name so every invocation against the same project finds the
// same file.
type FilePIDRegistry struct {
	path string
}

// NewPIDRegistry creates a PID registry for the named project, stored
// under stateDir.
func NewPIDRegistry(stateDir, project string) domain.PIDRegistry {
	return &FilePIDRegistry{
		path: filepath.Join(stateDir, fmt.Sprintf("ghcid_feedback-%s.pid", project)),
	}
}

// NewPIDRegistryWithPath creates a registry at a specific path (for testing).
func NewPIDRegistryWithPath(path string) domain.PIDRegistry {
	return &FilePIDRegistry{path: path}
}

// Load returns the persisted PID. Missing file or non-numeric content
// both read as "nothing persisted"; a corrupt file never aborts a run.
func (r *FilePIDRegistry) Load() (int, bool) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// Save overwrites the persisted PID. Racing invocations may both write;
// last one wins, which is acceptable here.
func (r *FilePIDRegistry) Save(pid int) error {
	return os.WriteFile(r.path, []byte(strconv.Itoa(pid)), 0o644)
}

// Path returns the PID file location.
func (r *FilePIDRegistry) Path() string {
	return r.path
}

// Ensure FilePIDRegistry implements domain.PIDRegistry.
var _ domain.PIDRegistry = (*FilePIDRegistry)(nil)
