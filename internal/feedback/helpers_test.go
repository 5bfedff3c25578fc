package feedback

import (
	"time"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
)

// fakeClock advances only when something sleeps.
type fakeClock struct {
	now     time.Time
	slept   time.Duration
	onSleep func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.slept += d
	if c.onSleep != nil {
		c.onSleep()
	}
}

// fakeReportStore is an in-memory report the tests mutate mid-wait.
type fakeReportStore struct {
	exists  bool
	modTime time.Time
	content string
}

func (s *fakeReportStore) ModTime() (time.Time, bool) {
	if !s.exists {
		return time.Time{}, false
	}
	return s.modTime, true
}

func (s *fakeReportStore) Read() string {
	if !s.exists {
		return ""
	}
	return s.content
}

func (s *fakeReportStore) Path() string { return "/tmp/ghcid_feedback-fake.log" }

func (s *fakeReportStore) write(content string, at time.Time) {
	s.exists = true
	s.content = content
	s.modTime = at
}

// fakeProcessManager is a fake process table.
type fakeProcessManager struct {
	running   map[int]bool
	adoptable []int
	startPID  int
	startErr  error
	started   [][]string
}

func newFakeProcessManager() *fakeProcessManager {
	return &fakeProcessManager{running: make(map[int]bool), startPID: 4242}
}

func (m *fakeProcessManager) IsRunning(pid int) bool { return m.running[pid] }

func (m *fakeProcessManager) FindByOutputFile(string) ([]int, error) {
	return m.adoptable, nil
}

func (m *fakeProcessManager) StartDetached(argv []string) (int, error) {
	if m.startErr != nil {
		return 0, m.startErr
	}
	m.started = append(m.started, argv)
	m.running[m.startPID] = true
	return m.startPID, nil
}

// fakePIDRegistry keeps the PID in memory.
type fakePIDRegistry struct {
	pid    int
	hasPID bool
}

func (r *fakePIDRegistry) Load() (int, bool) { return r.pid, r.hasPID }

func (r *fakePIDRegistry) Save(pid int) error {
	r.pid = pid
	r.hasPID = true
	return nil
}

func (r *fakePIDRegistry) Path() string { return "/tmp/ghcid_feedback-fake.pid" }

// fakeScanner returns a fixed file set. onScan simulates things
// happening on disk while the walk is in progress.
type fakeScanner struct {
	files  []domain.SourceFile
	err    error
	onScan func()
}

func (s *fakeScanner) Scan(string) ([]domain.SourceFile, error) {
	if s.onScan != nil {
		s.onScan()
	}
	return s.files, s.err
}

var (
	_ domain.Clock          = (*fakeClock)(nil)
	_ domain.ReportStore    = (*fakeReportStore)(nil)
	_ domain.ProcessManager = (*fakeProcessManager)(nil)
	_ domain.PIDRegistry    = (*fakePIDRegistry)(nil)
	_ domain.SourceScanner  = (*fakeScanner)(nil)
)
