//go:build integration

package integration

import (
	"bytes"
	"os"
	"path/filepath"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/config"
	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
	"github.com/tommyengstrom/haskell-agent-tooling/internal/feedback"
	"github.com/tommyengstrom/haskell-agent-tooling/internal/infra"
)

// These specs exercise the full run against a real filesystem and a
// real detached subprocess, with a shell stub standing in for ghcid.
var _ = Describe("Feedback Runner", func() {
	var (
		projectDir string
		stateDir   string
		stubPath   string
		cfg        config.Config
		pids       domain.PIDRegistry
		store      domain.ReportStore
		out        *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		projectDir, err = os.MkdirTemp("", "ghcid-feedback-project-*")
		Expect(err).NotTo(HaveOccurred())
		stateDir, err = os.MkdirTemp("", "ghcid-feedback-state-*")
		Expect(err).NotTo(HaveOccurred())

		libHs := filepath.Join(projectDir, "src", "Lib.hs")
		Expect(os.MkdirAll(filepath.Dir(libHs), 0o755)).To(Succeed())
		Expect(os.WriteFile(libHs, []byte("module Lib where\n"), 0o644)).To(Succeed())

		stubPath = filepath.Join(stateDir, "fake-ghcid.sh")

		cfg = config.Default()
		cfg.StateDir = stateDir
		cfg.Command = []string{stubPath}
		cfg.Timeout = 3 * time.Second
		cfg.PollInterval = 50 * time.Millisecond
		cfg.FreshnessWindow = 500 * time.Millisecond

		project := filepath.Base(projectDir)
		pids = infra.NewPIDRegistry(stateDir, project)
		store = infra.NewReportStore(stateDir, project)
		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		if pid, ok := pids.Load(); ok {
			// The stub was started in its own session; kill the group.
			_ = syscall.Kill(-pid, syscall.SIGKILL)
			_ = syscall.Kill(pid, syscall.SIGKILL)
		}
		os.RemoveAll(projectDir)
		os.RemoveAll(stateDir)
	})

	// writeStub installs a fake ghcid that understands --outputfile=.
	writeStub := func(body string) {
		script := `#!/bin/sh
out=""
for a in "$@"; do
  case "$a" in
    --outputfile=*) out="${a#--outputfile=}" ;;
  esac
done
` + body
		Expect(os.WriteFile(stubPath, []byte(script), 0o755)).To(Succeed())
	}

	newRunner := func() *feedback.Runner {
		pm := infra.NewProcessManager()
		scanner := infra.NewSourceScanner(cfg.Extensions)
		clock := feedback.NewSystemClock()
		awaiter := feedback.NewPollAwaiter(store, clock, cfg.PollInterval)
		return feedback.NewRunner(cfg, projectDir, pm, pids, store, scanner, awaiter, clock, out, zap.NewNop())
	}

	Context("when the watcher compiles cleanly", func() {
		BeforeEach(func() {
			writeStub(`sleep 0.3
printf 'All good (1 module)\n' > "$out"
sleep 60
`)
		})

		It("spawns the watcher and reports success", func() {
			verdict, path := newRunner().Run()

			Expect(verdict.ExitCode).To(Equal(domain.ExitOK))
			Expect(verdict.Message).To(Equal("All good (1 module)"))
			Expect(verdict.Stream).To(Equal(domain.StreamStdout))
			Expect(path).To(Equal(domain.PathWaited))

			pid, ok := pids.Load()
			Expect(ok).To(BeTrue())
			Expect(infra.NewProcessManager().IsRunning(pid)).To(BeTrue())
		})

		It("takes the no-change early exit on a second run without edits", func() {
			verdict, _ := newRunner().Run()
			Expect(verdict.ExitCode).To(Equal(domain.ExitOK))

			// Let the report leave the freshness window.
			time.Sleep(cfg.FreshnessWindow + 200*time.Millisecond)

			verdict, path := newRunner().Run()
			Expect(verdict.ExitCode).To(Equal(domain.ExitOK))
			Expect(verdict.Message).To(Equal(feedback.MsgNoChanges))
			Expect(path).To(Equal(domain.PathNoChanges))
		})
	})

	Context("when the watcher reports a compile error", func() {
		BeforeEach(func() {
			writeStub(`sleep 0.3
printf '1 error: Lib.hs:8:1 type error\n' > "$out"
sleep 60
`)
		})

		It("exits 2 with the error on stderr", func() {
			verdict, path := newRunner().Run()

			Expect(verdict.ExitCode).To(Equal(domain.ExitFailure))
			Expect(verdict.Message).To(Equal("1 error: Lib.hs:8:1 type error"))
			Expect(verdict.Stream).To(Equal(domain.StreamStderr))
			Expect(path).To(Equal(domain.PathWaited))
		})
	})

	Context("when the watcher never writes a report", func() {
		BeforeEach(func() {
			writeStub(`sleep 60
`)
			cfg.Timeout = time.Second
		})

		It("times out softly within the bound", func() {
			start := time.Now()
			verdict, path := newRunner().Run()
			elapsed := time.Since(start)

			Expect(verdict.ExitCode).To(Equal(domain.ExitOK))
			Expect(verdict.Message).To(Equal(feedback.MsgTimeout))
			Expect(verdict.Stream).To(Equal(domain.StreamStderr))
			Expect(path).To(Equal(domain.PathTimeout))
			Expect(elapsed).To(BeNumerically("<", cfg.Timeout+time.Second))
		})
	})
})
