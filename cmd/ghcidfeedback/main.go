// Package main is the CLI entry point for ghcid-feedback.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/config"
	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
	"github.com/tommyengstrom/haskell-agent-tooling/internal/feedback"
	"github.com/tommyengstrom/haskell-agent-tooling/internal/infra"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

// exitCode is the verdict of the last run; main exits with it after
// cobra unwinds so deferred cleanup still runs.
var exitCode int

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

var rootCmd = &cobra.Command{
	Use:   "ghcid-feedback",
	Short: "Compile feedback bridge between an agent hook and ghcid",
	Long: `ghcid-feedback keeps a ghcid process running for the current project
and turns its latest report into an exit code the calling hook can act on.

Run it with no arguments from the project root after an edit:
exit 0 means nothing changed or everything compiles, exit 2 means
ghcid reported errors (printed to stderr).`,
	Version:      Version,
	SilenceUsage: true,
	RunE:         runHook,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the supervised ghcid process and last report",
	Long:  `Shows whether ghcid is running for this project, plus the report file, its age, and its first line. Never mutates state.`,
	RunE:  runStatus,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	flagConfig   string
	flagTimeout  time.Duration
	flagWindow   time.Duration
	flagInterval time.Duration
	flagVerbose  bool
	jsonOutput   bool
)

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "Path to config file (default: .ghcid-feedback.yaml in project root)")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "Max time to wait for a new ghcid report")
	rootCmd.Flags().DurationVar(&flagWindow, "freshness-window", 0, "Trust a report written within this window of invocation")
	rootCmd.Flags().DurationVar(&flagInterval, "poll-interval", 0, "Wait loop polling interval")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Log diagnostics to stderr instead of the debug log file")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func runHook(cmd *cobra.Command, args []string) error {
	root, cfg, project, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := createLogger(cfg.StateDir, project)
	defer func() { _ = logger.Sync() }()

	pm := infra.NewProcessManager()
	pids := infra.NewPIDRegistry(cfg.StateDir, project)
	store := infra.NewReportStore(cfg.StateDir, project)
	scanner := infra.NewSourceScanner(cfg.Extensions)
	clock := feedback.NewSystemClock()

	poll := feedback.NewPollAwaiter(store, clock, cfg.PollInterval)
	var awaiter domain.ReportAwaiter = poll
	if cfg.WaitStrategy == config.WaitNotify {
		awaiter = infra.NewNotifyAwaiter(store, poll)
	}

	runner := feedback.NewRunner(cfg, root, pm, pids, store, scanner, awaiter, clock, os.Stdout, logger)
	verdict, path := runner.Run()

	logger.Debug("run complete",
		zap.String("path", string(path)),
		zap.Int("exit_code", verdict.ExitCode))

	if verdict.Message != "" {
		w := os.Stdout
		if verdict.Stream == domain.StreamStderr {
			w = os.Stderr
		}
		fmt.Fprintln(w, verdict.Message)
	}

	exitCode = verdict.ExitCode
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	_, cfg, project, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	pm := infra.NewProcessManager()
	pids := infra.NewPIDRegistry(cfg.StateDir, project)
	store := infra.NewReportStore(cfg.StateDir, project)

	fmt.Printf("Project:  %s\n", project)

	pid, ok := pids.Load()
	switch {
	case !ok:
		fmt.Printf("Process:  not started (no PID at %s)\n", pids.Path())
	case pm.IsRunning(pid):
		fmt.Printf("Process:  running (pid %d)\n", pid)
	default:
		fmt.Printf("Process:  dead (stale pid %d)\n", pid)
	}

	fmt.Printf("Report:   %s\n", store.Path())
	if t, exists := store.ModTime(); exists {
		fmt.Printf("Written:  %s ago\n", time.Since(t).Round(time.Second))
		content := store.Read()
		if i := strings.IndexByte(content, '\n'); i >= 0 {
			content = content[:i]
		}
		fmt.Printf("Says:     %s\n", content)
	} else {
		fmt.Println("Written:  never (no report yet)")
	}

	return nil
}

// loadConfig resolves the project root (the current working
// directory), its config, and the project name that keys the state
// files.
func loadConfig(cmd *cobra.Command) (root string, cfg config.Config, project string, err error) {
	root, err = os.Getwd()
	if err != nil {
		return "", config.Config{}, "", fmt.Errorf("failed to get working directory: %w", err)
	}
	project = filepath.Base(root)

	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return "", config.Config{}, "", err
	}

	// Flags beat the config file.
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = flagTimeout
	}
	if cmd.Flags().Changed("freshness-window") {
		cfg.FreshnessWindow = flagWindow
	}
	if cmd.Flags().Changed("poll-interval") {
		cfg.PollInterval = flagInterval
	}
	if err := cfg.Validate(); err != nil {
		return "", config.Config{}, "", err
	}

	return root, cfg, project, nil
}

// createLogger returns a file logger so stdout/stderr stay clean for
// the hook protocol. --verbose swaps in a development logger on stderr.
func createLogger(stateDir, project string) *zap.Logger {
	if flagVerbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	logPath := filepath.Join(stateDir, fmt.Sprintf("ghcid-feedback-%s.debug.log", project))

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		// Last resort: swallow diagnostics rather than pollute the
		// streams the caller parses.
		return zap.NewNop()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("ghcid-feedback %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
