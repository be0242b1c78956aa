// hookguard is a content-security gate for autonomous coding agents. It
// ships one binary with two integration surfaces: `gate` for per-tool-call
// hook decisions and `scan` for static checks of skills, changesets, and
// tool source trees, plus maintenance commands for canaries, mode, and the
// audit log.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hookguard/hookguard-go/internal/config"
	"github.com/hookguard/hookguard-go/internal/logs"
	"github.com/hookguard/hookguard-go/internal/storage"
)

var (
	flagConfig  string
	flagDataDir string
	flagVerbose bool

	// runID correlates every audit event and log line of one invocation.
	runID = uuid.NewString()

	rootCmd = &cobra.Command{
		Use:   "hookguard",
		Short: "Content-security gate for coding-agent hooks",
		Long: `hookguard screens coding-agent activity for prompt injection,
data exfiltration, privilege escalation, and obfuscation.

The gate command is wired into agent tool-call hooks and decides per call;
the scan commands run statically over skill files, diffs, and tool source.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file (default: search working dir, then ~/.hookguard)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Override the data directory")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig resolves configuration for one command invocation.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFromFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
		}
	}
	return cfg, nil
}

// setupLogger builds the per-command logger. Console output goes to stderr
// so stdout stays a clean protocol surface.
func setupLogger(cfg *config.Config) *zap.SugaredLogger {
	logger, err := logs.SetupCommandLogger(flagVerbose, cfg.Logging, cfg.DataDir)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar().With("run_id", runID)
}

// openStorage opens the bbolt store. Callers decide how missing storage
// degrades; this helper only reports the failure.
func openStorage(cfg *config.Config, logger *zap.SugaredLogger) (*storage.DB, error) {
	db, err := storage.Open(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}
	db.SetAuditDetailBudget(cfg.AuditDetailBudget)
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCodeGeneralError)
	}
}
