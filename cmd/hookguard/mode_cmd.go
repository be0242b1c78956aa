package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hookguard/hookguard-go/internal/gate"
	"github.com/hookguard/hookguard-go/internal/rules"
	"github.com/hookguard/hookguard-go/internal/storage"
)

var (
	modeFlagFor time.Duration

	modeCmd = &cobra.Command{
		Use:   "mode",
		Short: "Inspect or change the persisted security mode",
	}

	modeGetCmd = &cobra.Command{
		Use:          "get",
		Short:        "Print the effective security mode",
		RunE:         runModeGet,
		SilenceUsage: true,
	}

	modeSetCmd = &cobra.Command{
		Use:          "set {standard|paranoid|permissive}",
		Short:        "Set the security mode, optionally with an auto-restore deadline",
		Args:         cobra.ExactArgs(1),
		RunE:         runModeSet,
		SilenceUsage: true,
	}

	modeResetCmd = &cobra.Command{
		Use:          "reset",
		Short:        "Restore the security mode to standard",
		RunE:         runModeReset,
		SilenceUsage: true,
	}
)

func init() {
	modeSetCmd.Flags().DurationVar(&modeFlagFor, "for", 0, "Auto-restore to standard after this duration (e.g. 30m, 2h)")

	modeCmd.AddCommand(modeGetCmd)
	modeCmd.AddCommand(modeSetCmd)
	modeCmd.AddCommand(modeResetCmd)
	rootCmd.AddCommand(modeCmd)
}

func modeStore() (*storage.DB, *zap.SugaredLogger, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := setupLogger(cfg)
	db, err := openStorage(cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("storage unavailable: %w", err)
	}
	cleanup := func() {
		_ = db.Close()
		_ = logger.Sync()
	}
	return db, logger, cleanup, nil
}

func runModeGet(cmd *cobra.Command, _ []string) error {
	db, logger, cleanup, err := modeStore()
	if err != nil {
		return err
	}
	defer cleanup()

	mode := gate.CurrentMode(db, logger)
	state, err := db.GetModeState()
	if err == nil && state.AutoRestoreAt != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (auto-restore at %s)\n", mode, state.AutoRestoreAt.Format(time.RFC3339))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), mode)
	return nil
}

func runModeSet(cmd *cobra.Command, args []string) error {
	mode, err := rules.ParseMode(args[0])
	if err != nil {
		return err
	}

	db, _, cleanup, err := modeStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := gate.Elevate(db, mode, modeFlagFor); err != nil {
		return err
	}
	if modeFlagFor > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "mode set to %s for %s\n", mode, modeFlagFor)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "mode set to %s\n", mode)
	}
	return nil
}

func runModeReset(cmd *cobra.Command, _ []string) error {
	db, _, cleanup, err := modeStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := gate.Restore(db); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "mode set to standard")
	return nil
}
