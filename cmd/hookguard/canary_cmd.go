package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard-go/internal/canary"
)

var (
	canaryFlagType    string
	canaryFlagContext string
	canaryFlagJSON    bool

	canaryCmd = &cobra.Command{
		Use:   "canary",
		Short: "Manage canary tokens",
		Long: `Canary tokens are unguessable markers planted in prompts, files, or
configuration. A token reappearing in tool output proves a leak path.`,
	}

	canaryCreateCmd = &cobra.Command{
		Use:          "create",
		Short:        "Mint and persist a new canary token",
		RunE:         runCanaryCreate,
		SilenceUsage: true,
	}

	canaryCheckCmd = &cobra.Command{
		Use:          "check [content]",
		Short:        "Check content (argument or stdin) for leaked tokens",
		RunE:         runCanaryCheck,
		SilenceUsage: true,
	}

	canaryListCmd = &cobra.Command{
		Use:          "list",
		Short:        "List registered canary tokens",
		RunE:         runCanaryList,
		SilenceUsage: true,
	}
)

func init() {
	canaryCreateCmd.Flags().StringVar(&canaryFlagType, "type", "prompt", "Token type: prompt|file|config|output")
	canaryCreateCmd.Flags().StringVar(&canaryFlagContext, "context", "", "Where the token will be planted (free text)")
	canaryListCmd.Flags().BoolVar(&canaryFlagJSON, "json", false, "Emit the list as JSON")

	canaryCmd.AddCommand(canaryCreateCmd)
	canaryCmd.AddCommand(canaryCheckCmd)
	canaryCmd.AddCommand(canaryListCmd)
	rootCmd.AddCommand(canaryCmd)
}

// canaryService builds the service backed by real storage. Unlike the gate,
// maintenance commands fail loudly when storage is unavailable.
func canaryService() (*canary.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := setupLogger(cfg)
	db, err := openStorage(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("storage unavailable: %w", err)
	}
	cleanup := func() {
		_ = db.Close()
		_ = logger.Sync()
	}
	return canary.NewService(db, logger), cleanup, nil
}

func runCanaryCreate(cmd *cobra.Command, _ []string) error {
	svc, cleanup, err := canaryService()
	if err != nil {
		return err
	}
	defer cleanup()

	record, err := svc.Create(canaryFlagType, canaryFlagContext)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), record.Token)
	return nil
}

func runCanaryCheck(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := canaryService()
	if err != nil {
		return err
	}
	defer cleanup()

	var content string
	if len(args) > 0 {
		content = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read content from stdin: %w", err)
		}
		content = string(data)
	}

	result := svc.Check(content, "cli")
	if result.Clean {
		fmt.Fprintln(cmd.OutOrStdout(), "clean: no canary tokens found")
		return nil
	}
	for _, trig := range result.TriggeredCanaries {
		fmt.Fprintf(cmd.OutOrStdout(), "TRIGGERED: %s token %s", trig.TokenType, trig.Token)
		if trig.Context != "" {
			fmt.Fprintf(cmd.OutOrStdout(), " (planted: %s)", trig.Context)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return exitWithCode(ExitCodeFindings)
}

func runCanaryList(cmd *cobra.Command, _ []string) error {
	svc, cleanup, err := canaryService()
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := svc.List()
	if err != nil {
		return err
	}

	if canaryFlagJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(records)
	}
	for _, record := range records {
		status := "armed"
		if record.TriggeredAt != nil {
			status = fmt.Sprintf("TRIGGERED %s by %s", record.TriggeredAt.Format("2006-01-02 15:04"), record.TriggeredBy)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-7s %s\n", record.Token, record.TokenType, status)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no canary tokens registered")
	}
	return nil
}
