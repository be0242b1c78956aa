package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	auditFlagLimit int
	auditFlagJSON  bool

	auditCmd = &cobra.Command{
		Use:          "audit",
		Short:        "Show recent security events, newest first",
		RunE:         runAudit,
		SilenceUsage: true,
	}
)

func init() {
	auditCmd.Flags().IntVar(&auditFlagLimit, "limit", 50, "Maximum number of events to show")
	auditCmd.Flags().BoolVar(&auditFlagJSON, "json", false, "Emit events as JSON")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	db, _, cleanup, err := modeStore()
	if err != nil {
		return err
	}
	defer cleanup()

	events, err := db.ListAuditEvents(auditFlagLimit)
	if err != nil {
		return err
	}

	if auditFlagJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(events)
	}

	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no audit events recorded")
		return nil
	}
	for _, event := range events {
		line := fmt.Sprintf("%s  %-8s %-16s %s",
			event.Timestamp.Local().Format(time.DateTime), event.Severity, event.EventType, event.Source)
		if event.ToolName != "" {
			line += "  tool=" + event.ToolName
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		if event.Detail != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", event.Detail)
		}
	}
	return nil
}
