package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hookguard/hookguard-go/internal/canary"
	"github.com/hookguard/hookguard-go/internal/gate"
	"github.com/hookguard/hookguard-go/internal/rules"
	"github.com/hookguard/hookguard-go/internal/storage"
)

var (
	gateFlagMode        string
	gateFlagCheckOutput bool
	gateFlagGetMode     bool

	gateCmd = &cobra.Command{
		Use:   "gate",
		Short: "Evaluate one tool call from a hook payload on stdin",
		Long: `Reads a JSON payload {"tool_name", "tool_input", "tool_output"} from
stdin and decides whether the call may proceed.

Allowed calls exit 0 with no output. Blocked calls write {"error": "..."}
to stdout and exit 2. The error text names the violated rules but never
repeats the content that triggered them. Internal errors fail closed
(exit 2).

Pseudo-modes change the contract: --mode audit logs findings and always
exits 0; --mode canary scans tool_output for leaked canary tokens, warns
on stderr, and always exits 0. That holds even for internal errors:
pseudo-modes fail open with a stderr diagnostic.`,
		RunE:         runGate,
		SilenceUsage: true,
	}
)

func init() {
	gateCmd.Flags().StringVar(&gateFlagMode, "mode", "", "standard|paranoid|permissive|audit|canary (default: persisted mode)")
	gateCmd.Flags().BoolVar(&gateFlagCheckOutput, "check-output", false, "Scan tool_output instead of tool_input")
	gateCmd.Flags().BoolVar(&gateFlagGetMode, "get-mode", false, "Print the effective security mode and exit")
	rootCmd.AddCommand(gateCmd)
}

// hookPayload is the hook protocol input.
type hookPayload struct {
	ToolName   string         `json:"tool_name"`
	ToolInput  map[string]any `json:"tool_input,omitempty"`
	ToolOutput string         `json:"tool_output,omitempty"`
}

// gateOutcome is the full externally visible result of one gate decision,
// separated from process wiring so tests can assert on it directly.
type gateOutcome struct {
	exitCode int
	stdout   string
	warnings []string
}

// gateDeps carries the collaborators a decision needs. store and canaries
// are nil when storage is unavailable; the decision degrades rather than
// failing.
type gateDeps struct {
	store    *storage.DB
	canaries *canary.Service
	logger   *zap.SugaredLogger
}

func runGate(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		// Config trouble must not let a tool call through unexamined,
		// except under the observe-only pseudo-modes, which never block.
		fmt.Fprintf(os.Stderr, "hookguard: %v\n", err)
		if failOpenMode(gateFlagMode) {
			return nil
		}
		fmt.Println(`{"error": "security gate unavailable"}`)
		return exitWithCode(ExitCodeBlock)
	}
	logger := setupLogger(cfg)
	defer func() { _ = logger.Sync() }()

	deps := gateDeps{logger: logger}
	if db, err := openStorage(cfg, logger); err != nil {
		logger.Warnw("Storage unavailable, gate degrades to standard mode without canaries", "error", err)
	} else {
		defer func() { _ = db.Close() }()
		deps.store = db
		deps.canaries = canary.NewService(db, logger)
	}

	if gateFlagGetMode {
		mode, err := resolveGetMode(gateFlagMode, deps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hookguard: %v\n", err)
			return exitWithCode(ExitCodeUsage)
		}
		fmt.Println(mode)
		return nil
	}

	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		logger.Errorw("Failed to read hook payload", "error", err)
		if failOpenMode(gateFlagMode) {
			fmt.Fprintln(os.Stderr, "hookguard: skipping unreadable hook payload")
			return nil
		}
		fmt.Println(`{"error": "security gate could not read the hook payload"}`)
		return exitWithCode(ExitCodeBlock)
	}

	outcome := decideGate(payload, gateFlagMode, gateFlagCheckOutput, deps)
	for _, w := range outcome.warnings {
		fmt.Fprintln(os.Stderr, w)
	}
	if outcome.stdout != "" {
		fmt.Println(outcome.stdout)
	}
	return exitWithCode(outcome.exitCode)
}

// resolveGetMode resolves the mode --get-mode reports: an explicit
// enforcement mode flag wins, the pseudo-modes and an empty flag fall
// through to the persisted state, and anything else is a usage error.
func resolveGetMode(modeFlag string, deps gateDeps) (rules.Mode, error) {
	if modeFlag != "" && !failOpenMode(modeFlag) {
		mode, err := rules.ParseMode(modeFlag)
		if err != nil {
			return "", fmt.Errorf("unknown mode %q", modeFlag)
		}
		return mode, nil
	}
	if deps.store == nil {
		return rules.ModeStandard, nil
	}
	return gate.CurrentMode(deps.store, deps.logger), nil
}

// failOpenMode reports whether the mode flag selects an observe-only
// pseudo-mode. Those callers must exit 0 no matter what goes wrong
// internally; enforcement modes fail closed instead.
func failOpenMode(modeFlag string) bool {
	return modeFlag == "audit" || modeFlag == "canary"
}

// decideGate is the complete gate decision for one payload.
func decideGate(payload []byte, modeFlag string, checkOutput bool, deps gateDeps) gateOutcome {
	// The fail policy is fixed before anything can go wrong: pseudo-modes
	// resolve every internal failure to exit 0 with a stderr diagnostic.
	internalFailure := func(diag, response string) gateOutcome {
		if failOpenMode(modeFlag) {
			return gateOutcome{exitCode: ExitCodeSuccess, warnings: []string{"hookguard: " + diag}}
		}
		return gateOutcome{exitCode: ExitCodeBlock, stdout: response}
	}

	var req hookPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		deps.logger.Errorw("Malformed hook payload", "error", err)
		return internalFailure("skipping malformed hook payload",
			`{"error": "security gate received a malformed hook payload"}`)
	}
	if req.ToolName == "" {
		deps.logger.Errorw("Hook payload missing tool_name")
		return internalFailure("skipping hook payload without tool_name",
			`{"error": "security gate received a hook payload without tool_name"}`)
	}

	switch modeFlag {
	case "audit":
		return auditModeDecision(&req, checkOutput, deps)
	case "canary":
		return canaryModeDecision(&req, deps)
	}

	mode := rules.ModeStandard
	if modeFlag != "" {
		parsed, err := rules.ParseMode(modeFlag)
		if err != nil {
			deps.logger.Errorw("Unknown gate mode", "mode", modeFlag)
			return gateOutcome{
				exitCode: ExitCodeBlock,
				stdout:   `{"error": "security gate was invoked with an unknown mode"}`,
			}
		}
		mode = parsed
	} else if deps.store != nil {
		mode = gate.CurrentMode(deps.store, deps.logger)
	}

	result := evaluatePayload(&req, checkOutput, mode)
	if result.Safe {
		return gateOutcome{exitCode: ExitCodeSuccess}
	}

	recordGateEvent(deps, "gate_block", req.ToolName, result.Findings)
	return gateOutcome{
		exitCode: ExitCodeBlock,
		stdout:   blockResponse(result.Findings),
	}
}

func evaluatePayload(req *hookPayload, checkOutput bool, mode rules.Mode) *gate.Result {
	if checkOutput {
		return gate.CheckOutput(req.ToolName, req.ToolOutput, mode)
	}
	return gate.CheckInput(req.ToolName, req.ToolInput, mode)
}

// auditModeDecision evaluates but never blocks.
func auditModeDecision(req *hookPayload, checkOutput bool, deps gateDeps) gateOutcome {
	result := evaluatePayload(req, checkOutput, rules.ModeParanoid)
	if result.Safe {
		return gateOutcome{exitCode: ExitCodeSuccess}
	}
	recordGateEvent(deps, "gate_audit", req.ToolName, result.Findings)
	return gateOutcome{
		exitCode: ExitCodeSuccess,
		warnings: []string{fmt.Sprintf("hookguard: audit mode, %d finding(s) recorded for %s", len(result.Findings), req.ToolName)},
	}
}

// canaryModeDecision checks tool output for leaked canary tokens. Detection
// is reported on stderr only; this mode never blocks.
func canaryModeDecision(req *hookPayload, deps gateDeps) gateOutcome {
	if deps.canaries == nil {
		return gateOutcome{exitCode: ExitCodeSuccess}
	}
	check := deps.canaries.Check(req.ToolOutput, "gate:"+req.ToolName)
	if check.Clean {
		return gateOutcome{exitCode: ExitCodeSuccess}
	}
	warnings := make([]string, 0, len(check.TriggeredCanaries))
	for _, trig := range check.TriggeredCanaries {
		warnings = append(warnings, fmt.Sprintf("hookguard: %s canary token leaked through %s output", trig.TokenType, req.ToolName))
	}
	return gateOutcome{exitCode: ExitCodeSuccess, warnings: warnings}
}

// blockResponse builds the stdout payload for a block. It names the
// violated rules but must not carry the matched evidence or any of the
// original input: the calling process may redisplay this text to the
// channel the attack came from.
func blockResponse(findings []rules.Match) string {
	reasons := make([]string, 0, len(findings))
	seen := make(map[string]bool)
	for _, f := range findings {
		reason := fmt.Sprintf("%s (%s)", f.Message, f.RuleID)
		if seen[reason] {
			continue
		}
		seen[reason] = true
		reasons = append(reasons, reason)
	}
	resp := map[string]string{
		"error": "hookguard blocked this tool call: " + strings.Join(reasons, "; "),
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return `{"error": "hookguard blocked this tool call"}`
	}
	return string(data)
}

// recordGateEvent appends one audit event summarizing the findings. Detail
// carries rule IDs and severities, never evidence.
func recordGateEvent(deps gateDeps, eventType, toolName string, findings []rules.Match) {
	if deps.store == nil {
		return
	}
	highest := rules.SeverityLow
	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.RuleID)
		if f.Severity > highest {
			highest = f.Severity
		}
	}
	err := deps.store.AppendAuditEvent(&storage.AuditEvent{
		EventType: eventType,
		Severity:  highest.String(),
		Source:    "gate",
		ToolName:  toolName,
		Detail:    fmt.Sprintf("run %s: rules %s", runID, strings.Join(ids, ",")),
	})
	if err != nil {
		deps.logger.Warnw("Failed to append gate audit event", "error", err)
	}
}
