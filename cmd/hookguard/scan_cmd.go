package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hookguard/hookguard-go/internal/rules"
	"github.com/hookguard/hookguard-go/internal/scanner"
)

var (
	scanFlagChangeset bool
	scanFlagStaged    bool
	scanFlagBase      string
	scanFlagCommit    string
	scanFlagSkills    bool
	scanFlagMode      string
	scanFlagInclude   []string
	scanFlagExclude   []string
	scanFlagJSON      bool

	scanCmd = &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Statically scan skills, changesets, or tool source",
		Long: `Scans content for injection, exfiltration, escalation, and
obfuscation patterns before it reaches an agent.

Sources (pick one):
  paths...      skill files or directories of markdown
  --changeset   unified diff on stdin, added lines only
  --staged      git staged changes
  --base REF    git diff against a base ref
  --commit SPEC git diff for a commit or range
  --skills      the configured skills directory
  --mode mcp    treat the path argument as an MCP tool source tree

Exit codes: 0 clean, 1 findings, 2 usage error.`,
		RunE:         runScan,
		SilenceUsage: true,
	}
)

func init() {
	scanCmd.Flags().BoolVar(&scanFlagChangeset, "changeset", false, "Read a unified diff from stdin")
	scanCmd.Flags().BoolVar(&scanFlagStaged, "staged", false, "Scan git staged changes")
	scanCmd.Flags().StringVar(&scanFlagBase, "base", "", "Scan git diff against the given base ref")
	scanCmd.Flags().StringVar(&scanFlagCommit, "commit", "", "Scan git diff for the given commit or range")
	scanCmd.Flags().BoolVar(&scanFlagSkills, "skills", false, "Scan the configured skills directory")
	scanCmd.Flags().StringVar(&scanFlagMode, "mode", "standard", "standard|paranoid|permissive, or mcp for source-tree scanning")
	scanCmd.Flags().StringSliceVar(&scanFlagInclude, "include", nil, "Glob patterns a relative path must match")
	scanCmd.Flags().StringSliceVar(&scanFlagExclude, "exclude", nil, "Glob patterns that exclude a relative path")
	scanCmd.Flags().BoolVar(&scanFlagJSON, "json", false, "Emit the report as JSON")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookguard: %v\n", err)
		return exitWithCode(ExitCodeUsage)
	}
	logger := setupLogger(cfg)
	defer func() { _ = logger.Sync() }()

	scanner.SetProseExtensions(cfg.ScanExtensions)
	scanner.SetEntropyThreshold(cfg.EntropyThreshold)

	sources := 0
	for _, on := range []bool{scanFlagChangeset, scanFlagStaged, scanFlagBase != "", scanFlagCommit != "", scanFlagSkills, len(args) > 0} {
		if on {
			sources++
		}
	}
	if sources != 1 {
		fmt.Fprintln(os.Stderr, "hookguard: scan needs exactly one source: paths, --changeset, --staged, --base, --commit, or --skills")
		return exitWithCode(ExitCodeUsage)
	}

	if scanFlagMode == "mcp" {
		return runMCPScan(args)
	}

	mode, err := rules.ParseMode(scanFlagMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookguard: %v\n", err)
		return exitWithCode(ExitCodeUsage)
	}

	var results []*scanner.ScanResult
	switch {
	case scanFlagChangeset:
		diff, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hookguard: failed to read diff from stdin: %v\n", err)
			return exitWithCode(ExitCodeUsage)
		}
		results = scanner.ScanChangeset(string(diff), mode)
	case scanFlagStaged:
		results, err = scanGitDiff(mode, "diff", "--cached")
	case scanFlagBase != "":
		results, err = scanGitDiff(mode, "diff", scanFlagBase+"...HEAD")
	case scanFlagCommit != "":
		results, err = scanGitDiff(mode, "diff", scanFlagCommit)
	case scanFlagSkills:
		results, err = scanner.ScanDirectory(cfg.SkillsDir, mode, scanFlagInclude, scanFlagExclude)
	default:
		results, err = scanPaths(args, mode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookguard: %v\n", err)
		return exitWithCode(ExitCodeUsage)
	}

	return reportResults(cmd.OutOrStdout(), results)
}

// runMCPScan handles --mode mcp: the single path argument is a source tree.
func runMCPScan(args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "hookguard: --mode mcp takes exactly one directory argument")
		return exitWithCode(ExitCodeUsage)
	}
	info, err := os.Stat(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookguard: %v\n", err)
		return exitWithCode(ExitCodeUsage)
	}

	var results []*scanner.ScanResult
	if info.IsDir() {
		results, err = scanner.ScanMCPDirectory(args[0], rules.ModeStandard)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hookguard: %v\n", err)
			return exitWithCode(ExitCodeUsage)
		}
	} else {
		results = []*scanner.ScanResult{scanner.ScanSourceFile(args[0], rules.ModeStandard)}
	}
	return reportResults(os.Stdout, results)
}

// scanPaths scans explicit file and directory arguments.
func scanPaths(paths []string, mode rules.Mode) ([]*scanner.ScanResult, error) {
	var results []*scanner.ScanResult
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			dirResults, err := scanner.ScanDirectory(path, mode, scanFlagInclude, scanFlagExclude)
			if err != nil {
				return nil, err
			}
			results = append(results, dirResults...)
			continue
		}
		results = append(results, scanner.ScanSkill(path, mode))
	}
	return results, nil
}

// scanGitDiff shells out to git and scans the resulting diff.
func scanGitDiff(mode rules.Mode, gitArgs ...string) ([]*scanner.ScanResult, error) {
	out, err := exec.Command("git", gitArgs...).Output()
	if err != nil {
		return nil, fmt.Errorf("git %s failed: %w", gitArgs[0], err)
	}
	return scanner.ScanChangeset(string(out), mode), nil
}

// scanReport is the JSON report shape.
type scanReport struct {
	Results  []*scanner.ScanResult `json:"results"`
	Findings int                   `json:"findings"`
	Verdict  scanner.Verdict       `json:"verdict"`
}

// reportResults prints the report and maps findings to the exit code.
func reportResults(w io.Writer, results []*scanner.ScanResult) error {
	findings := 0
	for _, r := range results {
		findings += len(r.Findings)
	}

	if scanFlagJSON {
		report := scanReport{Results: results, Findings: findings, Verdict: scanner.VerdictPass}
		if findings > 0 {
			report.Verdict = scanner.VerdictFail
		}
		if err := json.NewEncoder(w).Encode(report); err != nil {
			return err
		}
	} else {
		printTextReport(w, results, findings)
	}

	if findings > 0 {
		return exitWithCode(ExitCodeFindings)
	}
	return nil
}

func printTextReport(w io.Writer, results []*scanner.ScanResult, findings int) {
	for _, r := range results {
		fmt.Fprintf(w, "%s: %s\n", r.Verdict, displayPath(r.File))
		for _, f := range r.Findings {
			fmt.Fprintf(w, "  %s:%d [%s %s] %s\n", displayPath(f.File), f.Line, f.RuleID, f.Severity, f.Message)
			if f.Remediation != "" {
				fmt.Fprintf(w, "    %s\n", f.Remediation)
			}
		}
	}
	if findings == 0 {
		fmt.Fprintf(w, "%d file(s) scanned, no findings\n", len(results))
	} else {
		fmt.Fprintf(w, "%d file(s) scanned, %d finding(s)\n", len(results), findings)
	}
}

func displayPath(path string) string {
	if rel, err := filepath.Rel(".", path); err == nil && len(rel) < len(path) {
		return rel
	}
	return path
}
