// Package scanner provides static content-security scanning for skill and
// command definition files, directories, unified diffs, and MCP tool source
// files. All rule matching routes through the rules package; the scanner
// adds file/line attribution, fenced-block entropy checks, and consent-gap
// analysis on top.
package scanner

import (
	"fmt"

	"github.com/hookguard/hookguard-go/internal/rules"
)

// Verdict is the overall outcome of scanning one file.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// Finding is one reportable rule match with file and line attribution.
// Evidence carries the matched substring only, never surrounding content.
type Finding struct {
	File        string         `json:"file"`
	Line        int            `json:"line"`
	Category    rules.Category `json:"category"`
	Severity    rules.Severity `json:"severity"`
	RuleID      string         `json:"rule_id"`
	Message     string         `json:"message"`
	Evidence    string         `json:"evidence,omitempty"`
	Remediation string         `json:"remediation,omitempty"`
}

// ScanResult aggregates the findings for one file. The verdict is FAIL
// exactly when findings is non-empty.
type ScanResult struct {
	File     string    `json:"file"`
	Findings []Finding `json:"findings"`
	Verdict  Verdict   `json:"verdict"`
}

func newResult(file string, findings []Finding) *ScanResult {
	verdict := VerdictPass
	if len(findings) > 0 {
		verdict = VerdictFail
	}
	return &ScanResult{File: file, Findings: findings, Verdict: verdict}
}

// findingFromMatch attaches file/line attribution to a rule match.
func findingFromMatch(file string, line int, m rules.Match) Finding {
	return Finding{
		File:        file,
		Line:        line,
		Category:    m.Category,
		Severity:    m.Severity,
		RuleID:      m.RuleID,
		Message:     m.Message,
		Evidence:    m.Evidence,
		Remediation: m.Remediation,
	}
}

// invisibleFindings reports each invisible rune present in line. The
// evidence is the code point notation, not the character itself, so reports
// stay copy-safe.
func invisibleFindings(file string, lineNo int, line string) []Finding {
	var findings []Finding
	for _, r := range rules.FindInvisible(line) {
		findings = append(findings, Finding{
			File:        file,
			Line:        lineNo,
			Category:    rules.CategoryObfuscation,
			Severity:    rules.SeverityHigh,
			RuleID:      rules.RuleIDInvisible,
			Message:     fmt.Sprintf("invisible character %s", rules.DescribeRune(r)),
			Evidence:    rules.DescribeRune(r),
			Remediation: "Remove the invisible character; it serves no rendering purpose",
		})
	}
	return findings
}

// scanLine runs the prose rule sets plus the invisible-character check
// against a single line. Shared by the skill and changeset scanners.
func scanLine(file string, lineNo int, line string, mode rules.Mode) []Finding {
	var findings []Finding
	for _, set := range rules.ProseRuleSets() {
		for _, m := range rules.Evaluate(line, set, mode) {
			findings = append(findings, findingFromMatch(file, lineNo, m))
		}
	}
	findings = append(findings, invisibleFindings(file, lineNo, line)...)
	return findings
}
