package scanner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hookguard/hookguard-go/internal/rules"
)

// consentToolSeverity maps known agent tools to the severity of using them
// without declaring them. File-mutating and shell-execution tools rate
// high, web and network tools medium, read-only and bookkeeping tools low.
var consentToolSeverity = map[string]rules.Severity{
	"Bash":         rules.SeverityHigh,
	"Write":        rules.SeverityHigh,
	"Edit":         rules.SeverityHigh,
	"MultiEdit":    rules.SeverityHigh,
	"NotebookEdit": rules.SeverityHigh,
	"WebFetch":     rules.SeverityMedium,
	"WebSearch":    rules.SeverityMedium,
	"Read":         rules.SeverityLow,
	"Grep":         rules.SeverityLow,
	"Glob":         rules.SeverityLow,
	"Task":         rules.SeverityLow,
	"TodoWrite":    rules.SeverityLow,
}

// consentToolOrder fixes the reporting order so repeated scans of the same
// bytes yield findings in the same sequence. Map iteration order would not.
var consentToolOrder = []string{
	"Bash", "Write", "Edit", "MultiEdit", "NotebookEdit",
	"WebFetch", "WebSearch",
	"Read", "Grep", "Glob", "Task", "TodoWrite",
}

var toolMarkerRes = buildToolMarkerRes()

func buildToolMarkerRes() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp, len(consentToolSeverity))
	for name := range consentToolSeverity {
		// Case-sensitive word match: tool identifiers are capitalized, and
		// matching "bash" in prose would flood benign files.
		res[name] = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	}
	return res
}

// consentGapFindings compares a declared capability description against the
// tools the body actually invokes. Each tool used in the body but never
// named in the description (case-insensitively) yields one escalation
// finding at the severity from the fixed tool table. Tools the description
// mentions, in any case, are consented and never flagged.
func consentGapFindings(path, description string, body []string, bodyStart int) []Finding {
	descLower := strings.ToLower(description)

	var findings []Finding
	for _, tool := range consentToolOrder {
		line, used := firstToolUse(tool, body)
		if !used {
			continue
		}
		if strings.Contains(descLower, strings.ToLower(tool)) {
			continue
		}

		findings = append(findings, Finding{
			File:        path,
			Line:        bodyStart + line,
			Category:    rules.CategoryEscalation,
			Severity:    consentToolSeverity[tool],
			RuleID:      rules.RuleIDConsentGap,
			Message:     fmt.Sprintf("tool %s used but not declared in description", tool),
			Evidence:    tool,
			Remediation: fmt.Sprintf("Declare %s in the description or remove its use", tool),
		})
	}
	return findings
}

// firstToolUse returns the 0-based body line of the first usage marker for
// the tool, matching either the bare name or invocation syntax.
func firstToolUse(tool string, body []string) (int, bool) {
	re := toolMarkerRes[tool]
	for i, line := range body {
		if re.MatchString(line) {
			return i, true
		}
	}
	return 0, false
}
