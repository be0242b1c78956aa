// Package rules holds the immutable detection-rule catalog and the matching
// primitive that every scanner and gate decision routes through. Severity
// thresholds and rule patterns live only here; no other package is allowed
// to hardcode either.
package rules

import (
	"fmt"
	"regexp"
)

// Severity represents the risk level of a rule or finding.
// Values are ordered so they can be compared and summed.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the lowercase name used in reports and audit events.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Category explains why a rule exists, independent of its severity.
type Category string

const (
	CategoryInjection    Category = "injection"
	CategoryExfiltration Category = "exfiltration"
	CategoryEscalation   Category = "escalation"
	CategoryObfuscation  Category = "obfuscation"
	CategoryMCPTool      Category = "mcp_tool"
)

// TrustLevels maps content-origin trust names to ordinals. Higher means more
// trusted. The mapping informs which sources get which default sensitivity;
// it is exposed as data so callers and tests share one definition.
var TrustLevels = map[string]int{
	"system":    5,
	"verified":  4,
	"user":      3,
	"untrusted": 2,
	"hostile":   1,
}

// Rule is one immutable (pattern, severity, id, message) record. Rules are
// built once from the fixed tables in catalog.go and never mutated.
type Rule struct {
	ID          string
	Category    Category
	Severity    Severity
	Message     string
	Remediation string

	re *regexp.Regexp
}

// FindFirst returns the first substring of text matched by the rule's
// pattern, and whether the rule matched at all.
func (r *Rule) FindFirst(text string) (string, bool) {
	m := r.re.FindString(text)
	if m == "" {
		// FindString returns "" both for no match and for an empty match;
		// an empty match is not a reportable detection either way.
		return "", false
	}
	return m, true
}

// Pattern returns the rule's pattern source, for diagnostics only.
func (r *Rule) Pattern() string {
	return r.re.String()
}

func newRule(id string, category Category, severity Severity, pattern, message, remediation string) *Rule {
	return &Rule{
		ID:          id,
		Category:    category,
		Severity:    severity,
		Message:     message,
		Remediation: remediation,
		re:          regexp.MustCompile(pattern),
	}
}

// Match is one rule hit produced by Evaluate. Evidence carries only the
// matched substring, never the surrounding content.
type Match struct {
	RuleID      string   `json:"rule_id"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation,omitempty"`
	Evidence    string   `json:"evidence,omitempty"`
}

// Mode is the sensitivity level a scan or gate decision runs under.
type Mode string

const (
	ModeStandard   Mode = "standard"
	ModeParanoid   Mode = "paranoid"
	ModePermissive Mode = "permissive"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStandard, ModeParanoid, ModePermissive:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown security mode %q", s)
}

// Threshold returns the minimum severity a mode surfaces. This table is a
// hard invariant: permissive emits only critical findings, standard emits
// high and critical, paranoid emits medium and above. Low-severity rules are
// never surfaced by Evaluate; low exists only for consent-gap classification.
func Threshold(mode Mode) Severity {
	switch mode {
	case ModePermissive:
		return SeverityCritical
	case ModeParanoid:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// Evaluate tests text against every rule in the set and returns one Match
// per rule whose pattern matches and whose severity meets the mode's
// threshold. Matches are returned in rule-set declaration order, not match
// position, so repeated scans of the same bytes are deterministic.
func Evaluate(text string, set []*Rule, mode Mode) []Match {
	if text == "" {
		return nil
	}
	min := Threshold(mode)

	var matches []Match
	for _, r := range set {
		if r.Severity < min {
			continue
		}
		evidence, ok := r.FindFirst(text)
		if !ok {
			continue
		}
		matches = append(matches, Match{
			RuleID:      r.ID,
			Category:    r.Category,
			Severity:    r.Severity,
			Message:     r.Message,
			Remediation: r.Remediation,
			Evidence:    evidence,
		})
	}
	return matches
}
