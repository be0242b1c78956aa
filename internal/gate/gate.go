// Package gate evaluates single tool calls against the rule catalog and
// manages the externally persisted security mode. It is the decision layer
// between the hook CLI and the matching primitive: routing by tool name,
// input extraction, and mode resolution live here; patterns and thresholds
// do not.
package gate

import (
	"fmt"
	"sort"

	"github.com/hookguard/hookguard-go/internal/rules"
)

// extraction selects which part of the tool input a bundle scans.
type extraction int

const (
	// extractCommand pulls the shell command string.
	extractCommand extraction = iota
	// extractPrompt pulls the prompt text handed to a spawned session.
	extractPrompt
	// extractAllStrings walks the input structure and collects every
	// string value, recursively.
	extractAllStrings
)

// bundle pairs the rule sets relevant to one tool risk surface with the
// strategy for pulling scannable text out of its input.
type bundle struct {
	ruleSets func() [][]*rules.Rule
	extract  extraction
}

// toolBundles routes tool names to their risk surface. Adding a tool means
// adding an entry, not a branch. Unlisted tools fall back to defaultBundle.
var toolBundles = map[string]bundle{
	// Shell execution: the command string is what runs.
	"Bash": {
		ruleSets: func() [][]*rules.Rule { return [][]*rules.Rule{rules.EscalationRules(), rules.ExfiltrationRules()} },
		extract:  extractCommand,
	},
	// Session spawning: the prompt becomes another agent's instructions.
	"Task": {
		ruleSets: func() [][]*rules.Rule { return [][]*rules.Rule{rules.InjectionRules(), rules.EscalationRules()} },
		extract:  extractPrompt,
	},
	// State persistence: written values resurface in later sessions.
	"TodoWrite": {
		ruleSets: func() [][]*rules.Rule { return [][]*rules.Rule{rules.InjectionRules()} },
		extract:  extractAllStrings,
	},
	"Memory": {
		ruleSets: func() [][]*rules.Rule { return [][]*rules.Rule{rules.InjectionRules()} },
		extract:  extractAllStrings,
	},
}

var defaultBundle = bundle{
	ruleSets: func() [][]*rules.Rule { return [][]*rules.Rule{rules.InjectionRules()} },
	extract:  extractAllStrings,
}

// Result is the outcome of one gate check.
type Result struct {
	Safe     bool          `json:"safe"`
	ToolName string        `json:"tool_name"`
	Findings []rules.Match `json:"findings,omitempty"`
}

// CheckInput evaluates a tool call's input under the given mode. The tool
// name picks the rule-set bundle; the bundle's extraction strategy picks
// the text.
func CheckInput(toolName string, toolInput map[string]any, mode rules.Mode) *Result {
	b, ok := toolBundles[toolName]
	if !ok {
		b = defaultBundle
	}

	var findings []rules.Match
	for _, text := range extractTexts(toolInput, b.extract) {
		for _, set := range b.ruleSets() {
			findings = append(findings, rules.Evaluate(text, set, mode)...)
		}
	}

	return &Result{Safe: len(findings) == 0, ToolName: toolName, Findings: findings}
}

// CheckOutput scans tool-produced text for invisible characters,
// exfiltration patterns, and injection triggers, independent of which tool
// produced it: output is untrusted regardless of origin.
func CheckOutput(toolName, outputText string, mode rules.Mode) *Result {
	var findings []rules.Match

	for _, r := range rules.FindInvisible(outputText) {
		findings = append(findings, rules.Match{
			RuleID:      rules.RuleIDInvisible,
			Category:    rules.CategoryObfuscation,
			Severity:    rules.SeverityHigh,
			Message:     fmt.Sprintf("invisible character %s in tool output", rules.DescribeRune(r)),
			Evidence:    rules.DescribeRune(r),
			Remediation: "Strip invisible characters before consuming this output",
		})
	}

	for _, set := range [][]*rules.Rule{rules.ExfiltrationRules(), rules.InjectionRules()} {
		findings = append(findings, rules.Evaluate(outputText, set, mode)...)
	}

	return &Result{Safe: len(findings) == 0, ToolName: toolName, Findings: findings}
}

// extractTexts applies the bundle's extraction strategy to the raw input.
func extractTexts(toolInput map[string]any, strategy extraction) []string {
	switch strategy {
	case extractCommand:
		if cmd, ok := toolInput["command"].(string); ok {
			return []string{cmd}
		}
		return nil
	case extractPrompt:
		if prompt, ok := toolInput["prompt"].(string); ok {
			return []string{prompt}
		}
		return nil
	default:
		return collectStrings(toolInput)
	}
}

// collectStrings walks an unmarshaled JSON structure and returns every
// string value. Map keys are visited in sorted order so results, and
// therefore findings, are deterministic.
func collectStrings(value any) []string {
	var out []string
	switch v := value.(type) {
	case string:
		out = append(out, v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, collectStrings(v[k])...)
		}
	case []any:
		for _, item := range v {
			out = append(out, collectStrings(item)...)
		}
	}
	return out
}
