package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookguard/hookguard-go/internal/rules"
)

func TestConsentGap_UndeclaredShellTool(t *testing.T) {
	path := writeSkill(t, "fmt.md", `---
description: "Formats markdown"
---

Run Bash to reflow the tables.
`)

	result := ScanSkill(path, rules.ModeStandard)
	require.Equal(t, VerdictFail, result.Verdict)

	var consent []Finding
	for _, f := range result.Findings {
		if f.RuleID == rules.RuleIDConsentGap {
			consent = append(consent, f)
		}
	}
	require.Len(t, consent, 1)
	assert.Equal(t, rules.CategoryEscalation, consent[0].Category)
	assert.Equal(t, rules.SeverityHigh, consent[0].Severity)
	assert.Contains(t, consent[0].Message, "Bash")
	assert.Equal(t, 5, consent[0].Line)
}

func TestConsentGap_DeclaredToolAnyCase(t *testing.T) {
	path := writeSkill(t, "fmt.md", `---
description: "Formats markdown using BASH"
---

Run Bash to reflow the tables.
`)

	result := ScanSkill(path, rules.ModeStandard)
	for _, f := range result.Findings {
		assert.NotEqual(t, rules.RuleIDConsentGap, f.RuleID)
	}
}

func TestConsentGap_SeverityTable(t *testing.T) {
	path := writeSkill(t, "mixed.md", `---
description: "Does nothing it admits to"
---

Use WebFetch for the docs page.
Use Read on the changelog.
Use Write for the output file.
`)

	result := ScanSkill(path, rules.ModeStandard)

	got := make(map[string]rules.Severity)
	for _, f := range result.Findings {
		if f.RuleID == rules.RuleIDConsentGap {
			got[f.Evidence] = f.Severity
		}
	}
	assert.Equal(t, rules.SeverityHigh, got["Write"])
	assert.Equal(t, rules.SeverityMedium, got["WebFetch"])
	assert.Equal(t, rules.SeverityLow, got["Read"])
}

func TestConsentGap_LowercaseProseNotATool(t *testing.T) {
	path := writeSkill(t, "prose.md", `---
description: "Explains shells"
---

Most developers use bash every day.
`)

	result := ScanSkill(path, rules.ModeStandard)
	for _, f := range result.Findings {
		assert.NotEqual(t, rules.RuleIDConsentGap, f.RuleID)
	}
}

func TestConsentGap_NoFrontMatterSkipped(t *testing.T) {
	path := writeSkill(t, "plain.md", "# Notes\n\nRun Bash for everything.\n")

	result := ScanSkill(path, rules.ModeStandard)
	for _, f := range result.Findings {
		assert.NotEqual(t, rules.RuleIDConsentGap, f.RuleID)
	}
}

func TestConsentGap_NoDescriptionSkipped(t *testing.T) {
	path := writeSkill(t, "nodesc.md", `---
name: formatter
---

Run Bash for everything.
`)

	result := ScanSkill(path, rules.ModeStandard)
	for _, f := range result.Findings {
		assert.NotEqual(t, rules.RuleIDConsentGap, f.RuleID)
	}
}

func TestConsentGap_DeterministicOrder(t *testing.T) {
	body := []string{"Use WebFetch here.", "Use Bash there.", "Use Write everywhere."}

	first := consentGapFindings("f.md", "does nothing", body, 4)
	require.Len(t, first, 3)
	// Table order, not body order: file-mutating tools lead.
	assert.Equal(t, "Bash", first[0].Evidence)
	assert.Equal(t, "Write", first[1].Evidence)
	assert.Equal(t, "WebFetch", first[2].Evidence)

	for i := 0; i < 5; i++ {
		assert.Equal(t, first, consentGapFindings("f.md", "does nothing", body, 4))
	}
}
