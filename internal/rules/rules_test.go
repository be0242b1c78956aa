package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreshold(t *testing.T) {
	assert.Equal(t, SeverityCritical, Threshold(ModePermissive))
	assert.Equal(t, SeverityHigh, Threshold(ModeStandard))
	assert.Equal(t, SeverityMedium, Threshold(ModeParanoid))
}

func TestParseMode(t *testing.T) {
	for _, name := range []string{"standard", "paranoid", "permissive"} {
		mode, err := ParseMode(name)
		require.NoError(t, err)
		assert.Equal(t, Mode(name), mode)
	}

	_, err := ParseMode("yolo")
	assert.Error(t, err)
}

func TestEvaluate_ModeGating(t *testing.T) {
	set := []*Rule{
		newRule("T-001", CategoryInjection, SeverityCritical, `critical-marker`, "critical rule", ""),
		newRule("T-002", CategoryInjection, SeverityHigh, `high-marker`, "high rule", ""),
		newRule("T-003", CategoryInjection, SeverityMedium, `medium-marker`, "medium rule", ""),
		newRule("T-004", CategoryInjection, SeverityLow, `low-marker`, "low rule", ""),
	}
	text := "critical-marker high-marker medium-marker low-marker"

	tests := []struct {
		mode Mode
		want []string
	}{
		{ModePermissive, []string{"T-001"}},
		{ModeStandard, []string{"T-001", "T-002"}},
		{ModeParanoid, []string{"T-001", "T-002", "T-003"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			matches := Evaluate(text, set, tt.mode)
			var ids []string
			for _, m := range matches {
				ids = append(ids, m.RuleID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestEvaluate_LowNeverSurfaced(t *testing.T) {
	set := []*Rule{
		newRule("T-004", CategoryEscalation, SeverityLow, `low-marker`, "low rule", ""),
	}
	for _, mode := range []Mode{ModeStandard, ModeParanoid, ModePermissive} {
		assert.Empty(t, Evaluate("low-marker", set, mode), "mode %s", mode)
	}
}

func TestEvaluate_DeclarationOrder(t *testing.T) {
	// The second rule matches earlier in the text; declaration order still wins.
	set := []*Rule{
		newRule("T-001", CategoryInjection, SeverityHigh, `zzz`, "late in text", ""),
		newRule("T-002", CategoryInjection, SeverityHigh, `aaa`, "early in text", ""),
	}
	matches := Evaluate("aaa then zzz", set, ModeStandard)
	require.Len(t, matches, 2)
	assert.Equal(t, "T-001", matches[0].RuleID)
	assert.Equal(t, "T-002", matches[1].RuleID)
}

func TestEvaluate_FirstMatchEvidence(t *testing.T) {
	set := []*Rule{
		newRule("T-001", CategoryInjection, SeverityHigh, `tok-\d+`, "token", ""),
	}
	matches := Evaluate("tok-1 tok-2 tok-3", set, ModeStandard)
	require.Len(t, matches, 1)
	assert.Equal(t, "tok-1", matches[0].Evidence)
}

func TestEvaluate_EmptyText(t *testing.T) {
	assert.Empty(t, Evaluate("", InjectionRules(), ModeParanoid))
}

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, SeverityLow < SeverityMedium)
	assert.True(t, SeverityMedium < SeverityHigh)
	assert.True(t, SeverityHigh < SeverityCritical)
}

func TestTrustLevels(t *testing.T) {
	require.Len(t, TrustLevels, 5)
	assert.Greater(t, TrustLevels["system"], TrustLevels["verified"])
	assert.Greater(t, TrustLevels["verified"], TrustLevels["user"])
	assert.Greater(t, TrustLevels["user"], TrustLevels["untrusted"])
	assert.Greater(t, TrustLevels["untrusted"], TrustLevels["hostile"])
}
