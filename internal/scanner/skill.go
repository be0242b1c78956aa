package scanner

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hookguard/hookguard-go/internal/rules"
)

const fenceMarker = "```"

// entropyThreshold defaults to the catalog value; configuration may raise
// or lower it per deployment.
var entropyThreshold = rules.HighEntropyThreshold

// SetEntropyThreshold overrides the fenced-block entropy cutoff, normally
// from the entropy_threshold config key. Called once at startup.
func SetEntropyThreshold(threshold float64) {
	if threshold > 0 {
		entropyThreshold = threshold
	}
}

// ScanSkill scans one skill or command definition file: every line goes
// through the prose rule sets and the invisible-character check, fenced
// code blocks get a per-block entropy check, and files with a front-matter
// description get consent-gap analysis. A missing or unreadable file yields
// a single synthetic FAIL finding rather than an error, so directory scans
// degrade per file instead of aborting.
func ScanSkill(path string, mode rules.Mode) *ScanResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return newResult(path, []Finding{{
			File:        path,
			Line:        0,
			Category:    rules.CategoryEscalation,
			Severity:    rules.SeverityHigh,
			RuleID:      "FILE-001",
			Message:     "file could not be read",
			Remediation: "Verify the path exists and is readable",
		}})
	}
	return scanContent(path, string(data), mode)
}

func scanContent(path, content string, mode rules.Mode) *ScanResult {
	lines := strings.Split(content, "\n")

	var findings []Finding
	for i, line := range lines {
		findings = append(findings, scanLine(path, i+1, line, mode)...)
	}

	findings = append(findings, scanFencedBlocks(path, lines)...)

	if fm, body, bodyStart, ok := splitFrontMatter(lines); ok {
		if desc := frontMatterDescription(fm); desc != "" {
			findings = append(findings, consentGapFindings(path, desc, body, bodyStart)...)
		}
	}

	return newResult(path, findings)
}

// scanFencedBlocks extracts fenced code blocks and reports any block whose
// Shannon entropy exceeds the catalog threshold. Entropy is computed per
// block, never over the whole file, to keep scan cost bounded and avoid
// penalizing ordinary mixed prose.
func scanFencedBlocks(path string, lines []string) []Finding {
	var findings []Finding

	inBlock := false
	blockStart := 0
	var block []string

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, fenceMarker) {
			if !inBlock {
				inBlock = true
				blockStart = i + 1
				block = block[:0]
				continue
			}

			inBlock = false
			content := strings.Join(block, "\n")
			if entropy := rules.ShannonEntropy(content); entropy > entropyThreshold {
				findings = append(findings, Finding{
					File:        path,
					Line:        blockStart,
					Category:    rules.CategoryObfuscation,
					Severity:    rules.SeverityMedium,
					RuleID:      rules.RuleIDEntropy,
					Message:     fmt.Sprintf("high-entropy code block (%.2f bits/symbol)", entropy),
					Remediation: "Replace encoded or packed content with readable source",
				})
			}
			continue
		}
		if inBlock {
			block = append(block, line)
		}
	}

	return findings
}

// splitFrontMatter detects a YAML front-matter header delimited by "---"
// lines at the top of the file. It returns the raw front-matter, the body
// lines, and the 1-based line number of the first body line.
func splitFrontMatter(lines []string) (frontMatter string, body []string, bodyStart int, ok bool) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", nil, 0, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), lines[i+1:], i + 2, true
		}
	}
	return "", nil, 0, false
}

// frontMatterDescription extracts the description field from front-matter.
// Malformed YAML or a missing field both yield an empty string; front-matter
// problems are not findings.
func frontMatterDescription(frontMatter string) string {
	var fm struct {
		Description string `yaml:"description"`
	}
	if err := yaml.Unmarshal([]byte(frontMatter), &fm); err != nil {
		return ""
	}
	return strings.TrimSpace(fm.Description)
}
