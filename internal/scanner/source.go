package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hookguard/hookguard-go/internal/rules"
)

// sourceExtensions are the file types the MCP source scanner covers.
var sourceExtensions = map[string]bool{
	".py": true,
	".js": true,
	".ts": true,
	".go": true,
}

// ScanSourceFile scans an MCP tool source file line by line against the
// MCP-specific rule set. Prose rules are deliberately not applied: phrases
// that are suspicious in a skill file are routine in source code.
func ScanSourceFile(path string, mode rules.Mode) *ScanResult {
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

	var findings []Finding
	for i, line := range strings.Split(string(data), "\n") {
		for _, m := range rules.Evaluate(line, rules.MCPToolRules(), mode) {
			findings = append(findings, findingFromMatch(path, i+1, m))
		}
		findings = append(findings, invisibleFindings(path, i+1, line)...)
	}
	return newResult(path, findings)
}

// ScanMCPDirectory recursively scans source files under dir with the MCP
// rule set, sorted by path for deterministic output.
func ScanMCPDirectory(dir string, mode rules.Mode) ([]*ScanResult, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	sort.Strings(paths)

	results := make([]*ScanResult, 0, len(paths))
	for _, path := range paths {
		results = append(results, ScanSourceFile(path, mode))
	}
	return results, nil
}
