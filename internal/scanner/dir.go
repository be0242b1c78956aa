package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/hookguard/hookguard-go/internal/rules"
)

// proseExtensions are the file types treated as skill/command prose.
var proseExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdc":      true,
}

// SetProseExtensions replaces the prose extension set, normally from the
// scan_extensions config key. Called once at startup, before any scan.
func SetProseExtensions(exts []string) {
	if len(exts) == 0 {
		return
	}
	next := make(map[string]bool, len(exts))
	for _, ext := range exts {
		next[strings.ToLower(ext)] = true
	}
	proseExtensions = next
}

// IsProseFile reports whether the path has a prose extension the skill
// scanner covers.
func IsProseFile(path string) bool {
	return proseExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanDirectory recursively scans every markdown file under dir, applying
// include and exclude glob patterns to the slash-separated relative path.
// Include patterns, when present, must match at least one; exclude patterns
// always win. Results come back sorted by relative path so repeated scans
// are deterministic regardless of filesystem order.
func ScanDirectory(dir string, mode rules.Mode, include, exclude []string) ([]*ScanResult, error) {
	includeGlobs, err := compileGlobs(include)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	excludeGlobs, err := compileGlobs(exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !IsProseFile(path) {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(includeGlobs, rel, true) || matchesAny(excludeGlobs, rel, false) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	sort.Strings(paths)

	results := make([]*ScanResult, 0, len(paths))
	for _, path := range paths {
		results = append(results, ScanSkill(path, mode))
	}
	return results, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// matchesAny reports whether rel matches any glob; empty glob lists return
// the provided default (true for include filters, false for excludes).
func matchesAny(globs []glob.Glob, rel string, emptyDefault bool) bool {
	if len(globs) == 0 {
		return emptyDefault
	}
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
