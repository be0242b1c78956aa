package scanner

import (
	"strings"

	"github.com/hookguard/hookguard-go/internal/rules"
)

var diffHunkPrefixes = []string{"diff ", "index ", "--- ", "new file", "deleted file", "similarity", "rename ", "old mode", "new mode", "Binary files"}

// ScanChangeset parses a unified diff and scans only its added lines,
// producing one result per changed prose file in diff order. Removed lines
// are never scanned; context lines advance the destination-side line
// counter without being evaluated. Line numbers therefore refer to the
// post-change file.
func ScanChangeset(diffText string, mode rules.Mode) []*ScanResult {
	var results []*ScanResult
	byFile := make(map[string]int)

	var current string
	var scanning, inHunk bool
	var destLine, destRemaining int

	addFinding := func(file string, fs []Finding) {
		idx, ok := byFile[file]
		if !ok {
			idx = len(results)
			byFile[file] = idx
			results = append(results, newResult(file, nil))
		}
		results[idx].Findings = append(results[idx].Findings, fs...)
		if len(results[idx].Findings) > 0 {
			results[idx].Verdict = VerdictFail
		}
	}

	// consumeDest accounts for one destination-side line; a hunk ends when
	// its destination count is exhausted, so added content that merely looks
	// like a "+++ " file header cannot be mistaken for one.
	consumeDest := func() {
		destLine++
		destRemaining--
		if destRemaining <= 0 {
			inHunk = false
		}
	}

	for _, line := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ ") && !inHunk:
			current = parseDiffPath(strings.TrimPrefix(line, "+++ "))
			scanning = current != "" && IsProseFile(current)
			if scanning {
				// Register the file even if no added line fires, so callers
				// see a PASS entry for every scanned file in the diff.
				addFinding(current, nil)
			}

		case strings.HasPrefix(line, "@@"):
			start, count, ok := parseHunkDest(line)
			if !ok {
				inHunk = false
				continue
			}
			destLine = start
			destRemaining = count
			inHunk = destRemaining > 0

		case !inHunk:
			// Headers and metadata between files or hunks.

		case strings.HasPrefix(line, "+"):
			consumeDest()
			if scanning {
				addFinding(current, scanLine(current, destLine, line[1:], mode))
			}

		case strings.HasPrefix(line, "-"):
			// Removed line: exists only on the source side.

		case isDiffMetaLine(line):
			inHunk = false

		default:
			// Context line.
			consumeDest()
		}
	}

	return results
}

// parseDiffPath strips the b/ prefix git puts on destination paths and
// filters out deletions.
func parseDiffPath(raw string) string {
	path := strings.TrimSpace(raw)
	if i := strings.IndexByte(path, '\t'); i >= 0 {
		path = path[:i]
	}
	if path == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(path, "b/")
}

// parseHunkDest extracts the destination start line and line count from a
// hunk header of the form "@@ -a,b +c,d @@" (count defaults to 1 when the
// ",d" part is omitted). The first hunk line is then numbered c+1, matching
// how reviewers count lines below the header.
func parseHunkDest(line string) (start, count int, ok bool) {
	plus := strings.Index(line, "+")
	if plus < 0 {
		return 0, 0, false
	}
	rest := line[plus+1:]
	end := strings.IndexAny(rest, ", @")
	if end < 0 {
		return 0, 0, false
	}

	start, ok = parseDecimal(rest[:end])
	if !ok {
		return 0, 0, false
	}

	count = 1
	if rest[end] == ',' {
		tail := rest[end+1:]
		stop := strings.IndexAny(tail, " @")
		if stop < 0 {
			return 0, 0, false
		}
		count, ok = parseDecimal(tail[:stop])
		if !ok {
			return 0, 0, false
		}
	}
	return start, count, true
}

func parseDecimal(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func isDiffMetaLine(line string) bool {
	for _, p := range diffHunkPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
