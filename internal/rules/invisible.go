package rules

import "fmt"

// invisibleRunes is the fixed set of zero-width, bidirectional-formatting,
// BOM, and interlinear-annotation code points that have no business in
// skill files, commands, or tool output. Any literal occurrence is
// reportable; legitimate text renders identically without them.
var invisibleRunes = map[rune]string{
	'\u200B': "zero width space",
	'\u200C': "zero width non-joiner",
	'\u200D': "zero width joiner",
	'\u200E': "left-to-right mark",
	'\u200F': "right-to-left mark",
	'\u202A': "left-to-right embedding",
	'\u202B': "right-to-left embedding",
	'\u202C': "pop directional formatting",
	'\u202D': "left-to-right override",
	'\u202E': "right-to-left override",
	'\u2060': "word joiner",
	'\u2066': "left-to-right isolate",
	'\u2067': "right-to-left isolate",
	'\u2068': "first strong isolate",
	'\u2069': "pop directional isolate",
	'\uFEFF': "byte order mark",
	'\uFFF9': "interlinear annotation anchor",
	'\uFFFA': "interlinear annotation separator",
	'\uFFFB': "interlinear annotation terminator",
}

// InvisibleRuneCount is the size of the detection set, pinned by tests.
const InvisibleRuneCount = 19

// IsInvisibleRune reports whether r belongs to the detection set.
func IsInvisibleRune(r rune) bool {
	_, ok := invisibleRunes[r]
	return ok
}

// FindInvisible returns every rune from the detection set that occurs in s,
// in order of first appearance, each reported once.
func FindInvisible(s string) []rune {
	var found []rune
	seen := make(map[rune]bool)
	for _, r := range s {
		if IsInvisibleRune(r) && !seen[r] {
			seen[r] = true
			found = append(found, r)
		}
	}
	return found
}

// DescribeRune formats an invisible rune for reports without reproducing
// the character itself, e.g. "U+200B (zero width space)".
func DescribeRune(r rune) string {
	name, ok := invisibleRunes[r]
	if !ok {
		return fmt.Sprintf("U+%04X", r)
	}
	return fmt.Sprintf("U+%04X (%s)", r, name)
}
