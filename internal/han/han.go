// Package han provides rune classification helpers for Han-script text.
package han

import "strings"

// hanRanges covers the Unicode blocks that matter for dictionary text:
// CJK Unified Ideographs, Extension A, and the compatibility block.
// The supplementary-plane extensions are rare and historic, so they are
// left out on purpose.
var hanRanges = [...]struct{ lo, hi rune }{
	{0x4E00, 0x9FFF},
	{0x3400, 0x4DBF},
	{0xF900, 0xFAFF},
}

// IsHan reports whether r is a Han ideograph.
func IsHan(r rune) bool {
	for _, rng := range hanRanges {
		if r >= rng.lo && r <= rng.hi {
			return true
		}
	}
	return false
}

// Filter returns s with every non-Han rune removed.
func Filter(s string) string {
	var b strings.Builder
	for _, r := range s {
		if IsHan(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Contains reports whether s contains at least one Han rune.
func Contains(s string) bool {
	for _, r := range s {
		if IsHan(r) {
			return true
		}
	}
	return false
}

// Count returns the number of Han runes in s.
func Count(s string) int {
	n := 0
	for _, r := range s {
		if IsHan(r) {
			n++
		}
	}
	return n
}
