// Package sanitize cleans server-supplied strings before they reach the
// terminal: file names, stage details, and error messages from snapshot
// and chunk responses.
//
// It removes invisible Unicode characters (zero-width spaces, BOM),
// folds line endings, and collapses whitespace runs so a hostile or
// garbled message cannot break table alignment or smuggle control text
// into the rendered output.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`[\r\n]+`)
)

// invisibleChars are stripped entirely from display strings.
var invisibleChars = []string{
	"​", // zero-width space
	"‌", // zero-width non-joiner
	"‍", // zero-width joiner
	"\uFEFF", // zero-width no-break space (BOM)
	"­", // soft hyphen
	"⁠", // word joiner
	"᠎", // Mongolian vowel separator
}

// Display cleans a server-supplied string for one-line terminal output:
// invisible characters removed, newlines folded to spaces, whitespace
// runs collapsed, ends trimmed.
func Display(s string) string {
	if s == "" {
		return s
	}
	s = removeInvisibleChars(s)
	s = newlineRuns.ReplaceAllString(s, " ")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// FileName cleans a server-reported file name for display. Unlike
// Display it keeps inner whitespace untouched so names round-trip
// against the names the client itself uploaded.
func FileName(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(removeInvisibleChars(s))
}

func removeInvisibleChars(s string) string {
	for _, ch := range invisibleChars {
		s = strings.ReplaceAll(s, ch, "")
	}
	return s
}
