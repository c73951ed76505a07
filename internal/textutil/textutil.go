package textutil

import "strings"

var (
	escaper   = strings.NewReplacer("\n", `\n`, "\r", `\r`)
	unescaper = strings.NewReplacer(`\n`, "\n", `\r`, "\r")
)

// Escape replaces line feeds and carriage returns with the two-character
// sequences \n and \r so a string fits on one CSV line.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverses Escape. A literal backslash-n already present in the
// original text is indistinguishable from an escaped newline.
func Unescape(s string) string {
	return unescaper.Replace(s)
}

// Truncate shortens a string to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
