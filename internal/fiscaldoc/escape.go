package fiscaldoc

import "strings"

var (
	escaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	unescaper = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

// Escape replaces the five reserved XML characters with their named entities in one pass.
func Escape(s string) string { return escaper.Replace(s) }

// Unescape is the inverse of Escape. Any other '&' sequence is left untouched.
func Unescape(s string) string { return unescaper.Replace(s) }
