package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters and control runes are removed. Leading dots are dropped so a
// theme name never produces a hidden file. Non-ASCII names are kept as is.
func SanitizeFileName(name string) string {
	name = fileNameReplacer.Replace(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(strings.TrimLeft(name, "."))
}

// OutputFileName returns "<sanitized theme>.mp4", or fallback.mp4 when the
// theme name sanitizes to nothing.
func OutputFileName(theme, fallback string) string {
	base := SanitizeFileName(theme)
	if base == "" {
		base = SanitizeFileName(fallback)
	}
	if base == "" {
		base = "output"
	}
	return base + ".mp4"
}
