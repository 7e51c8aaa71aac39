package composition

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// PlaceholderCaption is the generated text for comment i (0-based).
func PlaceholderCaption(theme string, i int) string {
	return fmt.Sprintf("%sのコメント%d", theme, i+1)
}

// PadCaptions returns n captions. An empty input is filled with
// placeholders; blank entries keep their slot but fall back to the
// placeholder too.
func PadCaptions(theme string, captions []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		var text string
		if i < len(captions) {
			text = NormalizeCaption(captions[i])
		}
		if text == "" {
			text = PlaceholderCaption(theme, i)
		}
		out[i] = text
	}
	return out
}

// NormalizeCaption applies NFKC and collapses runs of whitespace. Line
// breaks supplied by the author are kept.
func NormalizeCaption(text string) string {
	text = norm.NFKC.String(text)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.FieldsFunc(line, unicode.IsSpace), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// DisplayWidth counts half-width columns; wide and fullwidth runes take two.
func DisplayWidth(text string) int {
	total := 0
	for _, r := range text {
		total += runeWidth(r)
	}
	return total
}

func runeWidth(r rune) int {
	if r == '\n' || unicode.Is(unicode.Mn, r) {
		return 0
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

// WrapCaption breaks text into lines of at most maxColumns display columns.
// Latin words are kept whole when they fit on a line.
func WrapCaption(text string, maxColumns int) []string {
	if maxColumns < 2 {
		maxColumns = 2
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapLine(paragraph, maxColumns)...)
	}
	return lines
}

func wrapLine(text string, maxColumns int) []string {
	if DisplayWidth(text) <= maxColumns {
		return []string{text}
	}
	var (
		lines   []string
		current strings.Builder
		used    int
	)
	flush := func() {
		if line := strings.TrimSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
		used = 0
	}
	for _, token := range tokenize(text) {
		w := DisplayWidth(token)
		if used+w > maxColumns && used > 0 {
			flush()
			if token == " " {
				continue
			}
		}
		if w > maxColumns {
			for _, r := range token {
				rw := runeWidth(r)
				if used+rw > maxColumns && used > 0 {
					flush()
				}
				current.WriteRune(r)
				used += rw
			}
			continue
		}
		current.WriteString(token)
		used += w
	}
	flush()
	return lines
}

// tokenize splits text into latin words, single spaces and single wide runes.
func tokenize(text string) []string {
	var (
		tokens []string
		word   strings.Builder
	)
	flushWord := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == ' ':
			flushWord()
			tokens = append(tokens, " ")
		case runeWidth(r) == 2:
			flushWord()
			tokens = append(tokens, string(r))
		default:
			word.WriteRune(r)
		}
	}
	flushWord()
	return tokens
}
