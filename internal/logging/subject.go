package logging

import "strings"

// FormatSubject builds the theme/stage subject string used in console output.
func FormatSubject(theme, stage string) string {
	theme = strings.TrimSpace(theme)
	stage = strings.TrimSpace(stage)
	switch {
	case theme != "" && stage != "":
		return theme + " (" + stage + ")"
	case theme != "":
		return theme
	default:
		return stage
	}
}
