package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateString cuts a string to fit within maxWidth visual width
func TruncateString(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", max(maxWidth, 0))
	}
	width := 0
	for i, r := range s {
		charWidth := runewidth.RuneWidth(r)
		// Reserve space for "..."
		if width+charWidth > maxWidth-3 {
			return s[:i] + "..."
		}
		width += charWidth
	}
	return s
}

// PadRight pads s with spaces up to width visual columns, truncating it first if it is too wide
func PadRight(s string, width int) string {
	s = TruncateString(s, width)
	return s + strings.Repeat(" ", max(width-runewidth.StringWidth(s), 0))
}

// FormatSeconds renders seconds as m:ss, or h:mm:ss from an hour up
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatPosition renders "played / duration", or just the played time while the duration is unknown
func FormatPosition(played, duration float64) string {
	if duration <= 0 {
		return FormatSeconds(played)
	}
	return FormatSeconds(played) + " / " + FormatSeconds(duration)
}
