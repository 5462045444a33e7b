package compositor

import "strings"

// StringMeasurer yields the rendered width of a string in the current
// font. gg.Context satisfies it.
type StringMeasurer interface {
	MeasureString(s string) (w, h float64)
}

// WrapNarration greedily breaks text into lines no wider than maxWidth.
// Words are never split; a single word wider than maxWidth gets its own
// line. Whitespace runs collapse to single spaces.
func WrapNarration(m StringMeasurer, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := ""
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if w, _ := m.MeasureString(candidate); line != "" && w > maxWidth {
			lines = append(lines, line)
			line = word
		} else {
			line = candidate
		}
	}
	lines = append(lines, line)

	return lines
}
