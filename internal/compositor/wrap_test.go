package compositor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// charMeasurer pretends every character is 10 units wide.
type charMeasurer struct{}

func (charMeasurer) MeasureString(s string) (w, h float64) {
	return float64(len(s)) * 10, 20
}

func TestWrapNarration(t *testing.T) {
	m := charMeasurer{}

	t.Run("keeps short text on one line", func(t *testing.T) {
		lines := WrapNarration(m, "a short line", 200)
		assert.Equal(t, []string{"a short line"}, lines)
	})

	t.Run("breaks at word boundaries", func(t *testing.T) {
		// width 100 fits 10 characters per line
		lines := WrapNarration(m, "one two three four", 100)
		assert.Equal(t, []string{"one two", "three four"}, lines)
	})

	t.Run("keeps every word exactly once", func(t *testing.T) {
		text := "the quick brown fox jumps over the lazy dog again and again"
		lines := WrapNarration(m, text, 150)
		assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lines, " ")))
	})

	t.Run("no line exceeds the limit unless a single word does", func(t *testing.T) {
		lines := WrapNarration(m, "tiny words fill the bar neatly here", 120)
		for _, line := range lines {
			w, _ := m.MeasureString(line)
			assert.LessOrEqual(t, w, 120.0, "line %q too wide", line)
		}
	})

	t.Run("an overlong word gets its own line", func(t *testing.T) {
		lines := WrapNarration(m, "ok Donaudampfschifffahrtsgesellschaft ok", 100)
		assert.Equal(t, []string{"ok", "Donaudampfschifffahrtsgesellschaft", "ok"}, lines)
	})

	t.Run("collapses whitespace runs", func(t *testing.T) {
		lines := WrapNarration(m, "  a   b  \n c  ", 500)
		assert.Equal(t, []string{"a b c"}, lines)
	})

	t.Run("empty text yields no lines", func(t *testing.T) {
		assert.Nil(t, WrapNarration(m, "   ", 100))
	})

	t.Run("is stable when re-wrapping its own output", func(t *testing.T) {
		text := "a playful little dragon learns to fly over the green hills"
		once := WrapNarration(m, text, 150)
		twice := WrapNarration(m, strings.Join(once, " "), 150)
		assert.Equal(t, once, twice)
	})
}
