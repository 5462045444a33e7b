package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONContent(t *testing.T) {
	t.Run("plain json passes through", func(t *testing.T) {
		raw := `{"title":"Der kleine Drache","scenes":[]}`
		assert.Equal(t, raw, ExtractJSONContent(raw))
	})

	t.Run("json fenced block", func(t *testing.T) {
		raw := "Here is your story:\n```json\n{\"title\":\"T\"}\n```\nEnjoy!"
		assert.Equal(t, `{"title":"T"}`, ExtractJSONContent(raw))
	})

	t.Run("unlabeled fenced block", func(t *testing.T) {
		raw := "```\n{\"title\":\"T\"}\n```"
		assert.Equal(t, `{"title":"T"}`, ExtractJSONContent(raw))
	})

	t.Run("object surrounded by chatter", func(t *testing.T) {
		raw := `Sure! {"title":"T","scenes":[{"id":1}]} Hope you like it.`
		assert.Equal(t, `{"title":"T","scenes":[{"id":1}]}`, ExtractJSONContent(raw))
	})

	t.Run("braces inside string values survive", func(t *testing.T) {
		raw := `{"title":"a {weird} title"}`
		assert.Equal(t, raw, ExtractJSONContent(raw))
	})

	t.Run("no json yields empty string", func(t *testing.T) {
		assert.Equal(t, "", ExtractJSONContent("I cannot help with that."))
		assert.Equal(t, "", ExtractJSONContent(""))
	})

	t.Run("unbalanced json yields empty string", func(t *testing.T) {
		assert.Equal(t, "", ExtractJSONContent(`{"title":"T"`))
	})
}
