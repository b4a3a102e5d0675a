package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount_Approximation(t *testing.T) {
	c := &Counter{encoders: nil} // no tokenizer registered, always approximate

	t.Run("empty text", func(t *testing.T) {
		assert.Zero(t, c.Count("", "unknown-model"))
	})

	t.Run("word based estimate", func(t *testing.T) {
		// 100 words * 1.33, floored.
		text := strings.TrimSpace(strings.Repeat("word ", 100))
		assert.Equal(t, 133, c.Count(text, "unknown-model"))
	})

	t.Run("rounds down", func(t *testing.T) {
		// 10 words * 1.33 = 13.3 -> 13
		text := strings.TrimSpace(strings.Repeat("word ", 10))
		assert.Equal(t, 13, c.Count(text, "unknown-model"))
	})
}

func TestCountMessages_Approximation(t *testing.T) {
	c := &Counter{encoders: nil}

	messages := []Message{
		{Role: "system", Content: strings.TrimSpace(strings.Repeat("word ", 10))},
		{Role: "user", Content: strings.TrimSpace(strings.Repeat("word ", 20))},
	}

	// Content estimates plus a flat 8 per message for role and formatting.
	want := 13 + 8 + 26 + 8
	assert.Equal(t, want, c.CountMessages(messages, "unknown-model"))
}

func TestCountMessages_MoreThanBareContent(t *testing.T) {
	c := NewCounter()
	messages := []Message{{Role: "user", Content: "How many vacation days do I get?"}}

	contentOnly := c.Count(messages[0].Content, "gpt-4")
	assert.Greater(t, c.CountMessages(messages, "gpt-4"), contentOnly)
}

func TestNewCounter(t *testing.T) {
	c := NewCounter()
	assert.NotNil(t, c.encoders)
	// Counting must work whether or not the tokenizer data was available.
	assert.GreaterOrEqual(t, c.Count("hello world", "gpt-4"), 1)
}
