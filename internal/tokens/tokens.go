package tokens

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

// Message is one chat message for counting purposes.
type Message struct {
	Role    string
	Content string
}

// modelEncodings maps the models we price to their tiktoken encoding.
var modelEncodings = map[string]string{
	"gpt-4":                  "cl100k_base",
	"gpt-4-turbo":            "cl100k_base",
	"gpt-3.5-turbo":          "cl100k_base",
	"deepseek/deepseek-chat": "cl100k_base",
	"deepseek/deepseek-coder": "cl100k_base",
	"claude-3-opus":          "cl100k_base",
	"claude-3-sonnet":        "cl100k_base",
	"claude-3-haiku":         "cl100k_base",
	"gemini-pro":             "cl100k_base",
}

// Counter counts tokens with a real subword tokenizer when one is registered
// for the model, and a word-based approximation otherwise.
type Counter struct {
	encoders map[string]*tiktoken.Tiktoken
}

func NewCounter() *Counter {
	c := &Counter{encoders: make(map[string]*tiktoken.Tiktoken)}
	for model, encoding := range modelEncodings {
		enc, err := tiktoken.GetEncoding(encoding)
		if err != nil {
			log.Warn().Err(err).Str("model", model).Msg("tokenizer unavailable, will approximate")
			continue
		}
		c.encoders[model] = enc
	}
	return c
}

// Count returns the token count of text for the given model.
func (c *Counter) Count(text, model string) int {
	if enc, ok := c.encoders[model]; ok {
		return len(enc.Encode(text, nil, nil))
	}
	return approximate(text)
}

// CountMessages counts a message list, adding the per-message role and
// formatting overhead on top of the content counts.
func (c *Counter) CountMessages(messages []Message, model string) int {
	enc, precise := c.encoders[model]

	total := 0
	for _, m := range messages {
		if precise {
			total += len(enc.Encode(m.Content, nil, nil))
			total += len(enc.Encode(m.Role, nil, nil))
			total += 4 // per-message formatting tokens
		} else {
			total += approximate(m.Content)
			total += 8 // role + formatting estimate
		}
	}
	return total
}

// approximate assumes roughly 0.75 words per token for English text.
func approximate(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) * 1.33)
}
