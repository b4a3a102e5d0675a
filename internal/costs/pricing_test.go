package costs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrice_ZeroTokens(t *testing.T) {
	for provider, models := range pricing {
		for model := range models {
			b := Price(model, provider, 0, 0)
			assert.Zero(t, b.InputCost, "%s/%s", provider, model)
			assert.Zero(t, b.OutputCost, "%s/%s", provider, model)
			assert.Zero(t, b.TotalCost, "%s/%s", provider, model)
		}
	}
}

func TestPrice_ExactPair(t *testing.T) {
	b := Price("gpt-4", "openai", 1000, 1000)
	assert.InDelta(t, 0.03, b.InputCost, 1e-9)
	assert.InDelta(t, 0.06, b.OutputCost, 1e-9)
	assert.InDelta(t, 0.09, b.TotalCost, 1e-9)
}

func TestPrice_ModelUnderAnyProvider(t *testing.T) {
	// Wrong provider, known model: the model's rate still applies.
	b := Price("claude-3-opus", "openai", 1000, 0)
	assert.InDelta(t, 0.015, b.InputCost, 1e-9)
}

func TestPrice_UnknownModelFallsThrough(t *testing.T) {
	b := Price("never-heard-of-it", "nobody", 1000, 1000)
	assert.InDelta(t, defaultRate.Input, b.InputCost, 1e-9)
	assert.InDelta(t, defaultRate.Output, b.OutputCost, 1e-9)
}

func TestPrice_Monotonic(t *testing.T) {
	prev := 0.0
	for _, n := range []int{0, 10, 100, 1000, 100000} {
		b := Price("gpt-4", "openai", n, n)
		assert.GreaterOrEqual(t, b.TotalCost, prev)
		prev = b.TotalCost
	}
}

func TestPrice_NeverNegative(t *testing.T) {
	b := Price("gpt-4", "openai", -50, -10)
	assert.GreaterOrEqual(t, b.InputCost, 0.0)
	assert.GreaterOrEqual(t, b.OutputCost, 0.0)
	assert.GreaterOrEqual(t, b.TotalCost, 0.0)
}

func TestPrice_TotalIsSum(t *testing.T) {
	b := Price("deepseek/deepseek-chat", "deepseek", 1234, 567)
	assert.InDelta(t, b.InputCost+b.OutputCost, b.TotalCost, 1e-6)
}

func TestPrice_Rounding(t *testing.T) {
	// 1 token of gpt-4 input: 0.00003 exactly at 6 decimal places.
	b := Price("gpt-4", "openai", 1, 0)
	assert.Equal(t, 0.00003, b.InputCost)
}
