package costs

import "math"

// Rate is the price per 1000 tokens for one model.
type Rate struct {
	Input  float64
	Output float64
}

// Breakdown is the priced result of one request.
type Breakdown struct {
	InputCost  float64 `json:"input_cost"`
	OutputCost float64 `json:"output_cost"`
	TotalCost  float64 `json:"total_cost"`
}

// defaultRate covers models missing from the table. Pricing never fails on
// an unknown model.
var defaultRate = Rate{Input: 0.001, Output: 0.002}

var pricing = map[string]map[string]Rate{
	"openai": {
		"gpt-4":         {Input: 0.03, Output: 0.06},
		"gpt-4-turbo":   {Input: 0.01, Output: 0.03},
		"gpt-3.5-turbo": {Input: 0.0015, Output: 0.002},
	},
	"deepseek": {
		"deepseek/deepseek-chat":  {Input: 0.00014, Output: 0.00028},
		"deepseek/deepseek-coder": {Input: 0.00014, Output: 0.00028},
	},
	"anthropic": {
		"claude-3-opus":   {Input: 0.015, Output: 0.075},
		"claude-3-sonnet": {Input: 0.003, Output: 0.015},
		"claude-3-haiku":  {Input: 0.00025, Output: 0.00125},
	},
	"google": {
		"gemini-pro":        {Input: 0.0005, Output: 0.0015},
		"gemini-pro-vision": {Input: 0.0005, Output: 0.0015},
	},
}

// lookupRate resolves pricing in order: exact (provider, model) pair, then
// the model under any provider, then the default rate.
func lookupRate(model, provider string) Rate {
	if models, ok := pricing[provider]; ok {
		if rate, ok := models[model]; ok {
			return rate
		}
	}
	for _, models := range pricing {
		if rate, ok := models[model]; ok {
			return rate
		}
	}
	return defaultRate
}

// Price computes the monetary cost of a request. Costs are per 1000 tokens,
// rounded to 6 decimal places, and never negative.
func Price(model, provider string, inputTokens, outputTokens int) Breakdown {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}

	rate := lookupRate(model, provider)
	inputCost := round6(float64(inputTokens) / 1000 * rate.Input)
	outputCost := round6(float64(outputTokens) / 1000 * rate.Output)
	return Breakdown{
		InputCost:  inputCost,
		OutputCost: outputCost,
		TotalCost:  round6(inputCost + outputCost),
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
