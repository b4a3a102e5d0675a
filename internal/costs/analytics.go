package costs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ModelEfficiency is the per-model slice of the efficiency report.
type ModelEfficiency struct {
	Model              string  `json:"model"`
	Provider           string  `json:"provider"`
	CostPerRequest     float64 `json:"cost_per_request"`
	CostPerToken       float64 `json:"cost_per_token"`
	RequestsPercentage float64 `json:"requests_percentage"`
}

// Efficiency reports cost-optimization metrics over a trailing window.
type Efficiency struct {
	PeriodDays       int               `json:"period_days"`
	CostPerRequest   float64           `json:"cost_per_request"`
	CostPerToken     float64           `json:"cost_per_token"`
	TokensPerRequest float64           `json:"tokens_per_request"`
	Models           []ModelEfficiency `json:"model_efficiency"`
	Suggestions      []string          `json:"optimization_suggestions"`
	NoData           bool              `json:"no_data"`
}

const (
	highSpendThreshold     = 50.0
	highTokensPerRequest   = 2000.0
	suggestionCheaperModel = "Consider using more cost-effective models for simple queries"
	suggestionTrimPrompts  = "Optimize prompts to reduce token usage"
	suggestionNoData       = "No cost data available yet. Start making requests to see efficiency metrics."
)

func (t *Tracker) Efficiency(ctx context.Context, days int) (*Efficiency, error) {
	summary, err := t.Summary(ctx, days)
	if err != nil {
		return nil, err
	}
	breakdown, err := t.Breakdown(ctx, days)
	if err != nil {
		return nil, err
	}
	return computeEfficiency(days, summary.Totals, breakdown.Models), nil
}

// computeEfficiency is the pure half of the efficiency report, split out so
// the suggestion triggers are testable without a database.
func computeEfficiency(days int, totals Totals, models []ModelRow) *Efficiency {
	eff := &Efficiency{PeriodDays: days}

	if totals.TotalRequests == 0 || totals.TotalTokens == 0 {
		eff.NoData = true
		eff.Suggestions = []string{suggestionNoData}
		return eff
	}

	eff.CostPerRequest = totals.TotalCost / float64(totals.TotalRequests)
	eff.CostPerToken = totals.TotalCost / float64(totals.TotalTokens)
	eff.TokensPerRequest = float64(totals.TotalTokens) / float64(totals.TotalRequests)

	for _, m := range models {
		if m.Requests == 0 || m.Tokens == 0 {
			continue
		}
		eff.Models = append(eff.Models, ModelEfficiency{
			Model:              m.Model,
			Provider:           m.Provider,
			CostPerRequest:     m.Cost / float64(m.Requests),
			CostPerToken:       m.Cost / float64(m.Tokens),
			RequestsPercentage: float64(m.Requests) / float64(totals.TotalRequests) * 100,
		})
	}

	if totals.TotalCost > highSpendThreshold {
		eff.Suggestions = append(eff.Suggestions, suggestionCheaperModel)
	}
	if eff.TokensPerRequest > highTokensPerRequest {
		eff.Suggestions = append(eff.Suggestions, suggestionTrimPrompts)
	}
	return eff
}

// Export renders the trailing window's summary as JSON or CSV.
func (t *Tracker) Export(ctx context.Context, format string, days int) (string, error) {
	summary, err := t.Summary(ctx, days)
	if err != nil {
		return "", err
	}

	switch format {
	case "csv":
		return exportCSV(summary), nil
	case "json":
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportCSV(summary *Summary) string {
	lines := []string{"Date,Requests,Tokens,Cost,AvgTime"}
	for _, day := range summary.Daily {
		lines = append(lines, fmt.Sprintf("%s,%d,%d,%.6f,%.3f",
			day.Date, day.Requests, day.Tokens, day.Cost, day.AvgTime))
	}
	return strings.Join(lines, "\n")
}
