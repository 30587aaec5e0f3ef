// Package analysis answers questions about tabular data by keyword matching.
package analysis

import "strings"

// Intent identifies which responder answers a message
type Intent string

const (
	IntentBarChart     Intent = "bar_chart"
	IntentLineChart    Intent = "line_chart"
	IntentScatterChart Intent = "scatter_chart"
	IntentAverage      Intent = "average"
	IntentCount        Intent = "count"
	IntentFallback     Intent = "fallback"
)

// Classify maps a message to an intent. The first matching rule wins:
// chart/graph with a subtype, then average/mean, then count.
// A chart request without bar, line or scatter falls through to the later rules.
func Classify(message string) Intent {
	m := strings.ToLower(message)

	if strings.Contains(m, "chart") || strings.Contains(m, "graph") {
		switch {
		case strings.Contains(m, "bar"):
			return IntentBarChart
		case strings.Contains(m, "line"):
			return IntentLineChart
		case strings.Contains(m, "scatter"):
			return IntentScatterChart
		}
	}

	if strings.Contains(m, "average") || strings.Contains(m, "mean") {
		return IntentAverage
	}
	if strings.Contains(m, "count") {
		return IntentCount
	}
	return IntentFallback
}
