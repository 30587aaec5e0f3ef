package analysis

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/tabular"
)

// Responder answers one intent over a table
type Responder interface {
	// Intent returns the intent this responder handles
	Intent() Intent

	// Priority orders responders registered for the same intent (higher wins)
	Priority() int

	// Respond builds the answer. Missing columns yield an apology, never an error.
	Respond(t *tabular.Table) domain.ChatResponse
}

const fallbackText = "I can help you analyze this data. You can ask for charts, averages, counts, or other analysis."

// BarChartResponder sums the first numeric column grouped by the first categorical column
type BarChartResponder struct{}

func (BarChartResponder) Intent() Intent { return IntentBarChart }
func (BarChartResponder) Priority() int  { return 50 }

func (BarChartResponder) Respond(t *tabular.Table) domain.ChatResponse {
	num, okNum := firstNumericColumn(t)
	cat, okCat := firstCategoricalColumn(t)
	if !okNum || !okCat {
		return domain.ChatResponse{Text: "I couldn't create a bar chart. Please specify which columns to use."}
	}

	points := make([]domain.BarPoint, 0)
	index := make(map[string]int)
	for _, row := range t.Rows {
		category := row[cat]
		i, seen := index[category]
		if !seen {
			i = len(points)
			index[category] = i
			points = append(points, domain.BarPoint{Category: category})
		}
		if v, ok := ParseNumber(row[num]); ok {
			points[i].Value += v
		}
	}

	return domain.ChatResponse{
		Text: fmt.Sprintf("Here's a bar chart showing %s by %s", num, cat),
		Visualization: &domain.Visualization{
			Type:   domain.ChartBar,
			Data:   points,
			Config: domain.ChartConfig{XAxis: "category", YAxis: "value"},
		},
	}
}

// LineChartResponder plots the first numeric column against the first date column
type LineChartResponder struct{}

func (LineChartResponder) Intent() Intent { return IntentLineChart }
func (LineChartResponder) Priority() int  { return 50 }

func (LineChartResponder) Respond(t *tabular.Table) domain.ChatResponse {
	date, okDate := firstDateColumn(t)
	num, okNum := firstNumericColumn(t)
	if !okDate || !okNum {
		return domain.ChatResponse{Text: "I couldn't create a line chart. Please specify which columns to use."}
	}

	points := make([]domain.LinePoint, 0, t.Len())
	for _, row := range t.Rows {
		points = append(points, domain.LinePoint{Date: row[date], Value: cellValue(row, num)})
	}

	return domain.ChatResponse{
		Text: fmt.Sprintf("Here's a line chart showing %s over time", num),
		Visualization: &domain.Visualization{
			Type:   domain.ChartLine,
			Data:   points,
			Config: domain.ChartConfig{XAxis: "date", YAxis: "value"},
		},
	}
}

// ScatterChartResponder pairs the first two numeric columns
type ScatterChartResponder struct{}

func (ScatterChartResponder) Intent() Intent { return IntentScatterChart }
func (ScatterChartResponder) Priority() int  { return 50 }

func (ScatterChartResponder) Respond(t *tabular.Table) domain.ChatResponse {
	cols := numericColumns(t)
	if len(cols) < 2 {
		return domain.ChatResponse{Text: "I couldn't create a scatter plot. I need two numeric columns."}
	}
	x, y := cols[0], cols[1]

	points := make([]domain.ScatterPoint, 0, t.Len())
	for _, row := range t.Rows {
		points = append(points, domain.ScatterPoint{X: cellValue(row, x), Y: cellValue(row, y)})
	}

	return domain.ChatResponse{
		Text: fmt.Sprintf("Here's a scatter plot comparing %s and %s", x, y),
		Visualization: &domain.Visualization{
			Type:   domain.ChartScatter,
			Data:   points,
			Config: domain.ChartConfig{XAxis: "x", YAxis: "y", Name: "Data Points"},
		},
	}
}

// AverageResponder reports the mean of the first numeric column.
// Unparsable cells add nothing to the sum but still count as rows.
type AverageResponder struct{}

func (AverageResponder) Intent() Intent { return IntentAverage }
func (AverageResponder) Priority() int  { return 50 }

func (AverageResponder) Respond(t *tabular.Table) domain.ChatResponse {
	col, ok := firstNumericColumn(t)
	if !ok {
		return domain.ChatResponse{Text: "I couldn't find any numeric columns to calculate an average."}
	}
	avg := columnSum(t.Rows, col) / float64(t.Len())
	return domain.ChatResponse{Text: fmt.Sprintf("The average %s is %s", col, formatAverage(avg))}
}

// CountResponder counts rows, per category when a categorical column exists
type CountResponder struct{}

func (CountResponder) Intent() Intent { return IntentCount }
func (CountResponder) Priority() int  { return 50 }

func (CountResponder) Respond(t *tabular.Table) domain.ChatResponse {
	cat, ok := firstCategoricalColumn(t)
	if !ok {
		return domain.ChatResponse{Text: fmt.Sprintf("The total number of records is %d", t.Len())}
	}

	var order []string
	counts := make(map[string]int)
	for _, row := range t.Rows {
		category := row[cat]
		if _, seen := counts[category]; !seen {
			order = append(order, category)
		}
		counts[category]++
	}

	lines := make([]string, len(order))
	for i, category := range order {
		lines[i] = fmt.Sprintf("%s: %d", category, counts[category])
	}
	return domain.ChatResponse{Text: fmt.Sprintf("Here are the counts by %s:\n%s", cat, strings.Join(lines, "\n"))}
}

// FallbackResponder returns static help text
type FallbackResponder struct{}

func (FallbackResponder) Intent() Intent { return IntentFallback }
func (FallbackResponder) Priority() int  { return 1 }

func (FallbackResponder) Respond(*tabular.Table) domain.ChatResponse {
	return domain.ChatResponse{Text: fallbackText}
}
