package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docdash/internal/tabular"
)

func TestEngine_Answer(t *testing.T) {
	engine := NewEngine(nil)
	table := tabular.Parse("region,revenue\neast,10\nwest,20")

	tests := []struct {
		message string
		text    string
		chart   bool
	}{
		{"what's the average revenue", "The average revenue is 15.00", false},
		{"show me a bar chart", "Here's a bar chart showing revenue by region", true},
		{"count please", "Here are the counts by region:\neast: 1\nwest: 1", false},
		{"line graph", "I couldn't create a line chart. Please specify which columns to use.", false},
		{"hi there", fallbackText, false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			resp := engine.Answer(tt.message, table)
			assert.Equal(t, tt.text, resp.Text)
			assert.Equal(t, tt.chart, resp.Visualization != nil)
		})
	}
}

func TestEngine_MissingResponderFallsBack(t *testing.T) {
	r := NewRegistry()
	r.Register(FallbackResponder{})
	engine := NewEngine(r)

	resp := engine.Answer("what's the average", tabular.Parse("v\n1"))
	assert.Equal(t, fallbackText, resp.Text)
}

func TestEngine_EmptyRegistry(t *testing.T) {
	engine := NewEngine(NewRegistry())

	resp := engine.Answer("count", tabular.Parse("v\n1"))
	assert.Equal(t, fallbackText, resp.Text)
}
