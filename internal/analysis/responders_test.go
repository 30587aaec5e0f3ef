package analysis

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/tabular"
)

func ptr(v float64) *float64 { return &v }

func TestBarChartResponder(t *testing.T) {
	table := tabular.Parse("region,sales\neast,5\neast,3\nwest,2")

	resp := BarChartResponder{}.Respond(table)

	assert.Equal(t, "Here's a bar chart showing sales by region", resp.Text)
	require.NotNil(t, resp.Visualization)
	assert.Equal(t, domain.ChartBar, resp.Visualization.Type)
	assert.Equal(t, domain.ChartConfig{XAxis: "category", YAxis: "value"}, resp.Visualization.Config)

	want := []domain.BarPoint{{Category: "east", Value: 8}, {Category: "west", Value: 2}}
	if diff := cmp.Diff(want, resp.Visualization.Data); diff != "" {
		t.Errorf("bar data mismatch (-want +got):\n%s", diff)
	}
}

func TestBarChartResponder_SumMatchesColumnSum(t *testing.T) {
	table := tabular.Parse("team,points\na,1\nb,2\na,3\nc,oops\nb,4")

	resp := BarChartResponder{}.Respond(table)
	points := resp.Visualization.Data.([]domain.BarPoint)

	var total float64
	for _, p := range points {
		total += p.Value
	}
	assert.Equal(t, columnSum(table.Rows, "points"), total)
	assert.Equal(t, []string{"a", "b", "c"}, []string{points[0].Category, points[1].Category, points[2].Category})
}

func TestBarChartResponder_MissingColumns(t *testing.T) {
	for _, input := range []string{"a,b\n1,2", "a,b\nx,y", "a\n"} {
		resp := BarChartResponder{}.Respond(tabular.Parse(input))
		assert.Equal(t, "I couldn't create a bar chart. Please specify which columns to use.", resp.Text)
		assert.Nil(t, resp.Visualization)
	}
}

func TestLineChartResponder(t *testing.T) {
	table := tabular.Parse("date,revenue\n2024-01-01,10\n2024-01-02,n/a\n2024-01-03,30")

	resp := LineChartResponder{}.Respond(table)

	assert.Equal(t, "Here's a line chart showing revenue over time", resp.Text)
	require.NotNil(t, resp.Visualization)
	assert.Equal(t, domain.ChartLine, resp.Visualization.Type)

	want := []domain.LinePoint{
		{Date: "2024-01-01", Value: ptr(10)},
		{Date: "2024-01-02", Value: nil},
		{Date: "2024-01-03", Value: ptr(30)},
	}
	if diff := cmp.Diff(want, resp.Visualization.Data); diff != "" {
		t.Errorf("line data mismatch (-want +got):\n%s", diff)
	}

	raw, err := json.Marshal(resp.Visualization)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "line",
		"data": [
			{"date": "2024-01-01", "value": 10},
			{"date": "2024-01-02", "value": null},
			{"date": "2024-01-03", "value": 30}
		],
		"config": {"xAxis": "date", "yAxis": "value"}
	}`, string(raw))
}

func TestLineChartResponder_NoDateColumn(t *testing.T) {
	resp := LineChartResponder{}.Respond(tabular.Parse("month,revenue\njan,10"))
	assert.Equal(t, "I couldn't create a line chart. Please specify which columns to use.", resp.Text)
	assert.Nil(t, resp.Visualization)
}

func TestScatterChartResponder(t *testing.T) {
	table := tabular.Parse("name,height,weight\nann,170,60\nbob,,80\ncid,n/a,Infinity")

	resp := ScatterChartResponder{}.Respond(table)

	assert.Equal(t, "Here's a scatter plot comparing height and weight", resp.Text)
	require.NotNil(t, resp.Visualization)
	assert.Equal(t, domain.ChartConfig{XAxis: "x", YAxis: "y", Name: "Data Points"}, resp.Visualization.Config)

	want := []domain.ScatterPoint{
		{X: ptr(170), Y: ptr(60)},
		{X: ptr(0), Y: ptr(80)},
		{X: nil, Y: nil},
	}
	if diff := cmp.Diff(want, resp.Visualization.Data); diff != "" {
		t.Errorf("scatter data mismatch (-want +got):\n%s", diff)
	}
}

func TestScatterChartResponder_NeedsTwoNumericColumns(t *testing.T) {
	resp := ScatterChartResponder{}.Respond(tabular.Parse("name,height\nann,170"))
	assert.Equal(t, "I couldn't create a scatter plot. I need two numeric columns.", resp.Text)
	assert.Nil(t, resp.Visualization)
}

func TestAverageResponder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "revenue\n10\n20", "The average revenue is 15.00"},
		{"rounds to two decimals", "v\n1\n2\n2", "The average v is 1.67"},
		{"unparsable counts as row", "v\n10\nx\n20", "The average v is 10.00"},
		{"first numeric column", "name,a,b\nx,1,100\ny,3,200", "The average a is 2.00"},
		{"blank cell is zero", "k,v\na,\nb,6", "The average v is 3.00"},
		{"hex cell", "v\n0x10\n0b10", "The average v is 9.00"},
		{"infinite", "v\nInfinity\n1", "The average v is Infinity"},
		{"no numeric column", "name\nann", "I couldn't find any numeric columns to calculate an average."},
		{"no rows", "v\n", "I couldn't find any numeric columns to calculate an average."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := AverageResponder{}.Respond(tabular.Parse(tt.input))
			assert.Equal(t, tt.want, resp.Text)
			assert.Nil(t, resp.Visualization)
		})
	}
}

func TestCountResponder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"by category", "region,sales\neast,5\nwest,2\neast,3", "Here are the counts by region:\neast: 2\nwest: 1"},
		{"first seen order", "c\nz\na\nz\nm", "Here are the counts by c:\nz: 2\na: 1\nm: 1"},
		{"numeric only", "a,b\n1,2\n3,4\n5,6", "The total number of records is 3"},
		{"no rows", "a\n", "The total number of records is 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := CountResponder{}.Respond(tabular.Parse(tt.input))
			assert.Equal(t, tt.want, resp.Text)
		})
	}
}

func TestFallbackResponder(t *testing.T) {
	resp := FallbackResponder{}.Respond(nil)
	assert.Equal(t, "I can help you analyze this data. You can ask for charts, averages, counts, or other analysis.", resp.Text)
	assert.Nil(t, resp.Visualization)
}

func TestBarChartResponder_InfiniteTotalEncodesNull(t *testing.T) {
	table := tabular.Parse("region,sales\neast,Infinity\neast,-Infinity\nwest,2")

	resp := BarChartResponder{}.Respond(table)
	require.NotNil(t, resp.Visualization)

	data, err := json.Marshal(resp.Visualization.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"category":"east","value":null},{"category":"west","value":2}]`, string(data))
}
