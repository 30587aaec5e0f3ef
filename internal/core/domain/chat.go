package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// ChatRole identifies who authored a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChartType is the kind of chart a front end should render
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartScatter ChartType = "scatter"
)

// ChatRequest is a question about a document
// @Description Chat question about an uploaded CSV document
type ChatRequest struct {
	Message string `json:"message" example:"what's the average revenue"`
}

// Validate checks that a message is present
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrInvalidInput
	}
	return nil
}

// ChatResponse is the answer to a ChatRequest
// @Description Text answer with an optional chart descriptor
type ChatResponse struct {
	Text          string         `json:"text" example:"The average revenue is 15.00"`
	Visualization *Visualization `json:"visualization,omitempty"`
}

// Visualization describes a chart without requiring the client to re-derive it
type Visualization struct {
	Type   ChartType   `json:"type"`
	Data   interface{} `json:"data"`
	Config ChartConfig `json:"config"`
}

// ChartConfig binds chart axes to data point fields
type ChartConfig struct {
	XAxis string `json:"xAxis"`
	YAxis string `json:"yAxis"`
	Name  string `json:"name,omitempty"`
}

// BarPoint is one aggregated bar
type BarPoint struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// MarshalJSON writes a non-finite total as null
func (p BarPoint) MarshalJSON() ([]byte, error) {
	out := struct {
		Category string   `json:"category"`
		Value    *float64 `json:"value"`
	}{Category: p.Category}
	if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
		out.Value = &p.Value
	}
	return json.Marshal(out)
}

// LinePoint is one row of a line chart. Value is nil when the cell is not a finite number.
type LinePoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// ScatterPoint is one row of a scatter plot. Nil coordinates are cells without a finite number.
type ScatterPoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// ChatMessage is one entry of a document's conversation history
type ChatMessage struct {
	ID            string         `json:"id"`
	DocumentID    string         `json:"document_id"`
	Role          ChatRole       `json:"role"`
	Text          string         `json:"text"`
	Visualization *Visualization `json:"visualization,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
