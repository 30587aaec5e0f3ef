package analysis

import (
	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/tabular"
)

// Engine classifies a message and dispatches it to a responder
type Engine struct {
	registry *Registry
}

// NewEngine creates an engine. A nil registry uses DefaultRegistry.
func NewEngine(registry *Registry) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Engine{registry: registry}
}

// Answer responds to message over t. Intents without a registered responder
// get the fallback text.
func (e *Engine) Answer(message string, t *tabular.Table) domain.ChatResponse {
	intent := Classify(message)

	responder := e.registry.Get(intent)
	if responder == nil {
		responder = e.registry.Get(IntentFallback)
	}
	if responder == nil {
		return domain.ChatResponse{Text: fallbackText}
	}
	return responder.Respond(t)
}
