package analysis

import (
	"sort"
	"sync"
)

// Registry holds responders with priority-based selection.
// When multiple responders handle an intent, the highest priority one is used.
type Registry struct {
	mu         sync.RWMutex
	responders []Responder
}

// NewRegistry creates an empty responder registry.
func NewRegistry() *Registry {
	return &Registry{
		responders: make([]Responder, 0),
	}
}

// Register adds a responder.
func (r *Registry) Register(responder Responder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.responders = append(r.responders, responder)
}

// Get returns the best responder for an intent, or nil if none is registered.
func (r *Registry) Get(intent Intent) Responder {
	matches := r.GetAll(intent)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// GetAll returns every responder for an intent, highest priority first.
func (r *Registry) GetAll(intent Intent) []Responder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []Responder
	for _, resp := range r.responders {
		if resp.Intent() == intent {
			matches = append(matches, resp)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})

	return matches
}

// List returns all registered intents, sorted.
func (r *Registry) List() []Intent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[Intent]struct{})
	for _, resp := range r.responders {
		set[resp.Intent()] = struct{}{}
	}

	intents := make([]Intent, 0, len(set))
	for i := range set {
		intents = append(intents, i)
	}
	sort.Slice(intents, func(a, b int) bool { return intents[a] < intents[b] })
	return intents
}

// DefaultRegistry creates a registry with the built-in responders.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(BarChartResponder{})
	r.Register(LineChartResponder{})
	r.Register(ScatterChartResponder{})
	r.Register(AverageResponder{})
	r.Register(CountResponder{})
	r.Register(FallbackResponder{})

	return r
}
