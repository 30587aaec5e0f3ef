package analysis

import (
	"testing"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/tabular"
)

type mockResponder struct {
	name     string
	intent   Intent
	priority int
}

func (m *mockResponder) Intent() Intent { return m.intent }
func (m *mockResponder) Priority() int  { return m.priority }
func (m *mockResponder) Respond(*tabular.Table) domain.ChatResponse {
	return domain.ChatResponse{Text: m.name}
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("expected non-nil registry")
	}
	if len(r.List()) != 0 {
		t.Error("expected empty registry")
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockResponder{name: "avg", intent: IntentAverage, priority: 50})

	if r.Get(IntentAverage) == nil {
		t.Fatal("expected to find responder")
	}
	if r.Get(IntentCount) != nil {
		t.Error("expected nil for unregistered intent")
	}
}

func TestRegistry_Get_PrioritySelection(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockResponder{name: "low", intent: IntentCount, priority: 10})
	r.Register(&mockResponder{name: "high", intent: IntentCount, priority: 90})
	r.Register(&mockResponder{name: "medium", intent: IntentCount, priority: 50})

	got := r.Get(IntentCount).Respond(nil).Text
	if got != "high" {
		t.Errorf("expected high priority responder, got %s", got)
	}

	all := r.GetAll(IntentCount)
	if len(all) != 3 {
		t.Fatalf("expected 3 responders, got %d", len(all))
	}
	if all[2].Respond(nil).Text != "low" {
		t.Error("expected lowest priority last")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	want := []Intent{IntentAverage, IntentBarChart, IntentCount, IntentFallback, IntentLineChart, IntentScatterChart}
	got := r.List()
	if len(got) != len(want) {
		t.Fatalf("expected %d intents, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("intent %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 100; i++ {
			r.Register(&mockResponder{intent: IntentCount, priority: i})
		}
		close(done)
	}()

	for i := 0; i < 100; i++ {
		_ = r.Get(IntentCount)
		_ = r.List()
	}
	<-done

	if len(r.GetAll(IntentCount)) != 100 {
		t.Error("expected all responders registered")
	}
}
