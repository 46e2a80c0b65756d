package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
)

type stubInjector struct {
	name string
}

func (s stubInjector) Name() string { return s.name }
func (s stubInjector) AddEdges(context.Context, *graph.Graph, *domain.PriceSnapshot) (int, error) {
	return 0, nil
}

func TestRegistryPreservesPipelineOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"dex_cex", "cross_exchange", "triangular", "wrapped_token", "statistical"} {
		r.Register(stubInjector{name: name})
	}
	got := r.List()
	want := []string{"dex_cex", "cross_exchange", "triangular", "wrapped_token", "statistical"}
	if len(got) != len(want) {
		t.Fatalf("expected %d injectors, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistryReplaceKeepsPosition(t *testing.T) {
	r := NewRegistry()
	r.Register(stubInjector{name: "a"})
	r.Register(stubInjector{name: "b"})
	r.Register(stubInjector{name: "a"})
	got := r.List()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("replace changed pipeline order: %v", got)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); err == nil {
		t.Fatal("expected error for unregistered injector")
	}
}

func TestRegistryRecordRun(t *testing.T) {
	r := NewRegistry()
	r.Register(stubInjector{name: "dex_cex"})
	r.RecordRun("dex_cex", 7, nil)
	r.RecordRun("dex_cex", 3, errors.New("boom"))

	infos := r.ListInfo()
	if len(infos) != 1 {
		t.Fatalf("expected 1 info, got %d", len(infos))
	}
	info := infos[0]
	if info.EdgesAdded != 3 {
		t.Errorf("edges added = %d, want last run's 3", info.EdgesAdded)
	}
	if info.ErrorCount != 1 {
		t.Errorf("error count = %d, want 1", info.ErrorCount)
	}
	if info.LastRun == nil {
		t.Error("last run time not recorded")
	}
}
