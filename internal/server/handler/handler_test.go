package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/engine"
)

type fakeOppCache struct {
	opps []domain.Opportunity
	err  error
}

func (f *fakeOppCache) SetScan(context.Context, string, []domain.Opportunity, time.Duration) error {
	return nil
}

func (f *fakeOppCache) Latest(context.Context) ([]domain.Opportunity, error) {
	return f.opps, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func listResponse(t *testing.T, rec *httptest.ResponseRecorder) (int, []domain.Opportunity) {
	t.Helper()
	var body struct {
		Opportunities []domain.Opportunity `json:"opportunities"`
		Count         int                  `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body.Count, body.Opportunities
}

func TestListOpportunitiesFromCache(t *testing.T) {
	cache := &fakeOppCache{opps: []domain.Opportunity{
		{ID: "a", Token: "BTC", ProfitPct: 2.4},
		{ID: "b", Token: "ETH", ProfitPct: 1.1},
	}}
	h := NewOpportunityHandler(cache, nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	rec := httptest.NewRecorder()
	h.ListOpportunities(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	count, opps := listResponse(t, rec)
	if count != 2 || len(opps) != 2 {
		t.Errorf("count = %d, opps = %d", count, len(opps))
	}
	if opps[0].Token != "BTC" {
		t.Errorf("first token = %q", opps[0].Token)
	}
}

func TestListOpportunitiesLimit(t *testing.T) {
	cache := &fakeOppCache{opps: []domain.Opportunity{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	h := NewOpportunityHandler(cache, nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities?limit=1", nil)
	rec := httptest.NewRecorder()
	h.ListOpportunities(rec, req)

	count, _ := listResponse(t, rec)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestListOpportunitiesFallsBackOnCacheMiss(t *testing.T) {
	cache := &fakeOppCache{err: domain.ErrCacheMiss}
	fallback := func() []domain.Opportunity {
		return []domain.Opportunity{{ID: "local", Token: "SOL"}}
	}
	h := NewOpportunityHandler(cache, fallback, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	rec := httptest.NewRecorder()
	h.ListOpportunities(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	count, opps := listResponse(t, rec)
	if count != 1 || opps[0].ID != "local" {
		t.Errorf("fallback not used: count=%d opps=%v", count, opps)
	}
}

func TestListOpportunitiesEmptyWithoutSources(t *testing.T) {
	h := NewOpportunityHandler(nil, nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	rec := httptest.NewRecorder()
	h.ListOpportunities(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	count, _ := listResponse(t, rec)
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestTriggerScanSendsOnChannel(t *testing.T) {
	ch := make(chan struct{}, 1)
	h := NewScanHandler(discardLogger()).WithTriggerChannel(ch)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	rec := httptest.NewRecorder()
	h.TriggerScan(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	select {
	case <-ch:
	default:
		t.Error("no trigger sent on channel")
	}

	// A second trigger while the first is unconsumed must not block.
	ch <- struct{}{}
	rec = httptest.NewRecorder()
	h.TriggerScan(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

func TestGetStatsIncludesLastScan(t *testing.T) {
	last := &engine.ScanResult{
		ScanID:      "scan-1",
		StartedAt:   time.Now().Add(-time.Minute),
		Duration:    120 * time.Millisecond,
		CyclesFound: 3,
		Opportunities: []domain.Opportunity{
			{ID: "a"}, {ID: "b"},
		},
	}
	h := NewStatsHandler("serve", time.Now().Add(-time.Hour), func() *engine.ScanResult { return last })

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["mode"] != "serve" {
		t.Errorf("mode = %v", body["mode"])
	}
	lastScan, ok := body["last_scan"].(map[string]any)
	if !ok {
		t.Fatalf("last_scan missing: %v", body)
	}
	if lastScan["scan_id"] != "scan-1" {
		t.Errorf("scan_id = %v", lastScan["scan_id"])
	}
	if lastScan["opportunities"] != float64(2) {
		t.Errorf("opportunities = %v", lastScan["opportunities"])
	}
}

func TestGetStatsBeforeFirstScan(t *testing.T) {
	h := NewStatsHandler("scan", time.Now(), func() *engine.ScanResult { return nil })

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := body["last_scan"]; ok {
		t.Error("last_scan should be absent before the first scan")
	}
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}
