package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// OpportunityHandler serves the latest scan's ranked opportunities.
type OpportunityHandler struct {
	cache  domain.OpportunityCache // may be nil
	last   func() []domain.Opportunity
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler. cache is preferred;
// last is the in-process fallback when the cache is cold or absent. Either
// may be nil.
func NewOpportunityHandler(cache domain.OpportunityCache, last func() []domain.Opportunity, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{cache: cache, last: last, logger: logger}
}

// ListOpportunities responds with the latest ranked opportunities. An empty
// list is a normal answer, not an error.
// GET /api/opportunities
func (h *OpportunityHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	log := logHandler(h.logger, "opportunities")

	opps, err := h.latest(r)
	if err != nil {
		log.ErrorContext(r.Context(), "failed to load opportunities",
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load opportunities")
		return
	}

	if limit := parseLimit(r); limit > 0 && limit < len(opps) {
		opps = opps[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"opportunities": opps,
		"count":         len(opps),
	})
}

func (h *OpportunityHandler) latest(r *http.Request) ([]domain.Opportunity, error) {
	if h.cache != nil {
		opps, err := h.cache.Latest(r.Context())
		switch {
		case err == nil:
			return opps, nil
		case errors.Is(err, domain.ErrCacheMiss):
			// fall through to the in-process copy
		default:
			return nil, err
		}
	}

	if h.last != nil {
		return h.last(), nil
	}
	return []domain.Opportunity{}, nil
}

// parseLimit reads the optional limit query parameter, 0 meaning unlimited.
func parseLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
