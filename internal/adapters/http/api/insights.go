package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/carom/internal/domain/form"
	"github.com/okian/carom/internal/domain/monthly"
	"github.com/okian/carom/internal/domain/selector"
	"github.com/okian/carom/internal/domain/stats"
	"github.com/okian/carom/internal/domain/team"
	"github.com/okian/carom/internal/domain/types"
)

// InsightDependencies defines the interface for insight computations.
type InsightDependencies interface {
	Stats(ctx context.Context, userID string, sel selector.Selector) (stats.Full, error)
	Form(ctx context.Context, userID string, n int) (form.Analysis, error)
	TeamIndicators(ctx context.Context, userID string, q types.TeamQuery) (team.Result, error)
	Monthly(ctx context.Context, userID string, sel selector.Selector) ([]monthly.Row, error)
	Insights(ctx context.Context, userID string, sel selector.Selector) (types.Insights, error)
}

// InsightsHandler serves the per-user insight views.
type InsightsHandler struct {
	deps InsightDependencies
	loc  *time.Location
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(deps InsightDependencies, loc *time.Location) *InsightsHandler {
	return &InsightsHandler{deps: deps, loc: loc}
}

// HandleStats handles GET /api/v1/users/{userID}/stats.
func (h *InsightsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_stats"
	sel, err := parseSelector(r.URL.Query(), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.Stats(r.Context(), chi.URLParam(r, "userID"), sel)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleForm handles GET /api/v1/users/{userID}/form?n=.
func (h *InsightsHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_form"
	n, err := intParam(r.URL.Query(), "n", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.Form(r.Context(), chi.URLParam(r, "userID"), n)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleTeam handles GET /api/v1/users/{userID}/team-indicators?n=&minInning=&includeNeutral=.
func (h *InsightsHandler) HandleTeam(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_team_indicators"
	q := r.URL.Query()
	n, err := intParam(q, "n", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	minInning, err := floatParam(q, "minInning", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	includeNeutral, err := boolParam(q, "includeNeutral")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.TeamIndicators(r.Context(), chi.URLParam(r, "userID"), types.TeamQuery{
		N:              n,
		MinInning:      minInning,
		IncludeNeutral: includeNeutral,
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleMonthly handles GET /api/v1/users/{userID}/monthly.
func (h *InsightsHandler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_monthly"
	sel, err := parseSelector(r.URL.Query(), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.Monthly(r.Context(), chi.URLParam(r, "userID"), sel)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleInsights handles GET /api/v1/users/{userID}/insights.
func (h *InsightsHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_insights"
	sel, err := parseSelector(r.URL.Query(), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.Insights(r.Context(), chi.URLParam(r, "userID"), sel)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
