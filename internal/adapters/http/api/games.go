package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/carom/internal/domain/model"
	"github.com/okian/carom/internal/domain/selector"
	"github.com/okian/carom/internal/domain/types"
)

// GameDependencies defines the interface for game operations.
type GameDependencies interface {
	AddGame(ctx context.Context, userID string, in types.NewGame) (model.Game, bool, error)
	DeleteGame(ctx context.Context, userID, gameID string) error
	ListGames(ctx context.Context, userID string, sel selector.Selector) ([]model.Game, error)
}

// GamesHandler handles game requests.
type GamesHandler struct {
	deps GameDependencies
	loc  *time.Location
}

// NewGamesHandler creates a new games handler. loc reads date-only query values.
func NewGamesHandler(deps GameDependencies, loc *time.Location) *GamesHandler {
	return &GamesHandler{deps: deps, loc: loc}
}

type gameResponse struct {
	Game      model.Game `json:"game"`
	Duplicate bool       `json:"duplicate"`
}

// HandleList handles GET /api/v1/users/{userID}/games?select=...
func (h *GamesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_games"
	sel, err := parseSelector(r.URL.Query(), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	games, err := h.deps.ListGames(r.Context(), chi.URLParam(r, "userID"), sel)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// HandleAdd handles POST /api/v1/users/{userID}/games. A replayed client id
// answers 200 with the stored game instead of 201.
func (h *GamesHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_game"
	var req types.NewGame
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	g, created, err := h.deps.AddGame(r.Context(), chi.URLParam(r, "userID"), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, gameResponse{Game: g, Duplicate: !created})
}

// HandleDelete handles DELETE /api/v1/users/{userID}/games/{gameID}.
func (h *GamesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_game"
	if err := h.deps.DeleteGame(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "gameID")); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
