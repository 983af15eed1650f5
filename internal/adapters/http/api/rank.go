package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/nameswap/internal/app"
)

// RankDependencies looks up one item on its category's global board.
type RankDependencies interface {
	Rank(ctx context.Context, itemID string) (Entry, error)
}

// RankHandler serves the global position of a single name.
type RankHandler struct {
	board RankDependencies
}

func NewRankHandler(board RankDependencies) *RankHandler {
	return &RankHandler{board: board}
}

// HandleGetRank answers GET /rank/{item_id}. Ids outside the catalogue are
// a 404 here rather than the 422 used for ballots.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	id := r.PathValue("item_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.board.Rank(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrUnknownItem):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case err != nil:
		writeFailure(w, op, err)
	default:
		writeJSON(w, http.StatusOK, entry)
	}
}
