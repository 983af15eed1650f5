package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/nameswap/internal/domain/model"
)

const defaultLeaderboardLimit = 10

// LeaderboardDependencies reads the head of a category's global board.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, c model.Category, n int) ([]Entry, error)
}

// LeaderboardHandler serves the live global board. Scoped boards go through
// /rankings instead.
type LeaderboardHandler struct {
	board    LeaderboardDependencies
	maxLimit int
}

func NewLeaderboardHandler(board LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{board: board, maxLimit: maxLimit}
}

// HandleGetLeaderboard answers GET /leaderboard?category=girl&limit=N.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	q := r.URL.Query()
	c, err := model.ParseCategory(q.Get("category"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	limit, code := parseLimit(q.Get("limit"), h.maxLimit)
	if code != "" {
		writeError(w, http.StatusBadRequest, code, NewKind(op, ErrBadRequest))
		return
	}

	entries, err := h.board.TopN(r.Context(), c, limit)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// parseLimit returns the requested limit, or the error code explaining why
// it was rejected.
func parseLimit(raw string, maxLimit int) (int, string) {
	limit := defaultLeaderboardLimit
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, "bad_request"
		}
		limit = n
	}
	if limit > maxLimit {
		return 0, "limit_exceeded"
	}
	return limit, ""
}
