package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/domain/scope"
)

// RankingsDependencies defines the interface for scoped rankings.
type RankingsDependencies interface {
	Rankings(ctx context.Context, sc scope.Scope, c model.Category) (scope.Ranking, error)
	UserID() string
}

// RankingsHandler handles scoped ranking requests.
type RankingsHandler struct {
	deps RankingsDependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

type rankingsResponse struct {
	Category model.Category `json:"category"`
	Scope    string         `json:"scope"`
	Fallback bool           `json:"fallback"`
	Applied  int            `json:"applied"`
	Skipped  int            `json:"skipped"`
	Entries  []Entry        `json:"entries"`
}

// HandleGetRankings handles GET /rankings?category=boy&scope=group&id=G
// requests. A personal scope without an id ranks the caller's own votes.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	q := r.URL.Query()
	c, err := model.ParseCategory(q.Get("category"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	kind, id := strings.ToLower(strings.TrimSpace(q.Get("scope"))), strings.TrimSpace(q.Get("id"))
	if id == "" && (kind == "user" || kind == "personal") {
		if id = voterID(r); id == "" {
			id = h.deps.UserID()
		}
	}
	sc, err := scope.Parse(kind, id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	res, err := h.deps.Rankings(r.Context(), sc, c)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rankingsResponse{
		Category: c,
		Scope:    sc.String(),
		Fallback: res.Fallback,
		Applied:  res.Applied,
		Skipped:  res.Skipped,
		Entries:  rankEntries(res.Items),
	})
}

// rankEntries numbers sorted items. Equal ratings share a rank and the next
// distinct rating skips the shared positions.
func rankEntries(items []model.Item) []Entry {
	out := make([]Entry, len(items))
	for i, it := range items {
		rank := i + 1
		if i > 0 && it.Rating == items[i-1].Rating {
			rank = out[i-1].Rank
		}
		out[i] = Entry{Rank: rank, Item: it}
	}
	return out
}
