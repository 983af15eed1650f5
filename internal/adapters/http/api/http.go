// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/nameswap/internal/adapters/repository"
	service "github.com/okian/nameswap/internal/app"
	"github.com/okian/nameswap/internal/domain/groups"
	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/domain/sampler"
	"github.com/okian/nameswap/internal/domain/scope"
	"github.com/okian/nameswap/internal/domain/votelog"
)

// VoterHeader carries the caller's opaque identity. Requests without it act
// as the installation user.
const VoterHeader = "X-Voter-ID"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	VoteDependencies
	RankingsDependencies
	LeaderboardDependencies
	RankDependencies
	GroupDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	votesHandler       *VotesHandler
	rankingsHandler    *RankingsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	groupsHandler      *GroupsHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps
// GET /leaderboard?limit.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		votesHandler:       NewVotesHandler(deps),
		rankingsHandler:    NewRankingsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		groupsHandler:      NewGroupsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /pair", MetricsMiddleware(s.votesHandler.HandleGetPair, "pair"))
	mux.HandleFunc("POST /votes", MetricsMiddleware(s.votesHandler.HandlePostVote, "votes"))

	mux.HandleFunc("GET /rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{item_id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))

	mux.HandleFunc("POST /groups", MetricsMiddleware(s.groupsHandler.HandleCreateGroup, "groups"))
	mux.HandleFunc("GET /groups", MetricsMiddleware(s.groupsHandler.HandleListGroups, "groups"))
	mux.HandleFunc("GET /groups/{id}", MetricsMiddleware(s.groupsHandler.HandleGetGroup, "group"))
	mux.HandleFunc("POST /groups/{id}/join", MetricsMiddleware(s.groupsHandler.HandleJoinGroup, "group_join"))
	mux.HandleFunc("POST /groups/{id}/kick", MetricsMiddleware(s.groupsHandler.HandleKickMember, "group_kick"))
	mux.HandleFunc("GET /current-group", MetricsMiddleware(s.groupsHandler.HandleGetCurrentGroup, "current_group"))
	mux.HandleFunc("PUT /current-group", MetricsMiddleware(s.groupsHandler.HandlePutCurrentGroup, "current_group"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates engine errors to HTTP status codes.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrUnknownCategory),
		errors.Is(err, model.ErrUnknownOutcome),
		errors.Is(err, scope.ErrInvalidScope),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, votelog.ErrInvalidVote),
		errors.Is(err, votelog.ErrSameItem),
		errors.Is(err, groups.ErrInvalidGroup):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrUnknownItem):
		return http.StatusUnprocessableEntity, "unknown_item"
	case errors.Is(err, service.ErrCategoryMismatch):
		return http.StatusUnprocessableEntity, "category_mismatch"
	case errors.Is(err, sampler.ErrInsufficientItems):
		return http.StatusUnprocessableEntity, "insufficient_items"
	case errors.Is(err, ErrNotFound), errors.Is(err, groups.ErrGroupNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, groups.ErrNotAuthorized):
		return http.StatusForbidden, "not_authorized"
	case errors.Is(err, groups.ErrNotMember):
		return http.StatusForbidden, "not_member"
	case errors.Is(err, groups.ErrAlreadyMember):
		return http.StatusConflict, "already_member"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// voterID returns the caller identity, empty for the installation user.
func voterID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(VoterHeader))
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
