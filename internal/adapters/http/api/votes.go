package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/nameswap/internal/app"
	"github.com/okian/nameswap/internal/domain/model"
)

// VoteDependencies defines the interface for pair and vote operations.
type VoteDependencies interface {
	NextPair(ctx context.Context, c model.Category) (model.Item, model.Item, error)
	CastVote(ctx context.Context, b service.Ballot) (model.Vote, error)
}

// VotesHandler handles pair and vote requests.
type VotesHandler struct {
	deps VoteDependencies
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps VoteDependencies) *VotesHandler {
	return &VotesHandler{deps: deps}
}

type pairResponse struct {
	Category model.Category `json:"category"`
	First    model.Item     `json:"first"`
	Second   model.Item     `json:"second"`
}

// voteRequest mirrors the OpenAPI schema for POST /votes.
type voteRequest struct {
	SubmissionID string `json:"submission_id"`
	FirstID      string `json:"first_id"`
	SecondID     string `json:"second_id"`
	Outcome      string `json:"outcome"`
	GroupID      string `json:"group_id"`
}

func (v voteRequest) ballot(voter string) (service.Ballot, error) {
	switch {
	case strings.TrimSpace(v.FirstID) == "":
		return service.Ballot{}, errors.New("missing first_id")
	case strings.TrimSpace(v.SecondID) == "":
		return service.Ballot{}, errors.New("missing second_id")
	case strings.TrimSpace(v.Outcome) == "":
		return service.Ballot{}, errors.New("missing outcome")
	}
	outcome, err := model.ParseOutcome(v.Outcome)
	if err != nil {
		return service.Ballot{}, err
	}
	return service.Ballot{
		SubmissionID: strings.TrimSpace(v.SubmissionID),
		VoterID:      voter,
		ItemID1:      v.FirstID,
		ItemID2:      v.SecondID,
		Outcome:      outcome,
		GroupID:      strings.TrimSpace(v.GroupID),
	}, nil
}

// HandleGetPair handles GET /pair?category=boy requests.
func (h *VotesHandler) HandleGetPair(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pair"
	c, err := model.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	first, second, err := h.deps.NextPair(r.Context(), c)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, pairResponse{Category: c, First: first, Second: second})
}

// HandlePostVote handles POST /votes requests.
func (h *VotesHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_vote"
	var req voteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	b, err := req.ballot(voterID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	v, err := h.deps.CastVote(r.Context(), b)
	if errors.Is(err, service.ErrDuplicateSubmission) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}
