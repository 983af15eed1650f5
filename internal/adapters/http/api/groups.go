package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/nameswap/internal/domain/model"
)

// GroupDependencies defines the interface for group membership operations.
type GroupDependencies interface {
	CreateGroup(ctx context.Context, label, ownerID string) (model.Group, error)
	JoinGroup(ctx context.Context, groupID, userID string) (bool, error)
	KickMember(ctx context.Context, groupID, actorID, targetID string) (bool, error)
	GroupsFor(ctx context.Context, userID string) ([]model.Group, error)
	Group(ctx context.Context, groupID string) (model.Group, error)
	SetCurrentGroup(ctx context.Context, groupID string) error
	CurrentGroup() string
	UserID() string
}

// GroupsHandler handles group requests. The caller is identified by the
// X-Voter-ID header.
type GroupsHandler struct {
	deps GroupDependencies
}

// NewGroupsHandler creates a new groups handler.
func NewGroupsHandler(deps GroupDependencies) *GroupsHandler {
	return &GroupsHandler{deps: deps}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

type kickRequest struct {
	MemberID string `json:"member_id"`
}

type currentGroupRequest struct {
	GroupID string `json:"group_id"`
}

type currentGroupResponse struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

// HandleCreateGroup handles POST /groups requests.
func (h *GroupsHandler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_group"
	var req createGroupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	g, err := h.deps.CreateGroup(r.Context(), req.Name, voterID(r))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// HandleListGroups handles GET /groups requests: the caller's groups.
func (h *GroupsHandler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_groups"
	gs, err := h.deps.GroupsFor(r.Context(), voterID(r))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if gs == nil {
		gs = []model.Group{}
	}
	writeJSON(w, http.StatusOK, gs)
}

// HandleGetGroup handles GET /groups/{id} requests.
func (h *GroupsHandler) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_group"
	g, err := h.deps.Group(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleJoinGroup handles POST /groups/{id}/join requests.
func (h *GroupsHandler) HandleJoinGroup(w http.ResponseWriter, r *http.Request) {
	const op = "api.join_group"
	id := r.PathValue("id")
	if _, err := h.deps.JoinGroup(r.Context(), id, voterID(r)); err != nil {
		writeFailure(w, op, err)
		return
	}
	h.writeGroup(w, r, op, id)
}

// HandleKickMember handles POST /groups/{id}/kick requests. Only the owner
// may kick.
func (h *GroupsHandler) HandleKickMember(w http.ResponseWriter, r *http.Request) {
	const op = "api.kick_member"
	var req kickRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.MemberID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing member_id")))
		return
	}
	id := r.PathValue("id")
	if _, err := h.deps.KickMember(r.Context(), id, voterID(r), req.MemberID); err != nil {
		writeFailure(w, op, err)
		return
	}
	h.writeGroup(w, r, op, id)
}

func (h *GroupsHandler) writeGroup(w http.ResponseWriter, r *http.Request, op, id string) {
	g, err := h.deps.Group(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleGetCurrentGroup handles GET /current-group requests.
func (h *GroupsHandler) HandleGetCurrentGroup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentGroupResponse{GroupID: h.deps.CurrentGroup(), UserID: h.deps.UserID()})
}

// HandlePutCurrentGroup handles PUT /current-group requests. An empty
// group_id leaves group mode.
func (h *GroupsHandler) HandlePutCurrentGroup(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_current_group"
	var req currentGroupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetCurrentGroup(r.Context(), strings.TrimSpace(req.GroupID)); err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, currentGroupResponse{GroupID: h.deps.CurrentGroup(), UserID: h.deps.UserID()})
}
