package handler

import (
	"log/slog"
	"net/http"

	tabsvc "tabnest/internal/domain/services/tabs"
	"tabnest/internal/httputil"
)

// GroupHandler handles tab group HTTP requests
type GroupHandler struct {
	groupService tabsvc.GroupService
	logger       *slog.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService tabsvc.GroupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		logger:       logger,
	}
}

// ListGroups lists the caller's tab groups
// GET /api/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	groups, err := h.groupService.ListGroups(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, groups)
}

// CreateGroup creates a new tab group
// POST /api/groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req tabsvc.CreateGroupRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.UserID = userID

	group, err := h.groupService.CreateGroup(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, group)
}

// GetGroup retrieves a tab group
// GET /api/groups/{id}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	groupID, err := pathGroupID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	group, err := h.groupService.GetGroup(r.Context(), userID, groupID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, group)
}
