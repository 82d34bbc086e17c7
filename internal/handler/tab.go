package handler

import (
	"log/slog"
	"net/http"

	"tabnest/internal/domain/models/tabs"
	tabsvc "tabnest/internal/domain/services/tabs"
	"tabnest/internal/httputil"
)

// TabHandler handles tab HTTP requests
type TabHandler struct {
	tabService tabsvc.TabService
	logger     *slog.Logger
}

// NewTabHandler creates a new tab handler
func NewTabHandler(tabService tabsvc.TabService, logger *slog.Logger) *TabHandler {
	return &TabHandler{
		tabService: tabService,
		logger:     logger,
	}
}

// BulkCreateResponse lists tabs created by one bulk request in pre-order
type BulkCreateResponse struct {
	Tabs  []tabs.Tab `json:"tabs"`
	Count int        `json:"count"`
}

// ReorderResponse is the sibling order after a reorder
type ReorderResponse struct {
	Order []tabs.TabID `json:"order"`
}

// CreateTab creates one tab in a group
// POST /api/groups/{id}/tabs
func (h *TabHandler) CreateTab(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	groupID, err := pathGroupID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req tabsvc.CreateTabRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.UserID = userID
	req.GroupID = groupID

	tab, err := h.tabService.CreateTab(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, tab)
}

// CreateTabs creates a nested batch of tabs
// POST /api/groups/{id}/tabs/bulk
func (h *TabHandler) CreateTabs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	groupID, err := pathGroupID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req tabsvc.CreateTabsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.UserID = userID
	req.GroupID = groupID

	created, err := h.tabService.CreateTabs(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, BulkCreateResponse{Tabs: created, Count: len(created)})
}

// UpdateTab changes a tab's title or url
// PATCH /api/tabs/{id}
func (h *TabHandler) UpdateTab(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tabID, err := pathTabID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req tabsvc.UpdateTabRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.UserID = userID
	req.TabID = tabID

	tab, err := h.tabService.UpdateTab(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tab)
}

// DeleteTab deletes a tab; ?subtree=true also deletes its descendants
// DELETE /api/tabs/{id}
func (h *TabHandler) DeleteTab(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tabID, err := pathTabID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	withSubtree, err := httputil.QueryBool(r, "subtree", false)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.tabService.DeleteTab(r.Context(), userID, tabID, withSubtree); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MoveTab reparents a tab
// POST /api/tabs/{id}/move
func (h *TabHandler) MoveTab(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tabID, err := pathTabID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req tabsvc.MoveTabRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.UserID = userID
	req.TabID = tabID

	tab, err := h.tabService.MoveTab(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tab)
}

// ReorderTab places a tab before or after a sibling
// POST /api/tabs/{id}/reorder
func (h *TabHandler) ReorderTab(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	tabID, err := pathTabID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req tabsvc.ReorderTabRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}
	req.UserID = userID
	req.TabID = tabID

	order, err := h.tabService.ReorderTab(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ReorderResponse{Order: order})
}
