package handler

import (
	"log/slog"
	"net/http"

	tabsvc "tabnest/internal/domain/services/tabs"
	"tabnest/internal/httputil"
)

// TreeHandler handles HTTP requests for tree reads
type TreeHandler struct {
	tabService tabsvc.TabService
	logger     *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(tabService tabsvc.TabService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		tabService: tabService,
		logger:     logger,
	}
}

// GetTree returns the nested tab tree for a group
// GET /api/groups/{id}/tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	groupID, err := pathGroupID(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	tree, err := h.tabService.GetTree(r.Context(), userID, groupID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tree)
}
