package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"tabnest/internal/domain"
	"tabnest/internal/domain/models/tabs"
	"tabnest/internal/httputil"
)

// handleError converts domain errors to HTTP responses.
// Tree rule violations carry their taxonomy name in a "code" field.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var treeErr *domain.TreeError

	switch {
	case errors.As(err, &treeErr):
		httputil.RespondErrorWithExtras(w, treeErr.StatusCode(), treeErr.Message, map[string]interface{}{
			"code": treeErr.Code,
		})
	case errors.Is(err, httputil.ErrRequestTooLarge):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireUser returns the authenticated caller, writing a 401 when there is none
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID := httputil.GetUserID(r)
	if userID == uuid.Nil {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

func pathGroupID(r *http.Request) (tabs.GroupID, error) {
	return tabs.ParseGroupID(r.PathValue("id"))
}

func pathTabID(r *http.Request) (tabs.TabID, error) {
	return tabs.ParseTabID(r.PathValue("id"))
}
