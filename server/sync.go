package server

import (
	"net/http"
	"strings"

	"github.com/bainianlaoyao/potatolism/internal/logger"
	"github.com/bainianlaoyao/potatolism/internal/model"
	"github.com/labstack/echo/v4"
)

// TokenHeader carries the owner credential. Its value is compared for
// equality only; there is no further validation.
const TokenHeader = "X-Token"

// SyncRequest is the client's whole task collection.
type SyncRequest struct {
	Tasks []model.Task `json:"tasks"`
}

// SyncResponse is the reconciled collection, authoritative for both
// sides after the sync.
type SyncResponse struct {
	Tasks []model.Task `json:"tasks"`
}

// handleSync reconciles the submitted collection with the owner's
// persisted one and returns the merged set. A missing token is the
// only auth failure; a malformed body counts as an empty collection.
func (s *Server) handleSync(c echo.Context) error {
	token := strings.TrimSpace(c.Request().Header.Get(TokenHeader))
	if token == "" {
		return c.String(http.StatusUnauthorized, "Token is required")
	}

	var req SyncRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Malformed sync body treated as empty collection", logger.F("error", err))
		req.Tasks = nil
	}

	merged, err := s.store.Sync(c.Request().Context(), token, req.Tasks)
	if err != nil {
		logger.Error("Sync failed", logger.F("owner", token), logger.F("error", err))
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}

	if merged == nil {
		merged = []model.Task{}
	}
	return c.JSON(http.StatusOK, SyncResponse{Tasks: merged})
}
