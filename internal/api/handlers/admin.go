package handlers

import (
	"context"
	"net/http"

	"github.com/fuyaseru/brain/pkg/logger"
)

// CacheClearer drops every cached bundle
type CacheClearer interface {
	ClearCache(ctx context.Context) (int, error)
}

// AdminHandler serves admin-only maintenance endpoints
type AdminHandler struct {
	cache  CacheClearer
	logger *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cache CacheClearer, log *logger.Logger) *AdminHandler {
	return &AdminHandler{cache: cache, logger: log}
}

// ClearCache empties the bundle cache
// POST /api/admin/cache/clear
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	n, err := h.cache.ClearCache(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to clear cache")
		respondError(w, http.StatusInternalServerError, "Failed to clear cache")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"removed": n,
		"message": "キャッシュを削除しました",
	})
}
