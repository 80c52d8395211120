package handlers

import (
	"net/http"
	"time"

	"github.com/propverse/propverse-be/internal/http/respond"
	"github.com/propverse/propverse-be/internal/logutil"
	"github.com/propverse/propverse-be/internal/models/dto"
	"github.com/propverse/propverse-be/internal/storage"
)

// AdminHandler serves aggregate statistics to administrators.
type AdminHandler struct {
	store storage.Store
	// activeWindow bounds how stale a session may be and still count as active.
	activeWindow time.Duration
}

func NewAdminHandler(store storage.Store, activeWindow time.Duration) *AdminHandler {
	return &AdminHandler{store: store, activeWindow: activeWindow}
}

// HandleStats answers POST /api/admin/stats. Admin gating happens in the
// middleware chain.
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.store.Stats(r.Context(), h.activeWindow)
	if err != nil {
		lg := logutil.GetOrDefault(r.Context())
		lg.Error().Err(err).Msg("load admin stats failed")
		respond.Error(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	respond.JSON(w, http.StatusOK, dto.AdminStats{
		TotalUsers:        stats.TotalUsers,
		VerifiedUsers:     stats.VerifiedUsers,
		AdminUsers:        stats.AdminUsers,
		ActiveSessions:    stats.ActiveSessions,
		NewUsersLast7Days: stats.NewUsersLast7Days,
	})
}
