package handlers

import (
	"errors"
	"net/http"

	"github.com/propverse/propverse-be/internal/http/respond"
	"github.com/propverse/propverse-be/internal/logutil"
	"github.com/propverse/propverse-be/internal/middleware"
	"github.com/propverse/propverse-be/internal/models/dto"
	"github.com/propverse/propverse-be/internal/storage"
)

// ProfileHandler serves the authenticated user's profile.
type ProfileHandler struct {
	store storage.Store
}

func NewProfileHandler(store storage.Store) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// Handle answers GET /api/user/profile. The middleware guarantees a context
// user; the row is re-read so the response reflects current data.
func (h *ProfileHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctxUser, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid token")
		return
	}

	user, err := h.store.FindByID(r.Context(), ctxUser.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "profile not found")
			return
		}
		lg := logutil.GetOrDefault(r.Context())
		lg.Error().Err(err).Int64("user_id", ctxUser.ID).Msg("load profile failed")
		respond.Error(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	respond.JSON(w, http.StatusOK, dto.ProfileResponse{Success: true, Profile: user})
}
