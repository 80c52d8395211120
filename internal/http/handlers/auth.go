package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/propverse/propverse-be/internal/auth"
	"github.com/propverse/propverse-be/internal/http/respond"
	"github.com/propverse/propverse-be/internal/logutil"
	"github.com/propverse/propverse-be/internal/middleware"
	"github.com/propverse/propverse-be/internal/models"
	"github.com/propverse/propverse-be/internal/models/dto"
	"github.com/propverse/propverse-be/internal/storage"
)

// dummyCredentialDigest is a throwaway bcrypt digest (cost 10) compared
// against when the login email matches no user, keeping that path as slow as
// a real password check.
const dummyCredentialDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthHandler owns the register/login/logout endpoints.
type AuthHandler struct {
	store  storage.Store
	hasher *auth.Hasher
	tokens *auth.TokenManager
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.Store, hasher *auth.Hasher, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{store: store, hasher: hasher, tokens: tokens}
}

// HandleRegister answers POST /api/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	email := normalizeEmail(req.Email)
	if err := validateRegistration(email, req.Password, req.FirstName, req.LastName); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	passwordHash, err := h.hasher.Hash(req.Password)
	if err != nil {
		lg := logutil.GetOrDefault(r.Context())
		lg.Error().Err(err).Msg("hash password failed")
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user := models.User{
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: passwordHash,
	}
	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "email already registered")
			return
		}
		lg := logutil.GetOrDefault(r.Context())
		lg.Error().Err(err).Msg("create user failed")
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := h.issueWithSession(r, created.ID)
	if err != nil {
		lg := logutil.GetOrDefault(r.Context())
		lg.Error().Err(err).Msg("issue token failed")
		respond.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	respond.JSON(w, http.StatusCreated, dto.AuthResponse{Token: token, User: created.Summarize()})
}

// HandleLogin answers POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same response and roughly the same latency as a wrong
			// password, so callers cannot tell which emails are
			// registered.
			h.hasher.Verify(req.Password, dummyCredentialDigest)
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		lg := logutil.GetOrDefault(r.Context())
		lg.Error().Err(err).Msg("fetch user failed")
		respond.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	// Verify before the active check so a deactivated account costs the
	// same as a wrong password.
	if !h.hasher.Verify(req.Password, user.PasswordHash) || !user.IsActive {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.issueWithSession(r, user.ID)
	if err != nil {
		lg := logutil.GetOrDefault(r.Context())
		lg.Error().Err(err).Msg("issue token failed")
		respond.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if err := h.store.RecordLogin(r.Context(), user.ID, time.Now()); err != nil {
		lg := logutil.GetOrDefault(r.Context())
		lg.Warn().Err(err).Int64("user_id", user.ID).Msg("record login failed")
	}

	respond.JSON(w, http.StatusOK, dto.AuthResponse{Token: token, User: user.Summarize()})
}

// HandleLogout revokes the session carried by the presented token. Wired
// behind RequireUser, so the context user is always present.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := middleware.UserFromContext(r.Context()); !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if sid, ok := middleware.SessionIDFromContext(r.Context()); ok {
		if err := h.store.RevokeSession(r.Context(), sid); err != nil && !errors.Is(err, storage.ErrNotFound) {
			lg := logutil.GetOrDefault(r.Context())
			lg.Error().Err(err).Msg("revoke session failed")
			respond.Error(w, http.StatusInternalServerError, "logout failed")
			return
		}
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// issueWithSession records a session row and signs a token carrying its id.
func (h *AuthHandler) issueWithSession(r *http.Request, userID int64) (string, error) {
	session, err := h.store.CreateSession(r.Context(), userID)
	if err != nil {
		return "", err
	}
	return h.tokens.Issue(userID, session.ID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(email, password, firstName, lastName string) error {
	if email == "" {
		return errors.New("email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return errors.New("email is malformed")
	}
	if password == "" {
		return errors.New("password is required")
	}
	if utf8.RuneCountInString(password) < 8 || !utf8.ValidString(password) {
		return errors.New("password must be at least 8 characters")
	}
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return errors.New("firstName and lastName are required")
	}
	return nil
}
