package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propverse/propverse-be/internal/auth"
	"github.com/propverse/propverse-be/internal/models"
	"github.com/propverse/propverse-be/internal/storage/memory"
)

const testSecret = "middleware-test-secret"

func newTokens(ttl time.Duration) *auth.TokenManager {
	return auth.NewTokenManager(testSecret, "propverse-test", ttl)
}

func seedUser(t *testing.T, store *memory.Store) models.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), models.User{
		Email:        "investor@example.com",
		FirstName:    "Ines",
		LastName:     "Vestor",
		PasswordHash: "irrelevant-here",
	})
	require.NoError(t, err)
	return user
}

// echoUser records whether the wrapped handler ran and what the middleware
// attached to the context.
type echoUser struct {
	called    bool
	user      models.User
	sessionID string
	hasSID    bool
}

func (e *echoUser) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.called = true
	e.user, _ = UserFromContext(r.Context())
	e.sessionID, e.hasSID = SessionIDFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func doRequest(handler http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireUser_MissingOrMalformedHeader(t *testing.T) {
	store := memory.New()
	tokens := newTokens(time.Hour)
	next := &echoUser{}
	handler := RequireUser(store, tokens)(next)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "justatoken"} {
		rec := doRequest(handler, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.False(t, next.called, "header %q reached handler", header)
	}
}

func TestRequireUser_InvalidAndExpiredTokens(t *testing.T) {
	store := memory.New()
	user := seedUser(t, store)

	expired, err := newTokens(-time.Minute).Issue(user.ID, "")
	require.NoError(t, err)

	foreign, err := auth.NewTokenManager("some-other-secret", "elsewhere", time.Hour).Issue(user.ID, "")
	require.NoError(t, err)

	next := &echoUser{}
	handler := RequireUser(store, newTokens(time.Hour))(next)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"garbage":      "aaa.bbb.ccc",
	} {
		rec := doRequest(handler, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		assert.False(t, next.called, name)
	}
}

func TestRequireUser_UnknownAndDeactivatedUser(t *testing.T) {
	store := memory.New()
	user := seedUser(t, store)
	tokens := newTokens(time.Hour)

	ghost, err := tokens.Issue(user.ID+100, "")
	require.NoError(t, err)

	next := &echoUser{}
	handler := RequireUser(store, tokens)(next)

	rec := doRequest(handler, "Bearer "+ghost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := tokens.Issue(user.ID, "")
	require.NoError(t, err)
	store.Deactivate(user.ID)

	rec = doRequest(handler, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, next.called)
}

func TestRequireUser_AttachesUserAndTouchesSession(t *testing.T) {
	store := memory.New()
	user := seedUser(t, store)
	tokens := newTokens(time.Hour)

	session, err := store.CreateSession(context.Background(), user.ID)
	require.NoError(t, err)
	token, err := tokens.Issue(user.ID, session.ID)
	require.NoError(t, err)

	next := &echoUser{}
	handler := RequireUser(store, tokens)(next)

	before := session.LastSeenAt
	rec := doRequest(handler, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, next.called)
	assert.Equal(t, user.ID, next.user.ID)
	assert.Equal(t, user.Email, next.user.Email)

	// Downstream handlers read the verified session ID from the context
	// instead of re-parsing the token.
	require.True(t, next.hasSID)
	assert.Equal(t, session.ID, next.sessionID)

	touched, err := store.FindSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, touched.LastSeenAt.Before(before))
}

func TestRequireUser_NoSessionClaimLeavesContextBare(t *testing.T) {
	store := memory.New()
	user := seedUser(t, store)
	tokens := newTokens(time.Hour)

	token, err := tokens.Issue(user.ID, "")
	require.NoError(t, err)

	next := &echoUser{}
	handler := RequireUser(store, tokens)(next)

	rec := doRequest(handler, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, next.hasSID)
}

func TestRequireUser_RevokedSession(t *testing.T) {
	store := memory.New()
	user := seedUser(t, store)
	tokens := newTokens(time.Hour)

	session, err := store.CreateSession(context.Background(), user.ID)
	require.NoError(t, err)
	token, err := tokens.Issue(user.ID, session.ID)
	require.NoError(t, err)
	require.NoError(t, store.RevokeSession(context.Background(), session.ID))

	next := &echoUser{}
	handler := RequireUser(store, tokens)(next)

	rec := doRequest(handler, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, next.called)
}

func TestRequireAdmin(t *testing.T) {
	store := memory.New()
	user := seedUser(t, store)
	tokens := newTokens(time.Hour)

	token, err := tokens.Issue(user.ID, "")
	require.NoError(t, err)

	next := &echoUser{}
	handler := RequireAdmin(store, tokens)(next)

	// Valid token, not an admin.
	rec := doRequest(handler, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, next.called)

	// No token at all stays a 401, not a 403.
	rec = doRequest(handler, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	store.Promote(user.ID)
	rec = doRequest(handler, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, next.called)
	assert.True(t, next.user.IsAdmin)
}
