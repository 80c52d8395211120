package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propverse/propverse-be/internal/models"
	"github.com/propverse/propverse-be/internal/storage"
)

func TestStore_UserLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	created, err := s.CreateUser(ctx, models.User{Email: "a@example.com", PasswordHash: "digest"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Equal(t, []string{models.RoleInvestor}, created.Roles)

	_, err = s.CreateUser(ctx, models.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	byEmail, err := s.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = s.FindByEmail(ctx, "b@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	now := time.Now()
	require.NoError(t, s.RecordLogin(ctx, created.ID, now))
	byID, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLoginAt)
	assert.True(t, byID.LastLoginAt.Equal(now))
}

func TestStore_SessionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	user, err := s.CreateUser(ctx, models.User{Email: "s@example.com"})
	require.NoError(t, err)

	session, err := s.CreateSession(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)

	later := time.Now().Add(time.Minute)
	require.NoError(t, s.TouchSession(ctx, session.ID, later))
	found, err := s.FindSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, found.LastSeenAt.Equal(later))

	require.NoError(t, s.RevokeSession(ctx, session.ID))
	found, err = s.FindSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, found.Revoked)

	assert.ErrorIs(t, s.TouchSession(ctx, "missing", later), storage.ErrNotFound)
	assert.ErrorIs(t, s.RevokeSession(ctx, "missing"), storage.ErrNotFound)
}

func TestStore_Stats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	admin, err := s.CreateUser(ctx, models.User{Email: "adm@example.com", IsAdmin: true, IsVerified: true})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, models.User{Email: "usr@example.com"})
	require.NoError(t, err)

	active, err := s.CreateSession(ctx, admin.ID)
	require.NoError(t, err)
	revoked, err := s.CreateSession(ctx, admin.ID)
	require.NoError(t, err)
	require.NoError(t, s.RevokeSession(ctx, revoked.ID))
	_ = active

	stats, err := s.Stats(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.VerifiedUsers)
	assert.Equal(t, int64(1), stats.AdminUsers)
	assert.Equal(t, int64(1), stats.ActiveSessions)
	assert.Equal(t, int64(2), stats.NewUsersLast7Days)
}
