package storage

import (
	"context"
	"errors"
	"time"

	"github.com/propverse/propverse-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Stats aggregates the counters behind the admin dashboard.
type Stats struct {
	TotalUsers        int64
	VerifiedUsers     int64
	AdminUsers        int64
	ActiveSessions    int64
	NewUsersLast7Days int64
}

// UserStore captures user persistence operations needed by handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	RecordLogin(ctx context.Context, id int64, at time.Time) error
}

// SessionStore tracks persisted logins for revocation and active-session counts.
type SessionStore interface {
	CreateSession(ctx context.Context, userID int64) (models.Session, error)
	FindSession(ctx context.Context, id string) (models.Session, error)
	TouchSession(ctx context.Context, id string, at time.Time) error
	RevokeSession(ctx context.Context, id string) error
}

// StatsStore serves admin aggregates. A session counts as active when it is
// unrevoked and was seen within the given window.
type StatsStore interface {
	Stats(ctx context.Context, activeWindow time.Duration) (Stats, error)
}

// Store is the full persistence surface the server wires up.
type Store interface {
	UserStore
	SessionStore
	StatsStore
}
