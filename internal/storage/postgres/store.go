package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/propverse/propverse-be/internal/models"
	"github.com/propverse/propverse-be/internal/storage"
	"github.com/propverse/propverse-be/internal/storage/postgres/migrations"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for users, roles, and sessions.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a pgx pool and applies pending migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := runMigrations(ctx, databaseURL); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// runMigrations applies the embedded goose migrations over a short-lived
// database/sql connection; the pgx pool handles everything after that.
func runMigrations(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

const userColumns = `
	u.id, u.email, u.first_name, u.last_name, u.password_hash,
	u.is_verified, u.is_admin, u.is_active, u.created_at, u.last_login_at,
	(
		SELECT COALESCE(array_agg(r.name ORDER BY r.name), '{}')
		FROM user_roles ur
		JOIN roles r ON ur.role_id = r.id
		WHERE ur.user_id = u.id
	)`

// CreateUser inserts a new user row and attaches the default investor role.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO users (email, password_hash, first_name, last_name, is_verified, is_admin, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id, created_at;`
	row := tx.QueryRow(ctx, insert,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.IsVerified, user.IsAdmin)
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}

	const attachRole = `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT DO NOTHING;`
	if _, err := tx.Exec(ctx, attachRole, user.ID, models.RoleInvestor); err != nil {
		return models.User{}, fmt.Errorf("attach default role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, fmt.Errorf("commit create user: %w", err)
	}

	user.IsActive = true
	user.Roles = []string{models.RoleInvestor}
	return user, nil
}

// FindByEmail fetches a user by normalized email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// RecordLogin stamps the user's last successful login.
func (s *Store) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1;`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateSession records a fresh login session for the user.
func (s *Store) CreateSession(ctx context.Context, userID int64) (models.Session, error) {
	session := models.Session{ID: uuid.NewString(), UserID: userID}
	const query = `
		INSERT INTO sessions (id, user_id)
		VALUES ($1, $2)
		RETURNING created_at, last_seen_at;`
	row := s.pool.QueryRow(ctx, query, session.ID, session.UserID)
	if err := row.Scan(&session.CreatedAt, &session.LastSeenAt); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// FindSession fetches a session by its identifier.
func (s *Store) FindSession(ctx context.Context, id string) (models.Session, error) {
	const query = `
		SELECT id, user_id, created_at, last_seen_at, revoked
		FROM sessions WHERE id = $1;`
	var session models.Session
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.CreatedAt, &session.LastSeenAt, &session.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, storage.ErrNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

// TouchSession refreshes the session's last-seen timestamp.
func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE sessions SET last_seen_at = $2 WHERE id = $1;`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RevokeSession marks the session inactive; tokens carrying it stop working.
func (s *Store) RevokeSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE sessions SET revoked = TRUE WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Stats computes the admin dashboard counters in a single round trip.
func (s *Store) Stats(ctx context.Context, activeWindow time.Duration) (storage.Stats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_verified),
			(SELECT COUNT(*) FROM users WHERE is_admin),
			(SELECT COUNT(*) FROM sessions WHERE NOT revoked AND last_seen_at >= $1),
			(SELECT COUNT(*) FROM users WHERE created_at >= NOW() - INTERVAL '7 days');`
	var stats storage.Stats
	err := s.pool.QueryRow(ctx, query, time.Now().Add(-activeWindow)).Scan(
		&stats.TotalUsers, &stats.VerifiedUsers, &stats.AdminUsers,
		&stats.ActiveSessions, &stats.NewUsersLast7Days)
	if err != nil {
		return storage.Stats{}, err
	}
	return stats, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash,
		&user.IsVerified, &user.IsAdmin, &user.IsActive, &user.CreatedAt, &user.LastLoginAt,
		&user.Roles,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
