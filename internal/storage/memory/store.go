// Package memory holds a mutex-guarded in-memory storage.Store used by
// handler and middleware tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/propverse/propverse-be/internal/models"
	"github.com/propverse/propverse-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]models.User
	byEmail  map[string]int64
	sessions map[string]models.Session
}

func New() *Store {
	return &Store{
		nextID:   1,
		users:    make(map[int64]models.User),
		byEmail:  make(map[string]int64),
		sessions: make(map[string]models.Session),
	}
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	user.ID = s.nextID
	s.nextID++
	user.IsActive = true
	user.CreatedAt = time.Now()
	if len(user.Roles) == 0 {
		user.Roles = []string{models.RoleInvestor}
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) RecordLogin(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.LastLoginAt = &at
	s.users[id] = user
	return nil
}

// Deactivate flips a user inactive; tests use it to exercise the middleware's
// deactivated-user path.
func (s *Store) Deactivate(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		user.IsActive = false
		s.users[id] = user
	}
}

// Remove deletes a user row outright; tests use it to simulate a row
// vanishing after the middleware loaded it.
func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		delete(s.byEmail, user.Email)
		delete(s.users, id)
	}
}

// Promote grants a user the admin flag and role.
func (s *Store) Promote(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		user.IsAdmin = true
		user.Roles = append(user.Roles, models.RoleAdmin)
		s.users[id] = user
	}
}

func (s *Store) CreateSession(_ context.Context, userID int64) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	session := models.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *Store) FindSession(_ context.Context, id string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return models.Session{}, storage.ErrNotFound
	}
	return session, nil
}

func (s *Store) TouchSession(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return storage.ErrNotFound
	}
	session.LastSeenAt = at
	s.sessions[id] = session
	return nil
}

func (s *Store) RevokeSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return storage.ErrNotFound
	}
	session.Revoked = true
	s.sessions[id] = session
	return nil
}

func (s *Store) Stats(_ context.Context, activeWindow time.Duration) (storage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats storage.Stats
	cutoff := time.Now().Add(-activeWindow)
	weekAgo := time.Now().AddDate(0, 0, -7)
	for _, user := range s.users {
		stats.TotalUsers++
		if user.IsVerified {
			stats.VerifiedUsers++
		}
		if user.IsAdmin {
			stats.AdminUsers++
		}
		if user.CreatedAt.After(weekAgo) {
			stats.NewUsersLast7Days++
		}
	}
	for _, session := range s.sessions {
		if !session.Revoked && !session.LastSeenAt.Before(cutoff) {
			stats.ActiveSessions++
		}
	}
	return stats, nil
}
