package dto

import "github.com/propverse/propverse-be/internal/models"

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both login and register on success.
type AuthResponse struct {
	Token string         `json:"token"`
	User  models.Summary `json:"user"`
}

type ProfileResponse struct {
	Success bool        `json:"success"`
	Profile models.User `json:"profile"`
}

// AdminStats aggregates the counters behind the admin dashboard.
type AdminStats struct {
	TotalUsers        int64 `json:"totalUsers"`
	VerifiedUsers     int64 `json:"verifiedUsers"`
	AdminUsers        int64 `json:"adminUsers"`
	ActiveSessions    int64 `json:"activeSessions"`
	NewUsersLast7Days int64 `json:"newUsersLast7Days"`
}
