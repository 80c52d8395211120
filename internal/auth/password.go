package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/propverse/propverse-be/internal/config"
)

// Hasher turns plaintext passwords into bcrypt digests and verifies them.
// The per-call salt lives inside the digest, so nothing is stored beside it.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the given work factor, floored at the
// configured minimum.
func NewHasher(cost int) *Hasher {
	if cost < config.MinBcryptCost {
		cost = config.MinBcryptCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a storable digest from the password.
func (h *Hasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether password matches digest. A wrong password is a
// plain false, never an error.
func (h *Hasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
