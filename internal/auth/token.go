package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/propverse/propverse-be/internal/config"
)

// ErrTokenExpired marks a structurally valid token past its expiry; callers
// should prompt a re-login rather than treat it as tampering.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenInvalid covers malformed tokens, bad signatures, and bogus claims.
var ErrTokenInvalid = errors.New("token invalid")

// ErrInsecureSecret means the signing secret is unset or still the shipped
// placeholder. Checked on every issue and verify, not just at startup, so a
// misconfigured deployment can never mint a usable-looking token.
var ErrInsecureSecret = errors.New("signing secret is unset or insecure")

// Claims carried by every issued token.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid,omitempty"`
}

// TokenManager issues and verifies signed JWTs for authenticated users.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// TTL returns the configured token lifetime.
func (t *TokenManager) TTL() time.Duration {
	return t.ttl
}

func (t *TokenManager) checkSecret() error {
	if len(t.secret) == 0 || string(t.secret) == config.InsecureSecretPlaceholder {
		return ErrInsecureSecret
	}
	return nil
}

// Issue signs a token asserting that userID authenticated now, expiring after
// the configured lifetime. sessionID may be empty for stateless tokens.
func (t *TokenManager) Issue(userID int64, sessionID string) (string, error) {
	if err := t.checkSecret(); err != nil {
		return "", err
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		SessionID: sessionID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token, returning its claims. Expired tokens
// yield ErrTokenExpired; every other failure yields ErrTokenInvalid.
func (t *TokenManager) Verify(tokenString string) (*Claims, error) {
	if err := t.checkSecret(); err != nil {
		return nil, err
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// UserID parses the subject claim back into the user identifier.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return id, nil
}
