package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propverse/propverse-be/internal/config"
)

func newTestManager(ttl time.Duration) *TokenManager {
	return NewTokenManager("unit-test-secret", "propverse-test", ttl)
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	t.Parallel()

	tm := newTestManager(time.Hour)
	token, err := tm.Issue(42, "sess-1")
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "propverse-test", claims.Issuer)
}

func TestTokenManager_Expired(t *testing.T) {
	t.Parallel()

	tm := newTestManager(-time.Second)
	token, err := tm.Issue(7, "")
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := newTestManager(time.Hour).Issue(7, "")
	require.NoError(t, err)

	other := NewTokenManager("a-different-secret", "propverse-test", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManager_Malformed(t *testing.T) {
	t.Parallel()

	tm := newTestManager(time.Hour)
	for _, bad := range []string{"", "not.a.jwt", "aaaa.bbbb"} {
		_, err := tm.Verify(bad)
		assert.ErrorIs(t, err, ErrTokenInvalid, "input %q", bad)
	}
}

func TestTokenManager_TamperedToken(t *testing.T) {
	t.Parallel()

	tm := newTestManager(time.Hour)
	token, err := tm.Issue(42, "sess-1")
	require.NoError(t, err)

	// Flipping any single character of the payload or signature must break
	// verification; spot-check a handful of positions across the token.
	for _, pos := range []int{len(token) / 4, len(token) / 2, len(token) - 2} {
		mutated := []byte(token)
		if mutated[pos] == 'A' {
			mutated[pos] = 'B'
		} else {
			mutated[pos] = 'A'
		}
		if string(mutated) == token {
			continue
		}
		_, err := tm.Verify(string(mutated))
		assert.Error(t, err, "mutation at %d verified", pos)
	}
}

func TestTokenManager_InsecureSecret(t *testing.T) {
	t.Parallel()

	for _, secret := range []string{"", config.InsecureSecretPlaceholder} {
		tm := NewTokenManager(secret, "propverse-test", time.Hour)

		_, err := tm.Issue(1, "")
		assert.ErrorIs(t, err, ErrInsecureSecret, "issue with secret %q", secret)

		_, err = tm.Verify("whatever")
		assert.ErrorIs(t, err, ErrInsecureSecret, "verify with secret %q", secret)
	}
}

func TestTokenManager_RejectsNonHMAC(t *testing.T) {
	t.Parallel()

	// alg=none header with an otherwise plausible body.
	tm := newTestManager(time.Hour)
	forged := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiI0MiJ9."
	_, err := tm.Verify(forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestClaims_UserID_BadSubject(t *testing.T) {
	t.Parallel()

	c := &Claims{}
	c.Subject = "not-a-number"
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrTokenInvalid)

	c.Subject = strings.Repeat("9", 30)
	_, err = c.UserID()
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
