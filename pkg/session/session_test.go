package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthority() *Authority {
	return New([]byte("test-secret-at-least-32-bytes-long!!"), 24*time.Hour)
}

func TestIssueAndValidate(t *testing.T) {
	a := newTestAuthority()

	bearer, expiresAt, err := a.Issue("user-1", "a@b.co", []string{"strava"})
	require.NoError(t, err)
	assert.NotEmpty(t, bearer)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := a.Validate(bearer)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.co", claims.Email)
	assert.Equal(t, []string{"strava"}, claims.Providers)
}

func TestValidateExpired(t *testing.T) {
	a := New([]byte("test-secret-at-least-32-bytes-long!!"), -1*time.Hour)

	bearer, _, err := a.Issue("user-1", "a@b.co", nil)
	require.NoError(t, err)

	_, err = a.Validate(bearer)
	assert.ErrorIs(t, err, ErrExpired)

	claims, err := a.ValidateSignatureOnly(bearer)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestValidateBadSignature(t *testing.T) {
	a := newTestAuthority()
	other := New([]byte("a-totally-different-secret-value!!!!"), time.Hour)

	bearer, _, err := other.Issue("user-1", "a@b.co", nil)
	require.NoError(t, err)

	_, err = a.Validate(bearer)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestValidateMalformed(t *testing.T) {
	a := newTestAuthority()

	_, err := a.Validate("not.a.jwt")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRefreshAfterExpiry(t *testing.T) {
	a := New([]byte("test-secret-at-least-32-bytes-long!!"), -1*time.Hour)

	oldBearer, _, err := a.Issue("user-1", "a@b.co", []string{"strava"})
	require.NoError(t, err)

	newBearer, _, err := a.Refresh(oldBearer, "user-1", "a@b.co", []string{"strava", "fitbit"})
	require.NoError(t, err)
	assert.NotEmpty(t, newBearer)

	// Refresh never relies on sub-second timing to produce a distinct token:
	// the nonce alone guarantees it.
	oldClaims, err := a.ValidateSignatureOnly(oldBearer)
	require.NoError(t, err)
	newClaims, err := a.ValidateSignatureOnly(newBearer)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.Nonce, newClaims.Nonce)
}

func TestRefreshRejectsMismatchedUser(t *testing.T) {
	a := newTestAuthority()

	bearer, _, err := a.Issue("user-1", "a@b.co", nil)
	require.NoError(t, err)

	_, _, err = a.Refresh(bearer, "user-2", "x@y.co", nil)
	assert.ErrorIs(t, err, ErrBadSignature)
}
