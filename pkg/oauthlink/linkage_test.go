package oauthlink

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitsync/gateway/pkg/providercache"
	"github.com/fitsync/gateway/pkg/store"
	"github.com/fitsync/gateway/pkg/vault"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Conn().Exec(`INSERT INTO users (id, email, password_hash, created_at, last_active, active)
		VALUES ('u1', 'a@b.co', 'hash', 0, 0, 1)`)
	require.NoError(t, err)

	v, err := vault.New(db, make([]byte, 32))
	require.NoError(t, err)

	cache := providercache.New(v, nil)

	return New(v, cache, map[string]ClientConfig{
		"strava": {ClientID: "id", ClientSecret: "secret", RedirectURI: "https://example.com/callback"},
	})
}

func TestBeginLinkStateStartsWithUserID(t *testing.T) {
	s := newTestService(t)

	res, err := s.BeginLink("u1", "strava")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.State, "u1:"))
	require.Contains(t, res.AuthorizationURL, "state="+urlEscapeForTest(res.State))
}

func TestBeginLinkStatesAreUnique(t *testing.T) {
	s := newTestService(t)

	r1, err := s.BeginLink("u1", "strava")
	require.NoError(t, err)
	r2, err := s.BeginLink("u1", "strava")
	require.NoError(t, err)

	require.NotEqual(t, r1.State, r2.State)
}

func TestCompleteLinkRejectsUnknownState(t *testing.T) {
	s := newTestService(t)

	_, err := s.CompleteLink(context.Background(), "code", "attacker:nonce", "strava")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteLinkRejectsReplayedState(t *testing.T) {
	s := newTestService(t)

	res, err := s.BeginLink("u1", "strava")
	require.NoError(t, err)

	// Consuming the state directly (without a real HTTP exchange) proves
	// the single-use property the exchange call would otherwise need a
	// live token endpoint to reach.
	_, err = s.states.validateAndConsume(res.State, "strava")
	require.NoError(t, err)

	_, err = s.states.validateAndConsume(res.State, "strava")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, s.vault.Put("u1", "strava", vault.TokenRecord{AccessToken: "a", RefreshToken: "r"}))

	require.NoError(t, s.Disconnect("u1", "strava"))
	require.NoError(t, s.Disconnect("u1", "strava"))

	rec, err := s.vault.Get("u1", "strava")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func urlEscapeForTest(s string) string {
	return strings.ReplaceAll(s, ":", "%3A")
}
