package providercache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitsync/gateway/pkg/store"
	"github.com/fitsync/gateway/pkg/vault"
)

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Conn().Exec(`INSERT INTO users (id, email, password_hash, created_at, last_active, active)
		VALUES ('u1', 'a@b.co', 'hash', 0, 0, 1)`)
	require.NoError(t, err)

	key := make([]byte, 32)
	v, err := vault.New(db, key)
	require.NoError(t, err)
	return v
}

func TestCacheMissNoCredentials(t *testing.T) {
	v := newTestVault(t)
	c := New(v, nil)

	_, err := c.Get(context.Background(), "u1", "strava")
	require.ErrorIs(t, err, ErrNoCredentials)
}

func TestCacheBindsAndReusesOnHit(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Put("u1", "strava", vault.TokenRecord{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Scope:        "read",
	}))

	c := New(v, map[string]ProviderConfig{"strava": {ClientID: "id", ClientSecret: "secret"}})

	p1, err := c.Get(context.Background(), "u1", "strava")
	require.NoError(t, err)
	require.Equal(t, "strava", p1.Name())

	p2, err := c.Get(context.Background(), "u1", "strava")
	require.NoError(t, err)
	require.Same(t, p1, p2)
}

func TestCacheInvalidate(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Put("u1", "strava", vault.TokenRecord{AccessToken: "a", RefreshToken: "r"}))

	c := New(v, map[string]ProviderConfig{"strava": {}})
	p1, err := c.Get(context.Background(), "u1", "strava")
	require.NoError(t, err)

	c.Invalidate("u1", "strava")

	p2, err := c.Get(context.Background(), "u1", "strava")
	require.NoError(t, err)
	require.NotSame(t, p1, p2)
}

