// Package providercache implements the Provider Session Cache: a per-process
// mapping of (user_id, provider) to a bound adapter instance, lazily
// constructed by pulling credentials from the Credential Vault.
//
// The cache never holds its lock across I/O. A miss authenticates a fresh
// adapter outside the lock and only takes the write lock to insert; a
// redundant bind under concurrent misses is accepted and the loser's adapter
// is simply discarded, since binding is idempotent.
package providercache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fitsync/gateway/pkg/metrics"
	"github.com/fitsync/gateway/pkg/providers"
	"github.com/fitsync/gateway/pkg/vault"
)

// ErrNoCredentials is returned when no TokenRecord exists for (userID, provider).
var ErrNoCredentials = errors.New("no valid token for provider")

type key struct {
	userID   string
	provider string
}

// ProviderConfig supplies the OAuth2 client id/secret an adapter needs in
// addition to the stored access/refresh tokens.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
}

// Cache is the Provider Session Cache.
type Cache struct {
	mu       sync.RWMutex
	bindings map[key]providers.Provider

	vault       *vault.Vault
	providerCfg map[string]ProviderConfig
}

// New constructs an empty cache backed by v, with per-provider OAuth2 client
// configuration for binding.
func New(v *vault.Vault, providerCfg map[string]ProviderConfig) *Cache {
	return &Cache{
		bindings:    make(map[key]providers.Provider),
		vault:       v,
		providerCfg: providerCfg,
	}
}

// Get resolves the bound adapter for (userID, providerName), binding lazily
// on a cache miss.
func (c *Cache) Get(ctx context.Context, userID, providerName string) (providers.Provider, error) {
	k := key{userID, providerName}

	c.mu.RLock()
	if p, ok := c.bindings[k]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	p, err := c.bind(ctx, userID, providerName)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if existing, ok := c.bindings[k]; ok {
		// Another goroutine won the race; keep its binding, discard ours.
		c.mu.Unlock()
		return existing, nil
	}
	c.bindings[k] = p
	c.mu.Unlock()

	metrics.ProviderCacheBindingsTotal.WithLabelValues(providerName).Inc()
	return p, nil
}

func (c *Cache) bind(ctx context.Context, userID, providerName string) (providers.Provider, error) {
	rec, err := c.vault.Get(userID, providerName)
	if err != nil {
		return nil, fmt.Errorf("provider cache: read vault: %w", err)
	}
	if rec == nil {
		return nil, ErrNoCredentials
	}

	p, err := providers.New(providerName)
	if err != nil {
		return nil, err
	}

	cfg := c.providerCfg[providerName]
	err = p.Authenticate(ctx, providers.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("provider cache: authenticate: %w", err)
	}
	return p, nil
}

// Invalidate evicts the cached binding for (userID, providerName), if any.
// Called on successful refresh, disconnect, a fresh vault write, or user
// deactivation.
func (c *Cache) Invalidate(userID, providerName string) {
	c.mu.Lock()
	delete(c.bindings, key{userID, providerName})
	c.mu.Unlock()
}

// InvalidateUser evicts every cached binding for userID across all providers,
// used on user deactivation.
func (c *Cache) InvalidateUser(userID string) {
	c.mu.Lock()
	for k := range c.bindings {
		if k.userID == userID {
			delete(c.bindings, k)
		}
	}
	c.mu.Unlock()
}
