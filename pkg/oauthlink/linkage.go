// Package oauthlink implements the OAuth2 Linkage Service: authorization-URL
// generation with CSRF-protecting state, callback handling, code-for-token
// exchange, and refresh, writing results into the Credential Vault.
package oauthlink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/fitsync/gateway/pkg/providercache"
	"github.com/fitsync/gateway/pkg/vault"
)

// ErrInvalidState is returned when the callback's state is malformed, unknown,
// expired, or already consumed.
var ErrInvalidState = errors.New("invalid or expired oauth state")

// ErrExchangeFailed wraps any failure of the provider's code-for-token exchange.
var ErrExchangeFailed = errors.New("oauth code exchange failed")

// ErrUnsupportedProvider is returned for a provider name with no configured endpoint.
var ErrUnsupportedProvider = errors.New("unsupported provider")

var endpoints = map[string]oauth2.Endpoint{
	"strava": {
		AuthURL:  "https://www.strava.com/oauth/authorize",
		TokenURL: "https://www.strava.com/oauth/token",
	},
	"fitbit": {
		AuthURL:  "https://www.fitbit.com/oauth2/authorize",
		TokenURL: "https://api.fitbit.com/oauth2/token",
	},
}

var scopes = map[string][]string{
	"strava": {"activity:read_all"},
	"fitbit": {"activity", "profile"},
}

// ConnectionStatus reports whether a user has a linked TokenRecord for provider.
type ConnectionStatus struct {
	Provider  string
	Connected bool
	ExpiresAt *time.Time
	Scope     string
}

// Service is the OAuth2 Linkage Service.
type Service struct {
	vault   *vault.Vault
	cache   *providercache.Cache
	states  *stateRegistry
	configs map[string]*oauth2.Config
}

// ClientConfig is a provider's OAuth2 client id/secret/redirect URI.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// New constructs a Service for the configured providers. clientCfg maps a
// provider name to its OAuth2 client credentials.
func New(v *vault.Vault, cache *providercache.Cache, clientCfg map[string]ClientConfig) *Service {
	configs := make(map[string]*oauth2.Config, len(clientCfg))
	for name, c := range clientCfg {
		ep, ok := endpoints[name]
		if !ok {
			continue
		}
		configs[name] = &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURI,
			Endpoint:     ep,
			Scopes:       scopes[name],
		}
	}

	return &Service{
		vault:   v,
		cache:   cache,
		states:  newStateRegistry(),
		configs: configs,
	}
}

// BeginLinkResult is returned by BeginLink.
type BeginLinkResult struct {
	AuthorizationURL string
	State            string
	TTL              time.Duration
}

// BeginLink constructs the provider's authorization URL with CSRF state.
func (s *Service) BeginLink(userID, provider string) (*BeginLinkResult, error) {
	cfg, ok := s.configs[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	state, err := s.states.issue(userID, provider)
	if err != nil {
		return nil, err
	}

	return &BeginLinkResult{
		AuthorizationURL: cfg.AuthCodeURL(state, oauth2.AccessTypeOffline),
		State:            state,
		TTL:              stateTTL,
	}, nil
}

// CompleteLinkResult is returned by CompleteLink.
type CompleteLinkResult struct {
	UserID    string
	ExpiresAt time.Time
	Scope     string
}

// CompleteLink validates state, performs the code-for-token exchange, and
// writes the resulting TokenRecord into the Vault. On any failure, no
// partial credentials are stored.
func (s *Service) CompleteLink(ctx context.Context, code, state, provider string) (*CompleteLinkResult, error) {
	cfg, ok := s.configs[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	userID, err := s.states.validateAndConsume(state, provider)
	if err != nil {
		return nil, err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	scope := ""
	if raw, ok := token.Extra("scope").(string); ok {
		scope = raw
	}

	rec := vault.TokenRecord{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		Scope:        scope,
	}
	if err := s.vault.Put(userID, provider, rec); err != nil {
		return nil, fmt.Errorf("store token record: %w", err)
	}

	s.cache.Invalidate(userID, provider)

	return &CompleteLinkResult{UserID: userID, ExpiresAt: token.Expiry, Scope: scope}, nil
}

// ConnectionStatusFor reports linkage status across all configured providers for userID.
func (s *Service) ConnectionStatusFor(userID string) ([]ConnectionStatus, error) {
	out := make([]ConnectionStatus, 0, len(s.configs))
	for provider := range s.configs {
		rec, err := s.vault.Get(userID, provider)
		if err != nil {
			return nil, fmt.Errorf("read vault for %s: %w", provider, err)
		}
		status := ConnectionStatus{Provider: provider}
		if rec != nil {
			status.Connected = true
			expiresAt := rec.ExpiresAt
			status.ExpiresAt = &expiresAt
			status.Scope = rec.Scope
		}
		out = append(out, status)
	}
	return out, nil
}

// Disconnect clears the stored TokenRecord and invalidates the cached binding.
// Idempotent: calling it twice leaves state unchanged after the first call.
func (s *Service) Disconnect(userID, provider string) error {
	if err := s.vault.Clear(userID, provider); err != nil {
		return fmt.Errorf("clear vault: %w", err)
	}
	s.cache.Invalidate(userID, provider)
	return nil
}

// RefreshToken uses the stored refresh token to mint a fresh access/refresh
// pair and atomically overwrite the TokenRecord, invalidating the cached
// binding so the next call re-binds with fresh credentials.
func (s *Service) RefreshToken(ctx context.Context, userID, provider string) error {
	cfg, ok := s.configs[provider]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	rec, err := s.vault.Get(userID, provider)
	if err != nil {
		return fmt.Errorf("read vault: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("refresh: %w", providercache.ErrNoCredentials)
	}

	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: rec.RefreshToken})
	token, err := src.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	newRec := vault.TokenRecord{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		Scope:        rec.Scope,
	}
	if newRec.RefreshToken == "" {
		newRec.RefreshToken = rec.RefreshToken
	}

	if err := s.vault.Put(userID, provider, newRec); err != nil {
		return fmt.Errorf("store refreshed token record: %w", err)
	}
	s.cache.Invalidate(userID, provider)
	return nil
}
