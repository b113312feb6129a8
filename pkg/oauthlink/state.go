package oauthlink

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"
)

const stateTTL = 10 * time.Minute

type stateEntry struct {
	userID   string
	provider string
	expiry   time.Time
}

// stateRegistry is an in-memory, single-use, TTL-bounded store of OAuth state
// strings, keyed by the state string itself. Sufficient for a single-process
// deployment; a multi-process deployment would promote this to the
// persistent store instead.
type stateRegistry struct {
	mu     sync.Mutex
	states map[string]*stateEntry
}

func newStateRegistry() *stateRegistry {
	r := &stateRegistry{states: make(map[string]*stateEntry)}
	go r.sweepLoop()
	return r
}

// issue mints "state = user_id:nonce" and registers it against provider with
// a bounded TTL.
func (r *stateRegistry) issue(userID, provider string) (string, error) {
	nonce, err := randomNonce()
	if err != nil {
		return "", fmt.Errorf("generate oauth state nonce: %w", err)
	}
	state := userID + ":" + nonce

	r.mu.Lock()
	r.states[state] = &stateEntry{userID: userID, provider: provider, expiry: time.Now().Add(stateTTL)}
	r.mu.Unlock()

	return state, nil
}

// validateAndConsume checks state exists, matches provider, and has not
// expired, then removes it (single-use). Returns the embedded user_id.
func (r *stateRegistry) validateAndConsume(state, provider string) (string, error) {
	if !strings.Contains(state, ":") {
		return "", ErrInvalidState
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.states[state]
	if !ok {
		return "", ErrInvalidState
	}
	delete(r.states, state)

	if time.Now().After(entry.expiry) {
		return "", ErrInvalidState
	}
	if entry.provider != provider {
		return "", ErrInvalidState
	}

	return entry.userID, nil
}

func (r *stateRegistry) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()
		now := time.Now()
		for state, entry := range r.states {
			if now.After(entry.expiry) {
				delete(r.states, state)
			}
		}
		r.mu.Unlock()
	}
}

func randomNonce() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
