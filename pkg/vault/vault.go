// Package vault implements the Credential Vault: an authenticated-encryption
// wrapper around per-user, per-provider third-party OAuth2 token storage.
package vault

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/fitsync/gateway/pkg/metrics"
	"github.com/fitsync/gateway/pkg/store"
)

// ErrStorageFailure wraps any underlying database error.
var ErrStorageFailure = errors.New("vault storage failure")

// ErrDecryptFailure indicates the stored ciphertext failed authentication;
// it is never masked by returning partial or stale plaintext.
var ErrDecryptFailure = errors.New("vault decrypt failure")

// ErrUnsupportedProvider is returned for any provider name with no dedicated
// column group in the schema.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// TokenRecord is the plaintext form of a stored provider credential triple.
type TokenRecord struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
}

var supportedProviders = map[string]bool{
	"strava": true,
	"fitbit": true,
}

// Vault encrypts and persists TokenRecords using XChaCha20-Poly1305, keyed by
// a single process-wide key loaded once at startup.
type Vault struct {
	db  *store.DB
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

// New constructs a Vault from a 32-byte raw key.
func New(db *store.DB, key []byte) (*Vault, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init vault cipher: %w", err)
	}
	return &Vault{db: db, aead: aead}, nil
}

// Put encrypts and stores a TokenRecord for (userID, provider). Each secret is
// sealed independently under a nonce fresh for this call.
func (v *Vault) Put(userID, provider string, rec TokenRecord) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpVaultPut))
	defer timer.ObserveDuration()

	if !supportedProviders[provider] {
		return ErrUnsupportedProvider
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("%w: generate nonce: %v", ErrStorageFailure, err)
	}

	sealedAccess := v.aead.Seal(nil, nonce, []byte(rec.AccessToken), nil)
	sealedRefresh := v.aead.Seal(nil, nonce, []byte(rec.RefreshToken), nil)

	query := fmt.Sprintf(
		`UPDATE users SET %s_access_token = ?, %s_refresh_token = ?, %s_expires_at = ?, %s_scope = ?, %s_nonce = ?
		 WHERE id = ?`,
		provider, provider, provider, provider, provider,
	)

	_, err := v.db.Conn().Exec(query,
		sealedAccess, sealedRefresh, rec.ExpiresAt.Unix(), rec.Scope, nonce, userID,
	)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpVaultPut).Inc()
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return nil
}

// Get retrieves and decrypts the TokenRecord for (userID, provider). Returns
// nil, nil if no credential has ever been stored for that pair.
func (v *Vault) Get(userID, provider string) (*TokenRecord, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpVaultGet))
	defer timer.ObserveDuration()

	if !supportedProviders[provider] {
		return nil, ErrUnsupportedProvider
	}

	query := fmt.Sprintf(
		`SELECT %s_access_token, %s_refresh_token, %s_expires_at, %s_scope, %s_nonce
		 FROM users WHERE id = ?`,
		provider, provider, provider, provider, provider,
	)

	var access, refresh, nonce []byte
	var scope sql.NullString
	var expiresAt sql.NullInt64

	row := v.db.Conn().QueryRow(query, userID)
	if err := row.Scan(&access, &refresh, &expiresAt, &scope, &nonce); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpVaultGet).Inc()
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if access == nil || refresh == nil || nonce == nil {
		return nil, nil
	}

	plainAccess, err := v.aead.Open(nil, nonce, access, nil)
	if err != nil {
		return nil, ErrDecryptFailure
	}
	plainRefresh, err := v.aead.Open(nil, nonce, refresh, nil)
	if err != nil {
		return nil, ErrDecryptFailure
	}

	return &TokenRecord{
		AccessToken:  string(plainAccess),
		RefreshToken: string(plainRefresh),
		ExpiresAt:    time.Unix(expiresAt.Int64, 0).UTC(),
		Scope:        scope.String,
	}, nil
}

// Clear wipes the stored TokenRecord for (userID, provider). Idempotent.
func (v *Vault) Clear(userID, provider string) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpVaultClear))
	defer timer.ObserveDuration()

	if !supportedProviders[provider] {
		return ErrUnsupportedProvider
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s_access_token = NULL, %s_refresh_token = NULL, %s_expires_at = NULL,
		 %s_scope = NULL, %s_nonce = NULL WHERE id = ?`,
		provider, provider, provider, provider, provider,
	)
	_, err := v.db.Conn().Exec(query, userID)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpVaultClear).Inc()
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return nil
}
