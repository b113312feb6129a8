// Package session implements the Session Authority: minting and validating
// bearer session tokens that bind a user identity, an expiry, and the set of
// providers available at issue time.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Sentinel errors returned by Validate/ValidateSignatureOnly/Refresh.
var (
	ErrExpired      = errors.New("session expired")
	ErrBadSignature = errors.New("bad session signature")
	ErrMalformed    = errors.New("malformed session token")
)

// Claims is the decoded payload of a session bearer token.
type Claims struct {
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	Providers []string `json:"providers"`
	// Nonce is minted fresh on every issue/refresh so that two tokens issued
	// within the same wall-clock second are still distinct, without relying
	// on sub-second iat resolution.
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// Authority mints and validates session bearer tokens under a single
// process-wide HMAC secret.
type Authority struct {
	secret     []byte
	tokenTTL   time.Duration
}

// New constructs an Authority from a secret loaded once at startup and the
// configured session token lifetime.
func New(secret []byte, tokenTTL time.Duration) *Authority {
	return &Authority{secret: secret, tokenTTL: tokenTTL}
}

// Issue mints a new bearer token for user, bound to the supplied providers.
func (a *Authority) Issue(userID, email string, providers []string) (bearer string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(a.tokenTTL)

	claims := Claims{
		UserID:    userID,
		Email:     email,
		Providers: providers,
		Nonce:     uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks signature AND expiry.
func (a *Authority) Validate(bearer string) (*Claims, error) {
	return a.parse(bearer, true)
}

// ValidateSignatureOnly checks the signature but tolerates expiry, for use by
// Refresh and diagnostic lookups of user_id from an expired token.
func (a *Authority) ValidateSignatureOnly(bearer string) (*Claims, error) {
	return a.parse(bearer, false)
}

// Refresh mints a new bearer for user, provided the old bearer's signature is
// intact (expiry is not required to still hold).
func (a *Authority) Refresh(oldBearer string, userID, email string, providers []string) (string, time.Time, error) {
	claims, err := a.ValidateSignatureOnly(oldBearer)
	if err != nil {
		return "", time.Time{}, err
	}
	if claims.UserID != userID {
		return "", time.Time{}, ErrBadSignature
	}
	return a.Issue(userID, email, providers)
}

func (a *Authority) parse(bearer string, requireUnexpired bool) (*Claims, error) {
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if !requireUnexpired {
		// Signature-only mode: the caller (Refresh, diagnostics) explicitly
		// wants to tolerate expiry, so claims validation is skipped entirely
		// and only the signature is checked.
		parserOpts = append(parserOpts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(bearer, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, parserOpts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		default:
			return nil, ErrMalformed
		}
	}

	if !token.Valid {
		return nil, ErrBadSignature
	}
	if claims.UserID == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}
