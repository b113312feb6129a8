// Package users implements the User Store: a durable mapping of user_id to
// user record with a unique, case-insensitive email index.
package users

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fitsync/gateway/pkg/metrics"
	"github.com/fitsync/gateway/pkg/store"
)

// ErrEmailTaken is returned by Create when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// ErrNotFound is returned when a lookup finds no matching user.
var ErrNotFound = errors.New("user not found")

// User is a local account record.
type User struct {
	ID            string
	Email         string
	DisplayName   string
	PasswordHash  string
	CreatedAt     time.Time
	LastActive    time.Time
	Active        bool
}

// Store is the User Store, backed by sqlite.
type Store struct {
	db *store.DB
}

// New wraps db as a User Store.
func New(db *store.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new user with a freshly minted ID, returning it.
// The email is canonicalized to lowercase before the uniqueness check.
func (s *Store) Create(email, passwordHash, displayName string) (*User, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpCreateUser))
	defer timer.ObserveDuration()

	email = strings.ToLower(strings.TrimSpace(email))

	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		LastActive:   time.Now().UTC(),
		Active:       true,
	}

	_, err := s.db.Conn().Exec(
		`INSERT INTO users (id, email, display_name, password_hash, created_at, last_active, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt.Unix(), u.LastActive.Unix(), u.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpCreateUser).Inc()
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// ByID looks up a user by their opaque ID.
func (s *Store) ByID(userID string) (*User, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpGetUserByID))
	defer timer.ObserveDuration()

	return s.scanOne(s.db.Conn().QueryRow(
		`SELECT id, email, display_name, password_hash, created_at, last_active, active
		 FROM users WHERE id = ?`, userID))
}

// ByEmail looks up a user by email, case-insensitively.
func (s *Store) ByEmail(email string) (*User, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpGetUserByEmail))
	defer timer.ObserveDuration()

	email = strings.ToLower(strings.TrimSpace(email))
	return s.scanOne(s.db.Conn().QueryRow(
		`SELECT id, email, display_name, password_hash, created_at, last_active, active
		 FROM users WHERE email = ?`, email))
}

// TouchLastActive updates a user's last-active timestamp to now.
func (s *Store) TouchLastActive(userID string) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpTouchLastActive))
	defer timer.ObserveDuration()

	_, err := s.db.Conn().Exec(`UPDATE users SET last_active = ? WHERE id = ?`, time.Now().UTC().Unix(), userID)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpTouchLastActive).Inc()
		return fmt.Errorf("touch last active: %w", err)
	}
	return nil
}

func (*Store) scanOne(row *sql.Row) (*User, error) {
	var u User
	var createdAt, lastActive int64
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &createdAt, &lastActive, &u.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.LastActive = time.Unix(lastActive, 0).UTC()
	return &u, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
