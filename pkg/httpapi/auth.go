package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitsync/gateway/pkg/oauthlink"
	"github.com/fitsync/gateway/pkg/session"
	"github.com/fitsync/gateway/pkg/users"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthRoutes serves account registration and login.
type AuthRoutes struct {
	users    *users.Store
	sessions *session.Authority
	oauth    *oauthlink.Service
}

// AuthRouter mounts the registration and login endpoints.
func AuthRouter(userStore *users.Store, sessions *session.Authority, oauth *oauthlink.Service) http.Handler {
	routes := &AuthRoutes{users: userStore, sessions: sessions, oauth: oauth}

	r := chi.NewRouter()
	r.Post("/register", errorHandler(routes.register))
	r.Post("/login", errorHandler(routes.login))
	return r
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type registerResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (a *AuthRoutes) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest(fmt.Errorf("malformed request body"))
	}

	if !emailPattern.MatchString(req.Email) {
		return errBadRequest(fmt.Errorf("invalid email address"))
	}
	if len(req.Password) < minPasswordLength {
		return errBadRequest(fmt.Errorf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u, err := a.users.Create(req.Email, string(hash), req.DisplayName)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			return errBadRequest(fmt.Errorf("an account with this email already exists"))
		}
		return fmt.Errorf("create user: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(registerResponse{UserID: u.ID, Message: "account created"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	JWTToken  string       `json:"jwt_token"`
	ExpiresAt string       `json:"expires_at"`
	User      loginUserDTO `json:"user"`
}

type loginUserDTO struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// login never distinguishes between an unknown email and a wrong password:
// both collapse to the same generic message so a caller can't enumerate
// registered accounts.
func (a *AuthRoutes) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest(fmt.Errorf("malformed request body"))
	}

	invalidCredentials := errBadRequest(fmt.Errorf("Invalid email or password"))

	u, err := a.users.ByEmail(req.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return invalidCredentials
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return invalidCredentials
	}

	connected, err := a.oauth.ConnectionStatusFor(u.ID)
	if err != nil {
		return fmt.Errorf("load connection status: %w", err)
	}
	var providers []string
	for _, c := range connected {
		if c.Connected {
			providers = append(providers, c.Provider)
		}
	}

	if err := a.users.TouchLastActive(u.ID); err != nil {
		return fmt.Errorf("touch last active: %w", err)
	}

	bearer, expiresAt, err := a.sessions.Issue(u.ID, u.Email, providers)
	if err != nil {
		return fmt.Errorf("issue session: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(loginResponse{
		JWTToken:  bearer,
		ExpiresAt: expiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		User: loginUserDTO{
			UserID:      u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
		},
	})
}
