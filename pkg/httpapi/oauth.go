package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fitsync/gateway/pkg/oauthlink"
)

// OAuthRoutes serves the provider linkage handshake: beginning the
// authorization redirect and completing it once the provider calls back.
type OAuthRoutes struct {
	oauth *oauthlink.Service
}

// OAuthRouter mounts the provider linkage endpoints.
func OAuthRouter(oauth *oauthlink.Service) http.Handler {
	routes := &OAuthRoutes{oauth: oauth}

	r := chi.NewRouter()
	r.Get("/auth/{provider}/{userID}", errorHandler(routes.begin))
	r.Get("/callback/{provider}", errorHandler(routes.callback))
	return r
}

type beginLinkResponse struct {
	AuthorizationURL  string `json:"authorization_url"`
	State             string `json:"state"`
	Instructions      string `json:"instructions"`
	ExpiresInMinutes  int    `json:"expires_in_minutes"`
}

func (o *OAuthRoutes) begin(w http.ResponseWriter, r *http.Request) error {
	provider := chi.URLParam(r, "provider")
	userID := chi.URLParam(r, "userID")

	result, err := o.oauth.BeginLink(userID, provider)
	if err != nil {
		if errors.Is(err, oauthlink.ErrUnsupportedProvider) {
			return errNotFound(err)
		}
		return fmt.Errorf("begin link: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(beginLinkResponse{
		AuthorizationURL: result.AuthorizationURL,
		State:            result.State,
		Instructions:     "Open authorization_url in a browser and approve access, then the provider redirects back to this gateway.",
		ExpiresInMinutes: int(result.TTL.Minutes()),
	})
}

type callbackResponse struct {
	UserID    string `json:"user_id"`
	Provider  string `json:"provider"`
	ExpiresAt string `json:"expires_at"`
	Scope     string `json:"scope"`
}

func (o *OAuthRoutes) callback(w http.ResponseWriter, r *http.Request) error {
	provider := chi.URLParam(r, "provider")
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if code == "" || state == "" {
		return errBadRequest(fmt.Errorf("code and state query parameters are required"))
	}

	result, err := o.oauth.CompleteLink(r.Context(), code, state, provider)
	if err != nil {
		switch {
		case errors.Is(err, oauthlink.ErrInvalidState):
			return errBadRequest(err)
		case errors.Is(err, oauthlink.ErrUnsupportedProvider):
			return errNotFound(err)
		case errors.Is(err, oauthlink.ErrExchangeFailed):
			return errBadRequest(err)
		default:
			return fmt.Errorf("complete link: %w", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(callbackResponse{
		UserID:    result.UserID,
		Provider:  provider,
		ExpiresAt: result.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Scope:     result.Scope,
	})
}
