package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitsync/gateway/pkg/oauthlink"
	"github.com/fitsync/gateway/pkg/providercache"
	"github.com/fitsync/gateway/pkg/session"
	"github.com/fitsync/gateway/pkg/store"
	"github.com/fitsync/gateway/pkg/users"
	"github.com/fitsync/gateway/pkg/vault"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	v, err := vault.New(db, make([]byte, 32))
	require.NoError(t, err)

	userStore := users.New(db)
	cache := providercache.New(v, map[string]providercache.ProviderConfig{
		"strava": {ClientID: "id", ClientSecret: "secret"},
	})
	oauth := oauthlink.New(v, cache, map[string]oauthlink.ClientConfig{
		"strava": {ClientID: "id", ClientSecret: "secret", RedirectURI: "https://example.com/callback"},
	})
	sessions := session.New([]byte("test-secret"), time.Hour)

	return NewRouter(userStore, sessions, oauth)
}

func TestRegisterCreatesAccount(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"new@user.co","password":"longenough","display_name":"New User"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp registerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.UserID)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"new@user.co","password":"short"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	r := newTestRouter(t)

	body := `{"email":"dup@user.co","password":"longenough"}`
	first := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	r.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, second)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginSucceedsWithCorrectPassword(t *testing.T) {
	r := newTestRouter(t)

	register := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"login@user.co","password":"correcthorse"}`))
	r.ServeHTTP(httptest.NewRecorder(), register)

	login := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"login@user.co","password":"correcthorse"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, login)

	require.Equal(t, http.StatusOK, w.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JWTToken)
	require.Equal(t, "login@user.co", resp.User.Email)
}

func TestLoginRejectsWrongPasswordWithGenericMessage(t *testing.T) {
	r := newTestRouter(t)

	register := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"wrongpw@user.co","password":"correcthorse"}`))
	r.ServeHTTP(httptest.NewRecorder(), register)

	login := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"wrongpw@user.co","password":"incorrect"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, login)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid email or password")
}

func TestLoginRejectsUnknownEmailWithSameGenericMessage(t *testing.T) {
	r := newTestRouter(t)

	login := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ghost@user.co","password":"whatever1"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, login)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid email or password")
}
