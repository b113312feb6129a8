package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitsync/gateway/pkg/audit"
	"github.com/fitsync/gateway/pkg/oauthlink"
	"github.com/fitsync/gateway/pkg/providercache"
	"github.com/fitsync/gateway/pkg/session"
	"github.com/fitsync/gateway/pkg/store"
	"github.com/fitsync/gateway/pkg/users"
	"github.com/fitsync/gateway/pkg/vault"
)

func newTestServer(t *testing.T) (*Server, *session.Authority, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Conn().Exec(`INSERT INTO users (id, email, password_hash, created_at, last_active, active)
		VALUES ('u1', 'a@b.co', 'hash', 0, 0, 1)`)
	require.NoError(t, err)

	v, err := vault.New(db, make([]byte, 32))
	require.NoError(t, err)

	cache := providercache.New(v, map[string]providercache.ProviderConfig{
		"strava": {ClientID: "id", ClientSecret: "secret"},
	})
	oauth := oauthlink.New(v, cache, map[string]oauthlink.ClientConfig{
		"strava": {ClientID: "id", ClientSecret: "secret", RedirectURI: "https://example.com/callback"},
	})

	sessions := session.New([]byte("test-secret"), time.Hour)
	userStore := users.New(db)
	srv := New(sessions, userStore, cache, oauth, audit.NewAuditor(nil))

	return srv, sessions, "u1"
}

func TestInitializeReturnsToolCatalog(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp := srv.dispatch(context.Background(), Request{JSONRPC: "2.0", Method: "initialize", ID: 1})
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
}

func TestToolsCallWithoutAuthIsRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)
	params, _ := json.Marshal(ToolsCallParams{Name: "get_activities", Arguments: map[string]any{"provider": "strava"}})
	resp := srv.dispatch(context.Background(), Request{JSONRPC: "2.0", Method: "tools/call", Params: params, ID: 2})

	require.NotNil(t, resp.Error)
	require.Equal(t, CodeUnauthorized, resp.Error.Code)
	require.Contains(t, resp.Error.Message, "Authentication required")
}

func TestToolsCallWithNoStoredTokenReturnsInternalError(t *testing.T) {
	srv, sessions, userID := newTestServer(t)
	bearer, _, err := sessions.Issue(userID, "a@b.co", nil)
	require.NoError(t, err)

	params, _ := json.Marshal(ToolsCallParams{Name: "get_activities", Arguments: map[string]any{"provider": "strava"}})
	resp := srv.dispatch(context.Background(), Request{
		JSONRPC: "2.0", Method: "tools/call", Params: params, ID: 3, Auth: "Bearer " + bearer,
	})

	require.NotNil(t, resp.Error)
	require.Equal(t, CodeInternalError, resp.Error.Code)
	require.Contains(t, resp.Error.Message, "No valid token")
}

func TestToolsCallUnknownToolReturnsMethodNotFound(t *testing.T) {
	srv, sessions, userID := newTestServer(t)
	bearer, _, err := sessions.Issue(userID, "a@b.co", nil)
	require.NoError(t, err)

	params, _ := json.Marshal(ToolsCallParams{Name: "nonexistent_tool"})
	resp := srv.dispatch(context.Background(), Request{
		JSONRPC: "2.0", Method: "tools/call", Params: params, ID: 4, Auth: "Bearer " + bearer,
	})

	require.NotNil(t, resp.Error)
	require.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestAuthenticateReportsAvailableProviders(t *testing.T) {
	srv, sessions, userID := newTestServer(t)
	bearer, _, err := sessions.Issue(userID, "a@b.co", []string{"strava"})
	require.NoError(t, err)

	params, _ := json.Marshal(AuthenticateParams{Token: bearer})
	resp := srv.dispatch(context.Background(), Request{JSONRPC: "2.0", Method: "authenticate", Params: params, ID: 5})

	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, result["authenticated"])
	require.Equal(t, userID, result["user_id"])
	require.Equal(t, []string{"strava"}, result["available_providers"])
}

func TestConnectionRemainsOpenAfterUnauthorizedCall(t *testing.T) {
	srv, _, _ := newTestServer(t)

	params, _ := json.Marshal(ToolsCallParams{Name: "get_activities"})
	resp := srv.dispatch(context.Background(), Request{JSONRPC: "2.0", Method: "tools/call", Params: params, ID: 6})
	require.Equal(t, CodeUnauthorized, resp.Error.Code)

	initResp := srv.dispatch(context.Background(), Request{JSONRPC: "2.0", Method: "initialize", ID: 7})
	require.Nil(t, initResp.Error)
}
