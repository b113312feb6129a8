package mcpserver

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fitsync/gateway/pkg/intelligence"
	"github.com/fitsync/gateway/pkg/providers"
)

type toolHandlerFunc func(ctx context.Context, s *Server, userID string, args map[string]any) (any, error)

type toolDef struct {
	name    string
	handler toolHandlerFunc
}

func toolHandlers() []toolDef {
	return []toolDef{
		{"get_activities", handleGetActivities},
		{"get_athlete", handleGetAthlete},
		{"get_stats", handleGetStats},
		{"get_activity_intelligence", handleGetActivityIntelligence},
		{"connect_strava", handleConnectProvider("strava")},
		{"connect_fitbit", handleConnectProvider("fitbit")},
		{"get_connection_status", handleGetConnectionStatus},
		{"disconnect_provider", handleDisconnectProvider},
	}
}

func initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": "2024-11-05",
		"serverInfo": map[string]any{
			"name":    "fitsync-gateway",
			"version": "1.0.0",
		},
		"capabilities": map[string]any{
			"tools": toolSchemas(),
		},
	}
}

func toolSchemas() []mcp.Tool {
	return toolCatalog()
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", invalidParams("missing required argument %q", name)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", invalidParams("argument %q must be a non-empty string", name)
	}
	return s, nil
}

func intArgOrDefault(args map[string]any, name string, def int) int {
	v, ok := args[name]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

// withRefreshRetry calls fn via the cached provider binding; on an upstream
// unauthorized error it refreshes the stored token once, invalidates the
// cached binding, and retries exactly once.
func withRefreshRetry(ctx context.Context, s *Server, userID, providerName string, fn func(providers.Provider) (any, error)) (any, error) {
	p, err := s.cache.Get(ctx, userID, providerName)
	if err != nil {
		return nil, err
	}

	result, err := fn(p)
	if err == nil || !errors.Is(err, providers.ErrUnauthorized) {
		return result, err
	}

	if refreshErr := s.oauth.RefreshToken(ctx, userID, providerName); refreshErr != nil {
		return nil, err
	}
	s.cache.Invalidate(userID, providerName)

	p, err = s.cache.Get(ctx, userID, providerName)
	if err != nil {
		return nil, err
	}
	return fn(p)
}

func handleGetActivities(ctx context.Context, s *Server, userID string, args map[string]any) (any, error) {
	providerName, err := stringArg(args, "provider")
	if err != nil {
		return nil, err
	}
	limit := intArgOrDefault(args, "limit", 20)
	offset := intArgOrDefault(args, "offset", 0)

	return withRefreshRetry(ctx, s, userID, providerName, func(p providers.Provider) (any, error) {
		return p.GetActivities(ctx, limit, offset)
	})
}

func handleGetAthlete(ctx context.Context, s *Server, userID string, args map[string]any) (any, error) {
	providerName, err := stringArg(args, "provider")
	if err != nil {
		return nil, err
	}
	return withRefreshRetry(ctx, s, userID, providerName, func(p providers.Provider) (any, error) {
		return p.GetAthlete(ctx)
	})
}

func handleGetStats(ctx context.Context, s *Server, userID string, args map[string]any) (any, error) {
	providerName, err := stringArg(args, "provider")
	if err != nil {
		return nil, err
	}
	return withRefreshRetry(ctx, s, userID, providerName, func(p providers.Provider) (any, error) {
		return p.GetStats(ctx)
	})
}

func handleGetActivityIntelligence(ctx context.Context, s *Server, userID string, args map[string]any) (any, error) {
	providerName, err := stringArg(args, "provider")
	if err != nil {
		return nil, err
	}
	activityID, err := stringArg(args, "activity_id")
	if err != nil {
		return nil, err
	}

	result, err := withRefreshRetry(ctx, s, userID, providerName, func(p providers.Provider) (any, error) {
		return findActivity(ctx, p, activityID)
	})
	if err != nil {
		return nil, err
	}
	activity, ok := result.(*providers.Activity)
	if !ok || activity == nil {
		return nil, invalidParams("activity %q not found", activityID)
	}

	return intelligence.Analyze(*activity, nil), nil
}

// findActivity scans a bounded window of recent activities for activityID,
// since the Provider Adapter Contract has no get-by-id operation.
func findActivity(ctx context.Context, p providers.Provider, activityID string) (*providers.Activity, error) {
	const scanWindow = 100
	activities, err := p.GetActivities(ctx, scanWindow, 0)
	if err != nil {
		return nil, err
	}
	for i := range activities {
		if activities[i].ID == activityID {
			return &activities[i], nil
		}
	}
	return nil, nil
}

func handleConnectProvider(providerName string) toolHandlerFunc {
	return func(_ context.Context, s *Server, userID string, _ map[string]any) (any, error) {
		result, err := s.oauth.BeginLink(userID, providerName)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"authorization_url": result.AuthorizationURL,
			"state":             result.State,
			"ttl_seconds":       int(result.TTL.Seconds()),
		}, nil
	}
}

func handleGetConnectionStatus(_ context.Context, s *Server, userID string, _ map[string]any) (any, error) {
	return s.oauth.ConnectionStatusFor(userID)
}

func handleDisconnectProvider(_ context.Context, s *Server, userID string, args map[string]any) (any, error) {
	providerName, err := stringArg(args, "provider")
	if err != nil {
		return nil, err
	}
	if err := s.oauth.Disconnect(userID, providerName); err != nil {
		return nil, err
	}
	return map[string]any{"disconnected": true, "provider": providerName}, nil
}
