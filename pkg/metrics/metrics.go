// Package metrics declares the gateway's Prometheus instrumentation. The
// store operations (User Store, Credential Vault) and the Provider Session
// Cache record into it; the provider-call and MCP request metrics are
// declared here but no caller records into them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos.
const (
	DBOpCreateUser       = "create_user"
	DBOpGetUserByID      = "get_user_by_id"
	DBOpGetUserByEmail   = "get_user_by_email"
	DBOpTouchLastActive  = "touch_last_active"
	DBOpVaultPut         = "vault_put"
	DBOpVaultGet         = "vault_get"
	DBOpVaultClear       = "vault_clear"

	ProviderStrava = "strava"
	ProviderFitbit = "fitbit"

	ProviderOpAuthenticate  = "authenticate"
	ProviderOpGetAthlete    = "get_athlete"
	ProviderOpGetActivities = "get_activities"
	ProviderOpGetStats      = "get_stats"
	ProviderOpRefresh       = "refresh_token"

	MCPMethodInitialize     = "initialize"
	MCPMethodAuthenticate   = "authenticate"
	MCPMethodToolsCall      = "tools/call"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "fitsync_db_operation_duration_seconds",
			Help: "Duration of store operations.",
		},
		[]string{"operation"},
	)

	DBOperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_db_operation_errors_total",
			Help: "Total store operation errors.",
		},
		[]string{"operation"},
	)

	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "fitsync_provider_call_duration_seconds",
			Help: "Duration of upstream provider adapter calls.",
		},
		[]string{"provider", "operation"},
	)

	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_provider_calls_total",
			Help: "Total upstream provider adapter calls by outcome.",
		},
		[]string{"provider", "operation", "outcome"},
	)

	ProviderCacheBindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_provider_cache_bindings_total",
			Help: "Total adapter bindings created by the Provider Session Cache.",
		},
		[]string{"provider"},
	)

	MCPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "fitsync_mcp_request_duration_seconds",
			Help: "Duration of MCP JSON-RPC requests by method.",
		},
		[]string{"method"},
	)

	MCPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitsync_mcp_requests_total",
			Help: "Total MCP JSON-RPC requests by method and outcome.",
		},
		[]string{"method", "outcome"},
	)
)
