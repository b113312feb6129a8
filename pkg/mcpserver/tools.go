package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// toolCatalog builds the ToolSchema list advertised by initialize, one
// mcp.Tool per dispatchable name.
func toolCatalog() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool("get_activities",
			mcp.WithDescription("List recent activities from a linked provider"),
			mcp.WithString("provider", mcp.Required(), mcp.Description("strava or fitbit")),
			mcp.WithNumber("limit", mcp.Description("max activities to return, default 20")),
			mcp.WithNumber("offset", mcp.Description("pagination offset, default 0")),
		),
		mcp.NewTool("get_athlete",
			mcp.WithDescription("Fetch the linked athlete's profile from a provider"),
			mcp.WithString("provider", mcp.Required(), mcp.Description("strava or fitbit")),
		),
		mcp.NewTool("get_stats",
			mcp.WithDescription("Fetch aggregate stats from a provider (lifetime totals for Strava, a scan of recent activities for Fitbit)"),
			mcp.WithString("provider", mcp.Required(), mcp.Description("strava or fitbit")),
		),
		mcp.NewTool("get_activity_intelligence",
			mcp.WithDescription("Analyze one activity: effort, zones, personal records, and a natural-language summary"),
			mcp.WithString("provider", mcp.Required(), mcp.Description("strava or fitbit")),
			mcp.WithString("activity_id", mcp.Required(), mcp.Description("provider-specific activity id")),
		),
		mcp.NewTool("connect_strava",
			mcp.WithDescription("Begin the OAuth2 linkage flow for Strava"),
		),
		mcp.NewTool("connect_fitbit",
			mcp.WithDescription("Begin the OAuth2 linkage flow for Fitbit"),
		),
		mcp.NewTool("get_connection_status",
			mcp.WithDescription("Report linkage status across all configured providers"),
		),
		mcp.NewTool("disconnect_provider",
			mcp.WithDescription("Clear stored credentials for a provider"),
			mcp.WithString("provider", mcp.Required(), mcp.Description("strava or fitbit")),
		),
	}
}
