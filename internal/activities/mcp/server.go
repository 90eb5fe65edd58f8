package mcp

import (
	"time"

	"github.com/2beens/trainingstats/internal/activities"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server with read-only activity analytics tools.
// Used by cmd/activities_mcp over stdio and mounted by the main service at /mcp.
func NewServer(pool *pgxpool.Pool, store activities.ActivityStore, now func() time.Time) *mcp.Server {
	analyzer := activities.NewAnalyzer(store, now)
	svc := NewContextService(NewPoolSchemaRepo(pool), analyzer)
	return newServer(NewHandler(svc))
}

func newServer(h *Handler) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "trainingstats",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_activities_schema",
		Description: "Returns the DB schema of the strava_activities table: columns, types, nullable, default.",
	}, h.GetActivitiesSchemaTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_activity_count_last_30_days",
		Description: "Returns the number of activities per UTC day over the last 30 days, oldest day first. Days without activities are omitted.",
	}, h.GetActivityCountLast30DaysTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_recent_activities",
		Description: "Returns all activities started in the last N days, newest first. Arg: days.",
	}, h.GetRecentActivitiesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_total_distance",
		Description: "Returns the total distance in meters of all activities in the last N days (0 when there are none). Arg: days.",
	}, h.GetTotalDistanceTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_average_pace",
		Description: "Returns the average pace (meters per hour) of runs in the last N days, ignoring runs without moving time. Null when no run qualifies. Arg: days.",
	}, h.GetAveragePaceTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_weekly_mileage_trend",
		Description: "Returns run distance in km for the 12 most recent ISO weeks with runs, newest week first. Weeks are keyed by their Monday (YYYY-MM-DD).",
	}, h.GetWeeklyMileageTrendTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_activity_details",
		Description: "Returns one activity by id. Arg: id.",
	}, h.GetActivityDetailsTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_best_efforts",
		Description: "Returns the 5 longest runs, longest first.",
	}, h.GetBestEffortsTool())

	return s
}
