package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/2beens/trainingstats/internal/activities"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler turns tool calls into service calls and formats MCP results.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

// NoInput is the input of tools without arguments.
type NoInput struct{}

// DaysInput is the input of the "last N days" tools.
type DaysInput struct {
	Days int `json:"days" jsonschema:"Number of trailing days, 0 to 36500"`
}

// IDInput is the input for get_activity_details.
type IDInput struct {
	ID int64 `json:"id" jsonschema:"Activity id"`
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// jsonResult encodes v, or describes what failed. Store details are not leaked to the client.
func jsonResult(what string, v any, err error) *mcp.CallToolResult {
	if err != nil {
		switch {
		case errors.Is(err, activities.ErrNotFound):
			return errorResult("Activity not found")
		case errors.Is(err, activities.ErrInvalidArgument):
			return errorResult(err.Error())
		default:
			return errorResult("Error fetching " + what + ": activity store failure")
		}
	}

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return textResult(string(raw))
}

func (h *Handler) GetActivitiesSchemaTool() func(context.Context, *mcp.CallToolRequest, NoInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetSchema(ctx)
		if err != nil {
			return errorResult("Error fetching schema: " + err.Error()), nil, nil
		}
		return textResult(text), nil, nil
	}
}

func (h *Handler) GetActivityCountLast30DaysTool() func(context.Context, *mcp.CallToolRequest, NoInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
		counts, err := h.service.CountByDay(ctx, activities.CountWindowDays)
		return jsonResult("activity counts", counts, err), nil, nil
	}
}

func (h *Handler) GetRecentActivitiesTool() func(context.Context, *mcp.CallToolRequest, DaysInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in DaysInput) (*mcp.CallToolResult, any, error) {
		recent, err := h.service.ListRecent(ctx, in.Days)
		return jsonResult("recent activities", recent, err), nil, nil
	}
}

func (h *Handler) GetTotalDistanceTool() func(context.Context, *mcp.CallToolRequest, DaysInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in DaysInput) (*mcp.CallToolResult, any, error) {
		total, err := h.service.TotalDistance(ctx, in.Days)
		return jsonResult("total distance", activities.TotalDistanceResponse{TotalDistance: total}, err), nil, nil
	}
}

func (h *Handler) GetAveragePaceTool() func(context.Context, *mcp.CallToolRequest, DaysInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in DaysInput) (*mcp.CallToolResult, any, error) {
		pace, err := h.service.AveragePace(ctx, in.Days)
		return jsonResult("average pace", activities.AveragePaceResponse{AveragePace: pace}, err), nil, nil
	}
}

func (h *Handler) GetWeeklyMileageTrendTool() func(context.Context, *mcp.CallToolRequest, NoInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
		trend, err := h.service.WeeklyMileageTrend(ctx)
		return jsonResult("weekly mileage trend", trend, err), nil, nil
	}
}

func (h *Handler) GetActivityDetailsTool() func(context.Context, *mcp.CallToolRequest, IDInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in IDInput) (*mcp.CallToolResult, any, error) {
		activity, err := h.service.ActivityDetail(ctx, in.ID)
		return jsonResult("activity details", activity, err), nil, nil
	}
}

func (h *Handler) GetBestEffortsTool() func(context.Context, *mcp.CallToolRequest, NoInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, any, error) {
		best, err := h.service.BestEfforts(ctx)
		return jsonResult("best efforts", best, err), nil, nil
	}
}
