package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/2beens/trainingstats/internal/activities"
)

// activityAnalyzer is the subset of activities.Analyzer used by the tools.
type activityAnalyzer interface {
	CountByDay(ctx context.Context, days int) ([]activities.DayCount, error)
	ListRecent(ctx context.Context, days int) ([]activities.Activity, error)
	TotalDistance(ctx context.Context, days int) (float64, error)
	AveragePace(ctx context.Context, days int) (*float64, error)
	WeeklyMileageTrend(ctx context.Context) ([]activities.WeeklyMileage, error)
	ActivityDetail(ctx context.Context, id int64) (*activities.Activity, error)
	BestEfforts(ctx context.Context) ([]activities.Activity, error)
}

// contextService is what Handler needs; implemented by ContextService.
type contextService interface {
	activityAnalyzer
	GetSchema(ctx context.Context) (string, error)
}

// ContextService exposes the activity analytics and the table schema to MCP tools.
type ContextService struct {
	activityAnalyzer
	schema SchemaRepo
}

func NewContextService(schemaRepo SchemaRepo, analyzer activityAnalyzer) *ContextService {
	return &ContextService{
		activityAnalyzer: analyzer,
		schema:           schemaRepo,
	}
}

// GetSchema returns the strava_activities columns as a markdown table.
func (s *ContextService) GetSchema(ctx context.Context) (string, error) {
	cols, err := s.schema.GetActivitiesColumns(ctx)
	if err != nil {
		return "", err
	}
	return formatActivitiesSchema(cols), nil
}

func formatActivitiesSchema(cols []SchemaColumn) string {
	var b strings.Builder
	b.WriteString("# Activities DB Schema\n\n")
	if len(cols) == 0 {
		b.WriteString("Table strava_activities not found in the database.\n")
		return b.String()
	}

	b.WriteString("## ")
	b.WriteString(activitiesTable)
	b.WriteString("\n\n| Column | Type | Nullable | Default |\n|--------|------|----------|--------|\n")
	for _, c := range cols {
		def := "-"
		if c.ColumnDef != nil && *c.ColumnDef != "" {
			def = *c.ColumnDef
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", c.ColumnName, c.DataType, c.IsNullable, def))
	}

	return b.String()
}
