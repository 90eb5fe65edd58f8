package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/trainingstats/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// MaxWindowDays caps "last N days" windows at roughly a century.
	MaxWindowDays = 36500

	RunType          = "Run"
	CountWindowDays  = 30
	WeeklyTrendWeeks = 12
	BestEffortsLimit = 5
)

// Analyzer defines the analytical operations over an ActivityStore.
// It holds no state besides its dependencies and is safe for concurrent use.
type Analyzer struct {
	store ActivityStore
	now   func() time.Time
}

// NewAnalyzer returns an Analyzer reading the current time from now,
// or from time.Now when now is nil.
func NewAnalyzer(store ActivityStore, now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		store: store,
		now:   now,
	}
}

// window returns [now - days, now). ok is false for the empty window (days == 0).
func (a *Analyzer) window(days int) (_ Filter, ok bool, err error) {
	if days < 0 || days > MaxWindowDays {
		return Filter{}, false, fmt.Errorf("%w: days must be within [0, %d], got %d", ErrInvalidArgument, MaxWindowDays, days)
	}
	if days == 0 {
		return Filter{}, false, nil
	}

	now := a.now().UTC()
	return Filter{
		Since: now.AddDate(0, 0, -days),
		Until: now,
	}, true, nil
}

// CountByDay counts activities per UTC calendar day in the last days, oldest day first.
func (a *Analyzer) CountByDay(ctx context.Context, days int) (_ []DayCount, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.count-by-day")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("days", days))

	filter, ok, err := a.window(days)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []DayCount{}, nil
	}

	rows, err := a.store.Aggregate(ctx, AggregateQuery{
		Op:      OpCount,
		Filter:  filter,
		GroupBy: GroupByDay,
	})
	if err != nil {
		return nil, fmt.Errorf("count by day: %w", err)
	}

	counts := make([]DayCount, 0, len(rows))
	for _, row := range rows {
		var count int64
		if row.Value != nil {
			count = int64(*row.Value)
		}
		counts = append(counts, DayCount{
			Date:  NewCalendarDate(row.Key),
			Count: count,
		})
	}

	return counts, nil
}

// ListRecent returns activities started in the last days, newest first.
func (a *Analyzer) ListRecent(ctx context.Context, days int) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.list-recent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("days", days))

	filter, ok, err := a.window(days)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Activity{}, nil
	}

	activities, err := a.store.Find(ctx, filter, Order{Field: OrderByStartDate, Desc: true}, 0)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	if activities == nil {
		activities = []Activity{}
	}

	return activities, nil
}

// TotalDistance sums the distance (meters) of activities in the last days; 0 when there are none.
func (a *Analyzer) TotalDistance(ctx context.Context, days int) (_ float64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.total-distance")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("days", days))

	filter, ok, err := a.window(days)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	total, err := a.scalar(ctx, AggregateQuery{
		Op:     OpSum,
		Field:  FieldDistance,
		Filter: filter,
	})
	if err != nil {
		return 0, fmt.Errorf("total distance: %w", err)
	}
	if total == nil {
		return 0, nil
	}

	return *total, nil
}

// AveragePace averages distance / moving_time * 3600 over the Runs in the last days.
// Runs without moving time are left out. The result is nil, not 0, when no Run qualifies.
func (a *Analyzer) AveragePace(ctx context.Context, days int) (_ *float64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.average-pace")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("days", days))

	filter, ok, err := a.window(days)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	filter.Type = RunType

	avg, err := a.scalar(ctx, AggregateQuery{
		Op:     OpAvg,
		Field:  FieldPace,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("average pace: %w", err)
	}

	return avg, nil
}

// WeeklyMileageTrend returns the Run distance (km) of the 12 most recent ISO weeks
// having any Run, newest week first. Weeks without Runs are not filled in.
func (a *Analyzer) WeeklyMileageTrend(ctx context.Context) (_ []WeeklyMileage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.weekly-mileage-trend")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := a.store.Aggregate(ctx, AggregateQuery{
		Op:         OpSum,
		Field:      FieldDistance,
		Filter:     Filter{Type: RunType},
		GroupBy:    GroupByWeek,
		Descending: true,
		Limit:      WeeklyTrendWeeks,
	})
	if err != nil {
		return nil, fmt.Errorf("weekly mileage trend: %w", err)
	}

	trend := make([]WeeklyMileage, 0, len(rows))
	for _, row := range rows {
		var meters float64
		if row.Value != nil {
			meters = *row.Value
		}
		trend = append(trend, WeeklyMileage{
			Week:             NewCalendarDate(row.Key),
			WeeklyDistanceKm: meters / 1000,
		})
	}

	return trend, nil
}

// ActivityDetail returns the activity with the given id, or ErrNotFound.
func (a *Analyzer) ActivityDetail(ctx context.Context, id int64) (_ *Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.detail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	activity, err := a.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("activity %d: %w", id, err)
	}

	return activity, nil
}

// BestEfforts returns the 5 longest Runs, longest first. The order of Runs
// with equal distance is up to the store.
func (a *Analyzer) BestEfforts(ctx context.Context) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.activities.best-efforts")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	activities, err := a.store.Find(
		ctx,
		Filter{Type: RunType},
		Order{Field: OrderByDistance, Desc: true},
		BestEffortsLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("best efforts: %w", err)
	}
	if activities == nil {
		activities = []Activity{}
	}

	return activities, nil
}

func (a *Analyzer) scalar(ctx context.Context, q AggregateQuery) (*float64, error) {
	rows, err := a.store.Aggregate(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%w: expected a single aggregate row, got %d", ErrQuery, len(rows))
	}
	return rows[0].Value, nil
}
