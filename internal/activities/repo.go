package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/trainingstats/internal/telemetry/metrics"
	"github.com/2beens/trainingstats/internal/telemetry/tracing"
	"github.com/2beens/trainingstats/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Repo is the postgres ActivityStore. It never writes.
type Repo struct {
	db             *pgxpool.Pool
	queryTimeout   time.Duration
	metricsManager *metrics.Manager
}

var _ ActivityStore = (*Repo)(nil)

type NewRepoParams struct {
	DB *pgxpool.Pool
	// QueryTimeout bounds every store call, pool acquisition included. 0 disables it.
	QueryTimeout   time.Duration
	MetricsManager *metrics.Manager
}

func NewRepo(params NewRepoParams) *Repo {
	return &Repo{
		db:             params.DB,
		queryTimeout:   params.QueryTimeout,
		metricsManager: params.MetricsManager,
	}
}

func (r *Repo) Find(ctx context.Context, filter Filter, order Order, limit int) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.find")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("order.field", string(order.Field)),
		attribute.Int("limit", limit),
	)

	defer r.observe("find", &err)()

	query, args, err := buildFindQuery(filter, order, limit)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire conn: %w", ErrStoreUnavailable, err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError("find", err)
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			if errors.Is(err, ErrQuery) {
				return nil, err
			}
			return nil, classifyError("find scan", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("find", err)
	}

	span.SetAttributes(attribute.Int("activities.count", len(activities)))
	return activities, nil
}

func (r *Repo) FindByID(ctx context.Context, id int64) (_ *Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.find-by-id")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	defer r.observe("find_by_id", &err)()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire conn: %w", ErrStoreUnavailable, err)
	}
	defer conn.Release()

	a, err := scanActivity(conn.QueryRow(ctx, buildFindByIDQuery(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if errors.Is(err, ErrQuery) {
			return nil, err
		}
		return nil, classifyError("find by id", err)
	}

	return &a, nil
}

func (r *Repo) Aggregate(ctx context.Context, q AggregateQuery) (_ []AggregateRow, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.aggregate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("op", string(q.Op)),
		attribute.String("field", string(q.Field)),
		attribute.String("group_by", string(q.GroupBy)),
	)

	defer r.observe("aggregate", &err)()

	query, args, err := buildAggregateQuery(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire conn: %w", ErrStoreUnavailable, err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError("aggregate", err)
	}
	defer rows.Close()

	grouped := q.GroupBy != GroupByNone
	result := make([]AggregateRow, 0)
	for rows.Next() {
		row, err := scanAggregateRow(rows, grouped)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("aggregate", err)
	}

	if !grouped && len(result) != 1 {
		return nil, fmt.Errorf("%w: ungrouped aggregate returned %d rows", ErrQuery, len(result))
	}

	return result, nil
}

// Ping checks the pool can reach the database.
func (r *Repo) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// observe records the op duration; the returned func must be deferred.
func (r *Repo) observe(op string, err *error) func() {
	if r.metricsManager == nil {
		return func() {}
	}
	timer := prometheus.NewTimer(r.metricsManager.HistogramStoreDuration.WithLabelValues(op))
	return func() {
		timer.ObserveDuration()
		if *err != nil {
			r.metricsManager.CounterStoreErrors.WithLabelValues(op, errorKind(*err)).Inc()
		}
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	default:
		return "query"
	}
}

// classifyError maps driver errors onto the store error kinds.
func classifyError(op string, err error) error {
	if pkg.IsConnectionError(err) {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	}
	if pkg.IsUndefinedError(err) {
		log.Errorf("activities %s: schema mismatch: %s", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrQuery, op, err)
}
