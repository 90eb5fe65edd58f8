package activities

import (
	"context"
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=activities_test

// ActivityStore is the read-only view over the activity collection.
type ActivityStore interface {
	// Find returns matching activities in the given order; limit 0 means no limit.
	// The result is never nil.
	Find(ctx context.Context, filter Filter, order Order, limit int) ([]Activity, error)
	// FindByID returns ErrNotFound when there is no activity with the given id.
	FindByID(ctx context.Context, id int64) (*Activity, error)
	Aggregate(ctx context.Context, query AggregateQuery) ([]AggregateRow, error)
}

// Filter is a conjunction of optional predicates. Zero fields are ignored.
type Filter struct {
	Since time.Time // start_date >= Since
	Until time.Time // start_date < Until
	Type  string    // type = Type
}

type OrderField string

const (
	OrderByStartDate OrderField = "start_date"
	OrderByDistance  OrderField = "distance"
	OrderByID        OrderField = "id"
)

type Order struct {
	Field OrderField
	Desc  bool
}

type AggregateOp string

const (
	OpCount AggregateOp = "count"
	OpSum   AggregateOp = "sum"
	OpAvg   AggregateOp = "avg"
)

type AggregateField string

const (
	FieldDistance   AggregateField = "distance"
	FieldMovingTime AggregateField = "moving_time"
	// FieldPace is distance / moving_time * 3600; rows with zero moving time have no pace.
	FieldPace AggregateField = "pace"
)

type GroupBy string

const (
	GroupByNone GroupBy = ""
	GroupByDay  GroupBy = "day"  // UTC calendar date
	GroupByWeek GroupBy = "week" // ISO week, keyed by its Monday (UTC)
)

type AggregateQuery struct {
	Op      AggregateOp
	Field   AggregateField // ignored for OpCount
	Filter  Filter
	GroupBy GroupBy
	// Descending orders grouped rows by key, newest first.
	Descending bool
	// Limit bounds the number of groups; 0 means no limit.
	Limit int
}

// AggregateRow is one aggregate value. Key is zero for ungrouped queries,
// Value is nil when the aggregate is SQL NULL (sum/avg over no rows).
type AggregateRow struct {
	Key   time.Time
	Value *float64
}
