package activities_test

import (
	"context"
	"sort"
	"time"

	"github.com/2beens/trainingstats/internal/activities"
)

// memStore evaluates ActivityStore queries over a slice, the way postgres would.
type memStore struct {
	activities []activities.Activity
}

var _ activities.ActivityStore = (*memStore)(nil)

func (s *memStore) match(f activities.Filter, a activities.Activity) bool {
	if !f.Since.IsZero() && a.StartDate.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !a.StartDate.Before(f.Until) {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	return true
}

func (s *memStore) Find(_ context.Context, filter activities.Filter, order activities.Order, limit int) ([]activities.Activity, error) {
	res := make([]activities.Activity, 0)
	for _, a := range s.activities {
		if s.match(filter, a) {
			res = append(res, a)
		}
	}

	less := func(a, b activities.Activity) bool {
		switch order.Field {
		case activities.OrderByDistance:
			return a.Distance < b.Distance
		case activities.OrderByStartDate:
			return a.StartDate.Before(b.StartDate)
		default:
			return a.ID < b.ID
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if order.Desc {
			return less(res[j], res[i])
		}
		return less(res[i], res[j])
	})

	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *memStore) FindByID(_ context.Context, id int64) (*activities.Activity, error) {
	for _, a := range s.activities {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, activities.ErrNotFound
}

func (s *memStore) Aggregate(_ context.Context, q activities.AggregateQuery) ([]activities.AggregateRow, error) {
	type acc struct {
		sum   float64
		count int
	}
	groups := map[time.Time]*acc{}

	for _, a := range s.activities {
		if !s.match(q.Filter, a) {
			continue
		}

		var key time.Time
		day := time.Date(a.StartDate.UTC().Year(), a.StartDate.UTC().Month(), a.StartDate.UTC().Day(), 0, 0, 0, 0, time.UTC)
		switch q.GroupBy {
		case activities.GroupByDay:
			key = day
		case activities.GroupByWeek:
			offset := (int(day.Weekday()) + 6) % 7 // days since Monday
			key = day.AddDate(0, 0, -offset)
		}

		var value float64
		switch q.Field {
		case activities.FieldDistance:
			value = a.Distance
		case activities.FieldMovingTime:
			value = float64(a.MovingTime)
		case activities.FieldPace:
			if a.MovingTime == 0 {
				if q.Op != activities.OpCount {
					continue
				}
			} else {
				value = a.Distance / float64(a.MovingTime) * 3600
			}
		}

		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
		}
		g.sum += value
		g.count++
	}

	valueOf := func(g *acc) *float64 {
		var v float64
		switch q.Op {
		case activities.OpCount:
			v = float64(g.count)
		case activities.OpSum:
			v = g.sum
		case activities.OpAvg:
			v = g.sum / float64(g.count)
		}
		return &v
	}

	if q.GroupBy == activities.GroupByNone {
		g, ok := groups[time.Time{}]
		if !ok {
			if q.Op == activities.OpCount {
				zero := 0.0
				return []activities.AggregateRow{{Value: &zero}}, nil
			}
			return []activities.AggregateRow{{Value: nil}}, nil
		}
		return []activities.AggregateRow{{Value: valueOf(g)}}, nil
	}

	rows := make([]activities.AggregateRow, 0, len(groups))
	for k, g := range groups {
		rows = append(rows, activities.AggregateRow{Key: k, Value: valueOf(g)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if q.Descending {
			return rows[i].Key.After(rows[j].Key)
		}
		return rows[i].Key.Before(rows[j].Key)
	})
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}
