package activities

import (
	"fmt"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanActivity maps a row field by field. Missing required fields or a
// negative distance fail with ErrQuery instead of leaking zero values.
func scanActivity(row rowScanner) (Activity, error) {
	var (
		id         *int64
		name       *string
		distance   *float64
		movingTime *int64
		actType    *string
		startDate  *time.Time
	)
	if err := row.Scan(&id, &name, &distance, &movingTime, &actType, &startDate); err != nil {
		return Activity{}, err
	}

	switch {
	case id == nil:
		return Activity{}, fmt.Errorf("%w: activity row without id", ErrQuery)
	case distance == nil:
		return Activity{}, fmt.Errorf("%w: activity %d without distance", ErrQuery, *id)
	case *distance < 0:
		return Activity{}, fmt.Errorf("%w: activity %d with negative distance %f", ErrQuery, *id, *distance)
	case actType == nil:
		return Activity{}, fmt.Errorf("%w: activity %d without type", ErrQuery, *id)
	case startDate == nil:
		return Activity{}, fmt.Errorf("%w: activity %d without start date", ErrQuery, *id)
	}

	a := Activity{
		ID:        *id,
		Distance:  *distance,
		Type:      *actType,
		StartDate: startDate.UTC(),
	}
	if name != nil {
		a.Name = *name
	}
	if movingTime != nil {
		a.MovingTime = int(*movingTime)
	}

	return a, nil
}

func scanAggregateRow(row rowScanner, grouped bool) (AggregateRow, error) {
	var (
		key   *time.Time
		value *float64
		err   error
	)
	if grouped {
		err = row.Scan(&key, &value)
	} else {
		err = row.Scan(&value)
	}
	if err != nil {
		return AggregateRow{}, fmt.Errorf("%w: scan aggregate row: %w", ErrQuery, err)
	}

	if !grouped {
		return AggregateRow{Value: value}, nil
	}
	if key == nil {
		return AggregateRow{}, fmt.Errorf("%w: aggregate group without key", ErrQuery)
	}
	return AggregateRow{Key: key.UTC(), Value: value}, nil
}
