package activities

import (
	"encoding/json"
	"time"
)

// Activity is one immutable record from strava_activities.
type Activity struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Distance   float64   `json:"distance"`    // meters
	MovingTime int       `json:"moving_time"` // seconds
	Type       string    `json:"type"`
	StartDate  time.Time `json:"start_date"`
}

// CalendarDate is a UTC day, serialized as YYYY-MM-DD.
type CalendarDate struct {
	time.Time
}

func NewCalendarDate(t time.Time) CalendarDate {
	y, m, d := t.UTC().Date()
	return CalendarDate{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d CalendarDate) String() string {
	return d.Format(time.DateOnly)
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

type DayCount struct {
	Date  CalendarDate `json:"date"`
	Count int64        `json:"count"`
}

// WeeklyMileage holds the Run distance of one ISO week, keyed by its Monday.
type WeeklyMileage struct {
	Week             CalendarDate `json:"week"`
	WeeklyDistanceKm float64      `json:"weekly_distance_km"`
}
