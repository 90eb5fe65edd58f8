//go:build integration_test || all_tests

package activities

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/2beens/trainingstats/internal/db"
	"github.com/2beens/trainingstats/internal/telemetry/metrics"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaSQL = `
CREATE TABLE public.strava_activities
(
    id          BIGINT PRIMARY KEY,
    name        VARCHAR,
    distance    DOUBLE PRECISION,
    moving_time INTEGER,
    type        VARCHAR,
    start_date  TIMESTAMPTZ
);
CREATE INDEX ix_strava_activities_start_date ON public.strava_activities (start_date);
`

// now is Wednesday, its ISO week starts on Monday 2024-05-13
var integrationNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

type seedActivity struct {
	id         int64
	name       any
	distance   any
	movingTime any
	actType    any
	startDate  any
}

func postgresSetup(t *testing.T) (*sql.DB, string) {
	t.Helper()

	dockerPool, err := dockertest.NewPool("")
	require.NoError(t, err)
	require.NoError(t, dockerPool.Client.Ping())

	pgResource, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=strava",
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgResource.Close(); err != nil {
			t.Logf("postgres teardown: %s", err)
		}
	})

	pgPort := pgResource.GetPort("5432/tcp")
	dsn := fmt.Sprintf("postgres://postgres@localhost:%s/strava?sslmode=disable", pgPort)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, dockerPool.Retry(sqlDB.Ping))

	_, err = sqlDB.Exec(schemaSQL)
	require.NoError(t, err)

	return sqlDB, pgPort
}

func seed(t *testing.T, sqlDB *sql.DB, rows ...seedActivity) {
	t.Helper()
	for _, r := range rows {
		_, err := sqlDB.Exec(
			`INSERT INTO strava_activities (id, name, distance, moving_time, type, start_date) VALUES ($1, $2, $3, $4, $5, $6)`,
			r.id, r.name, r.distance, r.movingTime, r.actType, r.startDate,
		)
		require.NoError(t, err)
	}
}

func TestRepo_Integration(t *testing.T) {
	sqlDB, pgPort := postgresSetup(t)
	ctx := context.Background()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:   "localhost",
		DBPort:   pgPort,
		DBName:   "strava",
		SSLMode:  "disable",
		MaxConns: 4,
	})
	require.NoError(t, err)
	defer dbPool.Close()

	repo := NewRepo(NewRepoParams{
		DB:             dbPool,
		QueryTimeout:   5 * time.Second,
		MetricsManager: metrics.NewTestManager(),
	})
	analyzer := NewAnalyzer(repo, func() time.Time { return integrationNow })

	seed(t, sqlDB,
		// window edges for a 7 day window: [2024-05-08 10:00, 2024-05-15 10:00)
		seedActivity{1, "edge start", 1000.0, 300, "Run", integrationNow.AddDate(0, 0, -7)},
		seedActivity{2, "before start", 2000.0, 600, "Run", integrationNow.AddDate(0, 0, -7).Add(-time.Second)},
		seedActivity{3, "at now", 3000.0, 900, "Run", integrationNow},
		seedActivity{4, "long ride", 40000.0, 5400, "Ride", integrationNow.Add(-26 * time.Hour)},
		seedActivity{5, "treadmill, no time", 5000.0, 0, "Run", integrationNow.Add(-25 * time.Hour)},
		seedActivity{6, nil, 10000.0, 3600, "Run", integrationNow.Add(-2 * time.Hour)},
		seedActivity{7, "null moving time", 4000.0, nil, "Run", integrationNow.AddDate(0, 0, -3)},
		seedActivity{8, "marathon", 42195.0, 14400, "Run", integrationNow.AddDate(0, 0, -60)},
	)

	t.Run("list recent is half open and newest first", func(t *testing.T) {
		recent, err := analyzer.ListRecent(ctx, 7)
		require.NoError(t, err)

		ids := make([]int64, 0, len(recent))
		for _, a := range recent {
			ids = append(ids, a.ID)
			assert.Equal(t, time.UTC, a.StartDate.Location())
		}
		assert.Equal(t, []int64{6, 5, 4, 7, 1}, ids)
	})

	t.Run("nullable columns", func(t *testing.T) {
		a, err := analyzer.ActivityDetail(ctx, 6)
		require.NoError(t, err)
		assert.Equal(t, "", a.Name)
		assert.Equal(t, 3600, a.MovingTime)

		a, err = analyzer.ActivityDetail(ctx, 7)
		require.NoError(t, err)
		assert.Zero(t, a.MovingTime)
	})

	t.Run("not found", func(t *testing.T) {
		a, err := analyzer.ActivityDetail(ctx, 123456)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, a)
	})

	t.Run("total distance", func(t *testing.T) {
		total, err := analyzer.TotalDistance(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 1000.0+40000+5000+10000+4000, total)

		total, err = analyzer.TotalDistance(ctx, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("average pace skips zero and null moving time", func(t *testing.T) {
		pace, err := analyzer.AveragePace(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, pace)
		// runs 1 (1000m/300s) and 6 (10000m/3600s)
		expected := (1000.0/300*3600 + 10000.0/3600*3600) / 2
		assert.InDelta(t, expected, *pace, 1e-6)
	})

	t.Run("average pace without eligible runs is null", func(t *testing.T) {
		onlyNow := NewAnalyzer(repo, func() time.Time { return integrationNow.AddDate(-5, 0, 0) })
		pace, err := onlyNow.AveragePace(ctx, 30)
		require.NoError(t, err)
		assert.Nil(t, pace)
	})

	t.Run("count by day", func(t *testing.T) {
		counts, err := analyzer.CountByDay(ctx, 7)
		require.NoError(t, err)
		require.NotEmpty(t, counts)
		for i := 1; i < len(counts); i++ {
			assert.True(t, counts[i-1].Date.Before(counts[i].Date.Time))
		}
		var total int64
		for _, c := range counts {
			total += c.Count
		}
		assert.Equal(t, int64(5), total)
	})

	t.Run("weekly mileage trend", func(t *testing.T) {
		trend, err := analyzer.WeeklyMileageTrend(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, trend)
		assert.LessOrEqual(t, len(trend), WeeklyTrendWeeks)

		assert.Equal(t, "2024-05-13", trend[0].Week.String())
		for i, w := range trend {
			assert.Equal(t, time.Monday, w.Week.Weekday())
			if i > 0 {
				assert.True(t, w.Week.Before(trend[i-1].Week.Time))
			}
		}
		// runs 3, 5 and 6; the ride in the same week is not counted
		assert.InDelta(t, 18.0, trend[0].WeeklyDistanceKm, 1e-9)
		// 2024-05-06 week, then the marathon week, nothing in between
		require.Len(t, trend, 3)
		assert.InDelta(t, 7.0, trend[1].WeeklyDistanceKm, 1e-9)
		assert.Equal(t, "2024-03-11", trend[2].Week.String())
	})

	t.Run("best efforts", func(t *testing.T) {
		best, err := analyzer.BestEfforts(ctx)
		require.NoError(t, err)
		require.Len(t, best, BestEffortsLimit)
		assert.Equal(t, int64(8), best[0].ID)
		for i, a := range best {
			assert.Equal(t, RunType, a.Type)
			if i > 0 {
				assert.LessOrEqual(t, a.Distance, best[i-1].Distance)
			}
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := analyzer.ListRecent(cancelled, 7)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("malformed row", func(t *testing.T) {
		seed(t, sqlDB, seedActivity{99, "no type", 1000.0, 300, nil, integrationNow.Add(-time.Minute)})
		defer func() {
			_, err := sqlDB.Exec(`DELETE FROM strava_activities WHERE id = 99`)
			require.NoError(t, err)
		}()

		_, err := analyzer.ActivityDetail(ctx, 99)
		assert.ErrorIs(t, err, ErrQuery)
		_, err = analyzer.ListRecent(ctx, 1)
		assert.ErrorIs(t, err, ErrQuery)
	})

	t.Run("connections are released", func(t *testing.T) {
		assert.Equal(t, int32(0), dbPool.Stat().AcquiredConns())
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}
