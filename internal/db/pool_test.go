package db

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	cases := []struct {
		name     string
		params   NewDBPoolParams
		expected string
	}{
		{
			name:     "default user",
			params:   NewDBPoolParams{DBHost: "localhost", DBPort: "5432", DBName: "strava"},
			expected: "postgres://postgres@localhost:5432/strava",
		},
		{
			name: "user password sslmode",
			params: NewDBPoolParams{
				DBHost: "db", DBPort: "5433", DBName: "strava",
				DBUser: "runner", DBPassword: "p@ss/word", SSLMode: "require",
			},
			expected: "postgres://runner:p%40ss%2Fword@db:5433/strava?sslmode=require",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			connStr := ConnString(tc.params)
			assert.Equal(t, tc.expected, connStr)

			cfg, err := pgxpool.ParseConfig(connStr)
			require.NoError(t, err)
			assert.Equal(t, tc.params.DBName, cfg.ConnConfig.Database)
			if tc.params.DBPassword != "" {
				assert.Equal(t, tc.params.DBPassword, cfg.ConnConfig.Password)
			}
		})
	}
}
