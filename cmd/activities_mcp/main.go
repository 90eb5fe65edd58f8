// Package main runs the activities MCP server over stdio (for local editor/agent use).
// The same MCP server is also mounted on the main service at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/trainingstats/internal/activities"
	activitiesmcp "github.com/2beens/trainingstats/internal/activities/mcp"
	"github.com/2beens/trainingstats/internal/config"
	"github.com/2beens/trainingstats/internal/db"
	"github.com/2beens/trainingstats/internal/telemetry/metrics"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	secrets, err := config.LoadSecrets(ctx)
	if err != nil {
		log.Fatalf("load secrets: %v", err)
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         secrets.PostgresUser,
		DBPassword:     secrets.PostgresPassword,
		SSLMode:        cfg.PostgresSSLMode,
		MaxConns:       cfg.PostgresMaxConns,
		MinConns:       cfg.PostgresMinConns,
		TracingEnabled: false,
	})
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer dbPool.Close()

	// stdio mode has no metrics listener; store metrics go to a private registry
	repo := activities.NewRepo(activities.NewRepoParams{
		DB:             dbPool,
		QueryTimeout:   cfg.QueryTimeout.Duration,
		MetricsManager: metrics.NewManager("trainingstats", "mcp_stdio", nil),
	})
	server := activitiesmcp.NewServer(dbPool, repo, nil)

	// stdout belongs to the protocol; the std logger writes to stderr
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}
