package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/trainingstats/internal/activities"
	activitiesmcp "github.com/2beens/trainingstats/internal/activities/mcp"
	"github.com/2beens/trainingstats/internal/config"
	"github.com/2beens/trainingstats/internal/db"
	"github.com/2beens/trainingstats/internal/middleware"
	"github.com/2beens/trainingstats/internal/telemetry/metrics"
	"github.com/2beens/trainingstats/internal/telemetry/tracing"
	"github.com/2beens/trainingstats/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const healthCheckTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config        *config.Config
	dbPool        *pgxpool.Pool
	activityStore activities.ActivityStore
	dbPinger      pinger
	now           func() time.Time

	// nil when rate limiting is disabled
	redisClient *redis.Client

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	Secrets                 *config.Secrets
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	secrets := params.Secrets
	if secrets == nil {
		secrets = &config.Secrets{}
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
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("trainingstats", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	var rdb *redis.Client
	if cfg.RateLimitAllowedPerMin > 0 {
		rdb = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: secrets.RedisPassword,
			DB:       0, // use default DB
		})

		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	} else {
		log.Debugln("rate limiting disabled, redis not used")
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, secrets.OtelServiceName, rdb)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	repo := activities.NewRepo(activities.NewRepoParams{
		DB:             dbPool,
		QueryTimeout:   cfg.QueryTimeout.Duration,
		MetricsManager: metricsManager,
	})

	return &Server{
		config:        cfg,
		dbPool:        dbPool,
		activityStore: repo,
		dbPinger:      repo,
		versionInfo:   params.VersionInfo,
		redisClient:   rdb,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	analyzer := activities.NewAnalyzer(s.activityStore, s.now)
	activitiesHandler := activities.NewHandler(analyzer)
	activitiesHandler.SetupRoutes(r)

	r.HandleFunc("/healthz", s.handleHealth).Methods("GET", "OPTIONS").Name("healthz")
	r.HandleFunc("/version", s.handleVersion).Methods("GET", "OPTIONS").Name("version")

	if s.config.MCPEnabled {
		mcpServer := activitiesmcp.NewServer(s.dbPool, s.activityStore, s.now)
		mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return mcpServer
		}, nil)
		r.Handle("/mcp", otelhttp.NewHandler(mcpHandler, "mcp")).Name("mcp")
	}

	// all the rest - unhandled paths
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.RequestID())
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	if s.config.RateLimitAllowedPerMin > 0 {
		if s.redisClient == nil {
			return nil, errors.New("rate limiting enabled but redis client not set")
		}
		r.Use(middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			"main-router",
			s.config.RateLimitAllowedPerMin,
			s.metricsManager,
		))
	}
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.dbPinger.Ping(ctx); err != nil {
		log.Errorf("health check, db ping: %s", err)
		pkg.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: "db"})
		return
	}

	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			log.Errorf("health check, redis ping: %s", err)
			pkg.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: "redis"})
			return
		}
	}

	pkg.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, s.versionInfo)
}

func (s *Server) Serve(host string, port int) error {
	router, err := s.routerSetup()
	if err != nil {
		return fmt.Errorf("setup router: %w", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
	return nil
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop accepting requests first, so in-flight ones can still use the pool
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown http server: %s", err)
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown metrics http server: %s", err)
		}
		log.Warnln("metrics server shut down")
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
