package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/matthew-ngzc/fitandfast/internal/config"
	"github.com/matthew-ngzc/fitandfast/internal/db"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/achievements"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/catalog"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/completion"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/cycle"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/history"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/profile"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/recommend"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/streak"
	"github.com/matthew-ngzc/fitandfast/internal/middleware"
	"github.com/matthew-ngzc/fitandfast/internal/telemetry/metrics"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
}

type NewServerParams struct {
	Config         *config.Config
	RedisPassword  string
	VersionInfo    string
	TracingEnabled bool
}

func NewServer(ctx context.Context, params NewServerParams) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "fitandfast", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// the achievement rules are reference data, make sure they exist
	achievementsRepo := achievements.NewRepo(dbPool)
	if err := achievementsRepo.EnsureDefaultRules(ctx); err != nil {
		return nil, fmt.Errorf("ensure default achievement rules: %w", err)
	}

	return &Server{
		config:         params.Config,
		dbPool:         dbPool,
		redisClient:    rdb,
		versionInfo:    params.VersionInfo,
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	profileRepo := profile.NewRepo(s.dbPool)
	historyRepo := history.NewRepo(s.dbPool)
	achievementsRepo := achievements.NewRepo(s.dbPool)
	catalogRepo := catalog.NewRepo(s.dbPool)
	catalogCache := catalog.NewCache(catalogRepo, s.redisClient)

	achievementsEngine := achievements.NewEngine(achievementsRepo, s.metricsManager)
	streakTracker := streak.NewTracker(profileRepo, historyRepo, achievementsEngine)
	orchestrator := completion.NewOrchestrator(
		catalogRepo,
		historyRepo,
		streakTracker,
		achievementsEngine,
	)
	selector := recommend.NewSelector(profileRepo, catalogCache)

	completionHandler := completion.NewHandler(orchestrator, s.metricsManager)
	r.HandleFunc("/fitness/complete", completionHandler.HandleComplete).Methods("POST", "OPTIONS").Name("complete-workout")

	recommendHandler := recommend.NewHandler(selector, s.metricsManager)
	r.HandleFunc("/fitness/recommendation", recommendHandler.HandleDaily).Methods("GET", "OPTIONS").Name("daily-recommendation")

	cycleHandler := cycle.NewHandler(profileRepo)
	r.HandleFunc("/fitness/cycle", cycleHandler.HandleGet).Methods("GET", "OPTIONS").Name("cycle-info")

	streakHandler := streak.NewHandler(profileRepo)
	r.HandleFunc("/fitness/progress", streakHandler.HandleGetProgress).Methods("GET", "OPTIONS").Name("progress")

	achievementsHandler := achievements.NewHandler(achievementsRepo)
	r.HandleFunc("/fitness/achievements", achievementsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-achievements")
	r.HandleFunc("/fitness/achievements/seed", achievementsHandler.HandleSeed).Methods("POST", "OPTIONS").Name("seed-achievements")

	historyHandler := history.NewHandler(historyRepo)
	r.HandleFunc("/fitness/history/page/{page}/size/{size}", historyHandler.HandleList).Methods("GET", "OPTIONS").Name("list-history")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

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
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

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

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
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
