package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/fdg312/fitness-hub/internal/ai"
	"github.com/fdg312/fitness-hub/internal/auth"
	"github.com/fdg312/fitness-hub/internal/blob"
	"github.com/fdg312/fitness-hub/internal/config"
	"github.com/fdg312/fitness-hub/internal/events"
	"github.com/fdg312/fitness-hub/internal/exercises"
	"github.com/fdg312/fitness-hub/internal/foodlog"
	"github.com/fdg312/fitness-hub/internal/mealplans"
	"github.com/fdg312/fitness-hub/internal/nutrition"
	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/fdg312/fitness-hub/internal/storage/memory"
	"github.com/fdg312/fitness-hub/internal/storage/postgres"
	"github.com/fdg312/fitness-hub/internal/telemetry/metrics"
	"github.com/fdg312/fitness-hub/internal/workouts"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const (
	metricsNamespace = "fitness_hub"
	metricsSubsystem = "api"

	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server wires storage, services and routes of the API.
type Server struct {
	config      *config.Config
	router      *mux.Router
	storage     storage.Storage
	storageKind string
	redisClient *redis.Client
	hub         *events.Hub

	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry

	httpServer *http.Server
}

// New builds the server. Storage falls back to memory when Postgres is unreachable,
// revocations fall back to memory when Redis is unreachable.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	promRegistry := metrics.SetupPrometheus()

	s := &Server{
		config:         cfg,
		promRegistry:   promRegistry,
		metricsManager: metrics.NewManager(metricsNamespace, metricsSubsystem, promRegistry),
		hub:            events.NewHub(),
	}

	s.initStorage(ctx)

	if err := s.routerSetup(ctx); err != nil {
		return nil, multierr.Append(err, s.Close())
	}

	return s, nil
}

func (s *Server) initStorage(ctx context.Context) {
	if s.config.DatabaseURL == "" {
		log.Info("storage: using in-memory storage")
		s.storage = memory.New()
		s.storageKind = "memory"
		return
	}

	log.Info("storage: connecting to postgres")
	pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
	if err != nil {
		log.Errorf("storage: postgres connection failed: %s", err)
		log.Warn("storage: falling back to in-memory storage")
		s.storage = memory.New()
		s.storageKind = "memory"
		return
	}

	log.Info("storage: postgres connected")
	s.storage = pgStorage
	s.storageKind = "postgres"

	s.promRegistry.MustRegister(pgxpoolprometheus.NewCollector(
		pgStorage.Pool(),
		map[string]string{"db_name": "fitness_hub"},
	))
}

func (s *Server) initRevocations(ctx context.Context) auth.RevocationStore {
	if s.config.RedisAddr == "" {
		log.Info("auth: token revocations kept in memory")
		return auth.NewMemoryRevocationStore()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     s.config.RedisAddr,
		Password: s.config.RedisPassword,
		DB:       s.config.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Errorf("auth: redis ping %s failed: %s", s.config.RedisAddr, err)
		log.Warn("auth: token revocations kept in memory")
		if closeErr := rdb.Close(); closeErr != nil {
			log.Errorf("auth: close redis client: %s", closeErr)
		}
		return auth.NewMemoryRevocationStore()
	}

	log.Infof("auth: token revocations stored in redis at %s", s.config.RedisAddr)
	s.redisClient = rdb
	return auth.NewRedisRevocationStore(rdb)
}

func (s *Server) routerSetup(ctx context.Context) error {
	catalog, err := exercises.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("load exercise catalog: %w", err)
	}

	blobStore, blobMode, err := blob.NewBlobStore(ctx, s.config.Blob, log.StandardLogger())
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}
	log.Infof("blob: meal plan exports use mode=%s", blobMode)

	s.hub.OnPublish(func(ev events.Event) {
		s.metricsManager.CounterEventsPublished.WithLabelValues(ev.Type).Inc()
	})

	authService := auth.NewService(s.config, s.storage, s.initRevocations(ctx))
	authHandlers := auth.NewHandlers(authService)
	authMiddleware := auth.NewMiddleware(authService)

	exercisesService := exercises.NewService(catalog, s.config.SearchCacheMB)
	exercisesHandlers := exercises.NewHandlers(exercisesService)

	nutritionService := nutrition.NewService(s.storage, s.hub)
	nutritionHandler := nutrition.NewHandler(nutritionService)

	workoutsHandlers := workouts.NewHandlers(workouts.NewService(s.storage, catalog, s.hub))
	foodlogHandlers := foodlog.NewHandlers(foodlog.NewService(s.storage, nutritionService, s.hub))

	mealPlansService := mealplans.NewService(
		s.storage,
		nutritionService,
		ai.NewProvider(s.config),
		s.hub,
		mealplans.ExportConfig{
			Store:      blobStore,
			PresignTTL: time.Duration(s.config.ExportPresignTTLSeconds) * time.Second,
			Counter:    s.metricsManager.CounterMealPlanExports,
		},
	)
	mealPlansHandler := mealplans.NewHandler(mealPlansService)

	eventsHandlers := events.NewHandlers(s.hub)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{})).Methods("GET")

	// auth
	r.Handle("/v1/auth/signup", s.authRateLimit("signup", authHandlers.HandleSignUp)).Methods("POST")
	r.Handle("/v1/auth/signin", s.authRateLimit("signin", authHandlers.HandleSignIn)).Methods("POST")
	r.HandleFunc("/v1/auth/signout", authHandlers.HandleSignOut).Methods("POST")
	r.HandleFunc("/v1/auth/me", authHandlers.HandleMe).Methods("GET")

	// workouts
	r.HandleFunc("/v1/workouts/sessions", workoutsHandlers.HandleListSessions).Methods("GET")
	r.HandleFunc("/v1/workouts/sessions", workoutsHandlers.HandleStartSession).Methods("POST")
	r.HandleFunc("/v1/workouts/sessions/{id}/end", workoutsHandlers.HandleEndSession).Methods("POST")
	r.HandleFunc("/v1/workouts/sessions/{id}/sets", workoutsHandlers.HandleLogSet).Methods("POST")
	r.HandleFunc("/v1/workouts/sessions/{id}/sets", workoutsHandlers.HandleSessionSets).Methods("GET")
	r.HandleFunc("/v1/workouts/classes", workoutsHandlers.HandleLogClass).Methods("POST")
	r.HandleFunc("/v1/workouts/volume/weekly", workoutsHandlers.HandleWeeklyVolume).Methods("GET")
	r.HandleFunc("/v1/workouts/records", workoutsHandlers.HandleRecords).Methods("GET")

	// exercises; search is registered before {id}
	r.HandleFunc("/v1/exercises/muscle-groups", exercisesHandlers.HandleListMuscleGroups).Methods("GET")
	r.HandleFunc("/v1/exercises/search", exercisesHandlers.HandleSearch).Methods("GET")
	r.HandleFunc("/v1/exercises/{id}", exercisesHandlers.HandleGet).Methods("GET")

	// nutrition
	r.HandleFunc("/v1/nutrition/goals", nutritionHandler.HandleGetGoals).Methods("GET")
	r.HandleFunc("/v1/nutrition/goals", nutritionHandler.HandleUpdateGoals).Methods("PUT")
	r.HandleFunc("/v1/nutrition/scale", nutritionHandler.HandleScale).Methods("POST")

	// food log
	r.HandleFunc("/v1/food/entries", foodlogHandlers.HandleLog).Methods("POST")
	r.HandleFunc("/v1/food/entries/{id}", foodlogHandlers.HandleDelete).Methods("DELETE")
	r.HandleFunc("/v1/food/recent", foodlogHandlers.HandleRecent).Methods("GET")
	r.HandleFunc("/v1/food/day", foodlogHandlers.HandleDay).Methods("GET")

	// meal plans
	r.HandleFunc("/v1/meal-plans", mealPlansHandler.HandleList).Methods("GET")
	r.HandleFunc("/v1/meal-plans", mealPlansHandler.HandleCreate).Methods("POST")
	r.HandleFunc("/v1/meal-plans/generate", mealPlansHandler.HandleGenerate).Methods("POST")
	r.HandleFunc("/v1/meal-plans/{id}", mealPlansHandler.HandleGet).Methods("GET")
	r.HandleFunc("/v1/meal-plans/{id}", mealPlansHandler.HandleReplace).Methods("PUT")
	r.HandleFunc("/v1/meal-plans/{id}", mealPlansHandler.HandleDelete).Methods("DELETE")
	r.HandleFunc("/v1/meal-plans/{id}/shopping-list", mealPlansHandler.HandleShoppingList).Methods("GET")
	r.HandleFunc("/v1/meal-plans/{id}/export", mealPlansHandler.HandleExport).Methods("GET")

	// events
	r.HandleFunc("/v1/events", eventsHandlers.HandleStream).Methods("GET")

	r.Use(PanicRecovery(s.metricsManager))
	r.Use(RequestMetrics(s.metricsManager))
	r.Use(LogRequest())
	r.Use(authMiddleware.RequireAuth)
	r.Use(DrainAndCloseRequest())

	s.router = r
	return nil
}

// authRateLimit is a no-op without Redis; the per-IP limiter in Handler still applies.
func (s *Server) authRateLimit(routeName string, h http.HandlerFunc) http.Handler {
	var limiter RequestRateLimiter
	if s.redisClient != nil {
		limiter = redis_rate.NewLimiter(s.redisClient)
	}
	return AuthRateLimit(
		limiter,
		routeName,
		s.config.AuthRateLimitPerMin,
		s.metricsManager.CounterRateLimitedRequests,
	)(h)
}

// Handler returns the full chain, outermost first: CORS, rate limit, router.
func (s *Server) Handler() http.Handler {
	limited := RateLimit(
		s.config.RateLimitRPS,
		s.config.RateLimitBurst,
		s.metricsManager.CounterRateLimitedRequests,
	)(s.router)
	return CORS(s.config, limited)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": s.storageKind,
	})
}

// Start serves until Shutdown is called. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	log.Infof("server listening on http://localhost%s", s.httpServer.Addr)
	log.Infof("health check: http://localhost%s/healthz", s.httpServer.Addr)
	s.metricsManager.GaugeLifeSignal.Set(1)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.metricsManager.GaugeLifeSignal.Set(0)
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.metricsManager.GaugeLifeSignal.Set(0)

	var err error
	if s.httpServer != nil {
		log.Debug("server shutting down")
		err = multierr.Append(err, s.httpServer.Shutdown(ctx))
	}
	err = multierr.Append(err, s.Close())

	sentry.Flush(5 * time.Second)
	log.Debug("server shut down")
	return err
}

// Close releases storage and the Redis client.
func (s *Server) Close() error {
	var err error
	if s.storage != nil {
		err = multierr.Append(err, s.storage.Close())
	}
	if s.redisClient != nil {
		err = multierr.Append(err, s.redisClient.Close())
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
