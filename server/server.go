package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"soundscape/cache"
	"soundscape/config"
	"soundscape/core/analytics"
	"soundscape/core/recommend"
	"soundscape/core/search"
	"soundscape/db"
	"soundscape/logger"
	"soundscape/repository"
	"soundscape/storage"
	"soundscape/store/mongostore"
)

// Start wires the catalog together and runs the HTTP server until SIGINT or
// SIGTERM.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	ctx := context.Background()

	mongoClient, database, err := db.ConnectMongo(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", logger.ErrorField(err))
	}
	defer func() {
		if err := db.DisconnectMongo(context.Background(), mongoClient); err != nil {
			logger.Warn("failed to disconnect from MongoDB", logger.ErrorField(err))
		}
	}()
	logger.Info("connected to MongoDB", logger.String("database", cfg.MongoDatabase))

	soundStore := mongostore.New(database, cfg.SoundCollection)
	if err := soundStore.EnsureIndexes(ctx); err != nil {
		logger.Fatal("failed to create indexes", logger.ErrorField(err))
	}

	// The analytics cache is an optimization; the server runs without Redis.
	var analyticsCache *cache.AnalyticsCache
	if redisClient, err := db.ConnectRedis(cfg); err != nil {
		logger.Warn("redis unavailable, analytics cache disabled", logger.ErrorField(err))
	} else {
		defer redisClient.Close()
		analyticsCache = cache.NewAnalyticsCache(redisClient, time.Duration(cfg.AnalyticsCacheTTLSec)*time.Second)
		logger.Info("analytics cache enabled",
			logger.Int("ttlSeconds", cfg.AnalyticsCacheTTLSec))
	}

	audioStorage, err := storage.NewAudioStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize audio storage", logger.ErrorField(err))
	}

	repo := repository.NewSoundRepository(soundStore)
	searchEngine := search.NewEngine(soundStore)
	analyticsEngine := analytics.NewEngine(soundStore, analyticsCache)
	recommendEngine := recommend.NewEngine(soundStore)

	soundHandler := NewSoundHandler(repo, searchEngine, audioStorage, analyticsCache, cfg)
	analyticsHandler := NewAnalyticsHandler(analyticsEngine, searchEngine, recommendEngine)

	router := NewRouter(soundHandler, analyticsHandler, cfg)

	// Audio objects stream straight out of the bucket.
	router.PathPrefix(strings.TrimSuffix(cfg.AudioBaseURL, "/") + "/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		objectName := strings.TrimPrefix(r.URL.Path, strings.TrimSuffix(cfg.AudioBaseURL, "/")+"/")
		object, err := audioStorage.Object(r.Context(), objectName)
		if err != nil {
			http.Error(w, "audio not found", http.StatusNotFound)
			return
		}
		defer object.Close()
		if _, err := io.Copy(w, object); err != nil {
			logger.Warn("audio stream interrupted", logger.ErrorField(err))
		}
	})

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("addr", cfg.ServerAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", logger.ErrorField(err))
	}
}

// NewRouter builds the API router with CORS middleware. It is separate from
// Start so the handler tests can mount the exact production routes.
func NewRouter(sounds *SoundHandler, stats *AnalyticsHandler, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware(cfg.FrontendURL))

	// Preflight requests must reach the CORS middleware, which only runs on
	// matched routes.
	router.PathPrefix("/api/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	router.HandleFunc("/api/health", healthHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/sounds", sounds.GetSoundsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/sounds", sounds.CreateSoundHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/sounds/{id}", sounds.GetSoundHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/sounds/{id}", sounds.UpdateSoundHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/sounds/{id}", sounds.DeleteSoundHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/sounds/{id}/tags", sounds.AddTagHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/analytics/emotions", stats.EmotionsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/analytics/tags", stats.TagsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/analytics/locations", stats.LocationsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/analytics/timeline", stats.TimelineHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/analytics/search", stats.SearchHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/analytics/recommendations/{id}", stats.RecommendationsHandler).Methods(http.MethodGet)

	return router
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "SoundScape catalog API is running",
	})
}

func corsMiddleware(origin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
