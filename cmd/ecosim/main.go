package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"landcycle/cmd/ecosim/api"
	"landcycle/cmd/ecosim/runtime"
	"landcycle/internal/ecosim/auth"
	"landcycle/internal/ecosim/cache"
	"landcycle/internal/ecosim/config"
	"landcycle/internal/ecosim/eventlog"
	"landcycle/internal/ecosim/store"
	"landcycle/internal/logging"
	"landcycle/internal/metrics"
)

func main() {
	logging.InitLogger()
	log.Println("Starting terrain/vegetation ecosystem control plane...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate with: openssl rand -hex 32")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long for security")
	}
	tokenManager := auth.NewTokenManager([]byte(jwtSecret))

	cfgPath := os.Getenv("ECOSIM_CONFIG_FILE")
	var cfg *config.Config
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatal("Failed to load config file:", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	manager := runtime.NewManager()

	// Postgres checkpoint store (optional: scenarios still run without it,
	// they just can't be persisted across a restart).
	if dbDSN := os.Getenv("DATABASE_URL"); dbDSN != "" {
		dbPool, err := pgxpool.New(ctx, dbDSN)
		if err != nil {
			log.Printf("WARNING: failed to connect to Postgres, checkpointing disabled: %v", err)
		} else {
			if _, err := dbPool.Exec(ctx, store.Schema); err != nil {
				log.Printf("WARNING: failed to apply checkpoint schema: %v", err)
			} else {
				manager.Store = store.NewPostgresRepository(dbPool)
				defer dbPool.Close()
				log.Println("INFO: checkpointing enabled")
			}
		}
	}

	// Mongo event log (optional: audit trail of dispatched kernel events).
	if mongoURI := os.Getenv("MONGO_URI"); mongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
		if err != nil {
			log.Printf("WARNING: failed to connect to MongoDB, event log disabled: %v", err)
		} else {
			dbName := os.Getenv("MONGO_DATABASE")
			if dbName == "" {
				dbName = "ecosim"
			}
			manager.EventLog = eventlog.NewLog(mongoClient.Database(dbName))
			defer mongoClient.Disconnect(ctx)
			log.Println("INFO: event log enabled")
		}
	}

	// Redis query cache (optional: fronts repeated sunlight queries).
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("WARNING: failed to connect to Redis, query cache disabled: %v", err)
		} else {
			manager.QueryCache = cache.NewQueryCache(redisClient, 60*time.Second)
			log.Println("INFO: query cache enabled")
		}
	}

	// NATS tick broadcaster (optional: external dashboards/observers
	// following a scenario without polling the HTTP API).
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		nc, err := nats.Connect(natsURL, nats.Name("ecosim"))
		if err != nil {
			log.Printf("WARNING: failed to connect to NATS, tick broadcast disabled: %v", err)
		} else {
			defer nc.Close()
			manager.NATSConn = nc
			log.Println("INFO: tick broadcast enabled")
		}
	}

	concurrency := 8
	scenarioHandler := api.NewScenarioHandler(manager, cfg, concurrency)
	exportHandler := api.NewExportHandler(manager)
	observerHandler := api.NewObserverHandler(manager)
	sunlightHandler := api.NewSunlightHandler(manager)
	healthHandler := api.NewHealthHandler()

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				healthHandler.SetConnectedObservers(api.ObserverCount(manager))
			}
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:5173"
		log.Println("INFO: using default CORS origins for development:", corsOrigins)
	}
	allowedOrigins := strings.Split(corsOrigins, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
		if allowedOrigins[i] == "*" {
			log.Fatal("FATAL: wildcard (*) CORS origin is not allowed for security. Specify exact origins.")
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", metrics.Handler())
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/scenarios/{name}/observe", observerHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(tokenManager.Middleware)

			r.Post("/scenarios", scenarioHandler.Create)
			r.Post("/scenarios/heightmap", scenarioHandler.UploadHeightmap)
			r.Get("/scenarios", scenarioHandler.List)
			r.Delete("/scenarios/{name}", scenarioHandler.Delete)

			r.Post("/scenarios/{name}/tick", scenarioHandler.Tick)
			r.Post("/scenarios/{name}/continuous", scenarioHandler.Continuous)
			r.Post("/scenarios/{name}/mode", scenarioHandler.Mode)

			r.Get("/scenarios/{name}/export/heightmap", exportHandler.Heightmap)
			r.Get("/scenarios/{name}/export/map", exportHandler.Map)
			r.Get("/scenarios/{name}/export/maps", exportHandler.Bundle)
			r.Get("/scenarios/{name}/cells/{x}/{y}/sunlight", sunlightHandler.Cell)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down control plane...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Control plane listening on port %s", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server error:", err)
	}
	log.Println("Control plane stopped")
}
