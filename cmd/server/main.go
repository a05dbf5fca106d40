package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/consciousday/backend/internal/auth"
	"github.com/ayush/consciousday/backend/internal/config"
	"github.com/ayush/consciousday/backend/internal/insight"
	"github.com/ayush/consciousday/backend/internal/journal"
	"github.com/ayush/consciousday/backend/internal/logger"
	"github.com/ayush/consciousday/backend/internal/middleware"
	"github.com/ayush/consciousday/backend/internal/render"
	"github.com/ayush/consciousday/backend/internal/store"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Debug: cfg.Debug, LogDir: cfg.LogDir}); err != nil {
		logger.Fatal("logger init", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	ctx := context.Background()

	// ── Entry store ──────────────────────────────────────────
	entries, err := store.OpenEntries(ctx, cfg)
	if err != nil {
		logger.Fatal("entry store", "error", err)
	}
	defer entries.Close()

	// ── MongoDB (optional insight archive) ───────────────────
	var archive journal.InsightArchive
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal("mongo connect", "error", err)
		}
		defer mongoClient.Disconnect(ctx)
		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			logger.Warn("mongo indexes", "error", err)
		}
		archive = mongoStore
	} else {
		logger.Info("insight archive disabled")
	}

	// ── MinIO (optional exports) ─────────────────────────────
	var exports journal.ExportStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			logger.Fatal("minio connect", "error", err)
		}
		exports = minioStore
	} else {
		logger.Info("export store disabled")
	}

	// ── Credentials + Redis sessions ─────────────────────────
	creds, err := auth.LoadCredentials(cfg.CredentialsPath, cfg.RequirePreauthorized)
	if err != nil {
		logger.Fatal("credentials", "error", err)
	}
	rdb, err := auth.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connect", "error", err)
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb, creds.SessionTTL())

	// ── Insight generator ────────────────────────────────────
	gen, err := insight.NewGenerator(insight.ConfigFrom(cfg))
	if err != nil {
		logger.Fatal("insight generator", "error", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(creds, sessions)
	journalHandler := journal.NewHandler(journal.NewService(entries, gen, archive, exports))
	requireAuth := middleware.RequireAuth(sessions, creds)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/api/status", journalHandler.Status)
		r.Get("/api/insights", journalHandler.Insights)
		r.Route("/api/entries", journalHandler.Routes)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireAdmin(creds))
		r.Get("/users", authHandler.ListUsers)
		r.Put("/users/{username}/role", authHandler.SetRole)
		r.Delete("/users", authHandler.ClearUsers)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GenerateTimeout + 30*time.Second,
	}

	go func() {
		logger.Info("backend listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
