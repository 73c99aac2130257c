// Package server wires configuration, storage, services and HTTP routing.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/flipbook/service/internal/composite"
	"github.com/flipbook/service/internal/config"
	"github.com/flipbook/service/internal/metrics"
	appMiddleware "github.com/flipbook/service/internal/middleware"
	"github.com/flipbook/service/internal/storage"
	"github.com/flipbook/service/internal/tracing"
	"github.com/flipbook/service/internal/upload"

	_ "github.com/flipbook/service/docs/swagger"
)

// App holds the constructed dependencies shared by the HTTP server and CLI commands.
type App struct {
	Config    *config.Config
	Store     storage.Storage
	Uploads   *upload.Service
	Composite *composite.Service
	Metrics   *metrics.Metrics
}

// New builds the storage backend selected by cfg and the services on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	backend, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage init failed: %w", err)
	}
	return NewWithStorage(cfg, backend), nil
}

// NewWithStorage wires services around an already constructed backend.
func NewWithStorage(cfg *config.Config, backend storage.Storage) *App {
	m := metrics.New()
	store := storage.NewObserved(backend, metrics.NewStorageMetrics(m.Registry()))

	// Wire dependencies: storage → service → handler
	return &App{
		Config: cfg,
		Store:  store,
		Uploads: upload.NewService(store, upload.Options{
			LegacyJPGKeys: cfg.Upload.LegacyJPGKeys,
		}),
		Composite: composite.NewService(store, composite.Options{
			FrameDelay:  cfg.FrameDelay(),
			Concurrency: cfg.Composite.FetchConcurrency,
			Recorder:    metrics.NewCompositeMetrics(m.Registry()),
		}),
		Metrics: m,
	}
}

// Router returns the HTTP handler for the service.
func (a *App) Router(log *slog.Logger) http.Handler {
	uploadHandler := upload.NewHandler(a.Uploads, a.Config.Upload.MaxBytes)
	compositeHandler := composite.NewHandler(a.Composite)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(a.Metrics.Middleware)
	r.Use(tracing.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", a.Metrics.Handler())

	// Swagger UI at /swagger/index.html
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Post("/upload", uploadHandler.Upload)
	r.Post("/generate-gif", compositeHandler.GenerateGIF)

	return r
}
