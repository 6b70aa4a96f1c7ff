package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"autobill/internal/config"
	"autobill/internal/dataprocessing"
	apierrors "autobill/internal/errors"
	"autobill/internal/infrastructure"
	customMiddleware "autobill/internal/middleware"
	"autobill/internal/services"
	"autobill/internal/session"
	handlers "autobill/internal/transport/http"
)

const AppName = "Autobill - GGSN/IX traffic billing"

var (
	// Version is set at build time with -ldflags "-X autobill/internal/app.Version=..."
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = ""
)

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Router         *chi.Mux
	Server         *http.Server
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.BusinessMetrics
	Sessions       *session.MemoryStore
	BillingService *services.BillingService
	HealthService  *services.HealthService
	ErrorHandler   *apierrors.ErrorHandler
}

// NewApplication loads configuration and logging, then builds the
// application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New builds the application from an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	if otelCfg.ServiceVersion == "" {
		otelCfg.ServiceVersion = Version
	}
	otelProviders, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	loc, err := a.Config.Billing.Location()
	if err != nil {
		return fmt.Errorf("invalid billing timezone: %w", err)
	}

	a.Sessions = session.NewMemoryStore(a.Config.Billing.SessionTTL, a.Logger)

	loader := dataprocessing.NewLoader(a.Logger, loc)
	billingService, err := services.NewBillingService(loader, a.Sessions, a.Metrics, a.Config.Billing, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize billing service: %w", err)
	}
	a.BillingService = billingService

	a.HealthService = services.NewHealthService(Version, BuildTime, a.Sessions, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer, then the rest.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Prometheus scrapes stay out of request logs and rate limits.
	r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)

	r.Group(func(r chi.Router) {
		otelMiddleware := customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger)
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				ExposedHeaders: []string{"Content-Disposition", customMiddleware.RequestIDHeader},
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		if a.Config.Server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(a.Config.Server.RequestTimeout))
		}

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		billingHandler := handlers.NewBillingHandler(a.BillingService, a.Config.Billing.MaxUploadBytes, a.Logger, a.ErrorHandler)
		r.Mount("/billing", billingHandler.Routes())
	})
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Start starts the session janitor and serves on ln. It returns once the
// server is accepting connections; serve errors cancel ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc, ln net.Listener) {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	a.Sessions.StartJanitor(ctx, a.Config.Billing.SweepInterval)

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://%s", ln.Addr())))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.Start(ctx, stop, ln)

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")

	return a.Stop(ctx)
}
