package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trackhigh/internal/config"
	apierrors "trackhigh/internal/errors"
	"trackhigh/internal/feed"
	"trackhigh/internal/infrastructure"
	customMiddleware "trackhigh/internal/middleware"
	"trackhigh/internal/services"
	"trackhigh/internal/store"
	handlers "trackhigh/internal/transport/http"
	ws "trackhigh/internal/websocket"
	"trackhigh/pkg/contracts"
)

// AppName is logged at startup
const AppName = "TrackHigh"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Dashboard     *services.DashboardService
	Health        *services.HealthService
	WebSocketHub  *ws.Hub
	ErrorHandler  *apierrors.ErrorHandler
	Router        *chi.Mux
	Server        *http.Server

	loader   services.FeedLoader
	listener net.Listener
	logFile  io.Closer
}

// Option customizes an Application before its services are built
type Option func(*Application)

// WithFeedLoader replaces the loader built from cfg.Feed
func WithFeedLoader(l services.FeedLoader) Option {
	return func(a *Application) { a.loader = l }
}

// NewApplication loads configuration, initializes the process logger and
// builds the application.
func NewApplication(opts ...Option) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, logFile, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	a, err := New(cfg, logger, opts...)
	if err != nil {
		_ = logFile.Close()
		return nil, err
	}
	a.logFile = logFile
	return a, nil
}

// New wires every component from cfg. Nothing is fetched or served until
// Start.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("feed", cfg.Feed.Source()))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.initializeServices()
	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices builds the dashboard, the session hub and health checks
func (a *Application) initializeServices() {
	if a.loader == nil {
		a.loader = feed.NewLoader(a.Config.Feed, a.Logger)
	}

	a.Dashboard = services.NewDashboardService(a.loader, store.New(), a.Metrics, a.Logger)

	hub := ws.NewHub(a.Metrics, a.Logger)
	hub.Start()
	a.WebSocketHub = hub
	a.Dashboard.OnReload(hub.BroadcastReload)

	a.Health = services.NewHealthService(a.Dashboard, hub, a.Logger)
}

// setupRouter configures the HTTP router with all routes.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → CORS → RateLimit → Timeout
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	validation := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler)

	// The session channel is long lived and needs the raw ResponseWriter,
	// so it skips the request logging and timeout chain.
	wsHandler := ws.NewHandler(a.WebSocketHub, a.Dashboard, validation, a.Config.WebSocket,
		a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", wsHandler)

	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.WebSocketHub)
	r.Handle("/metrics", metricsHandler)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.Metrics, a.Logger)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(a.Config.Security.RateLimit, a.Logger, a.ErrorHandler).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Mount("/api/health", healthHandler.Routes())
		r.Get("/api/version", healthHandler.Version)
		r.Mount("/api/metrics", metricsHandler.Routes())

		dashboardHandler := handlers.NewDashboardHandler(a.Dashboard, a.Config.Export, a.Logger, a.ErrorHandler)
		r.Mount("/api", dashboardHandler.Routes())
	})

	a.Router = r
}

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start binds the listener, performs the initial feed load and serves in
// the background. A failed initial load is logged and the API answers 503
// on data routes until a reload succeeds. cancel is called if the server
// stops with an error.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	if _, err := a.Dashboard.Load(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Initial feed load failed",
			slog.String("source", a.loader.Source()),
			slog.String("error", err.Error()))
	}

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			if cancel != nil {
				cancel()
			}
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", "http://"+a.Addr()),
		slog.Bool("loaded", a.Dashboard.Ready()))

	return nil
}

// Addr returns the bound address once started, else the configured one
func (a *Application) Addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.Server.Addr
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.WebSocketHub.Stop()

	if err := a.Dashboard.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing dashboard", slog.String("error", err.Error()))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("log file close error: %w", err))
		}
		a.logFile = nil
	}
	return errors.Join(errs...)
}

// Run starts the application and blocks until ctx is done, then shuts
// down. Callers cancel ctx on SIGINT/SIGTERM.
func (a *Application) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(runCtx, cancel); err != nil {
		return err
	}

	<-runCtx.Done()
	a.Logger.Info("Received shutdown signal")

	// The run context is already cancelled; shutdown gets a fresh one
	return a.Stop(context.WithoutCancel(ctx))
}
