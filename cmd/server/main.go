package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/igorsal/pr-reviewer/api/handlers"
	"github.com/igorsal/pr-reviewer/api/middleware"
	"github.com/igorsal/pr-reviewer/internal/config"
	"github.com/igorsal/pr-reviewer/internal/interfaces"
	"github.com/igorsal/pr-reviewer/internal/services"
	"github.com/igorsal/pr-reviewer/io/github"
	"github.com/igorsal/pr-reviewer/io/openai"
	"github.com/igorsal/pr-reviewer/pkg/logger"
	"github.com/igorsal/pr-reviewer/pkg/metrics"
	"github.com/igorsal/pr-reviewer/pkg/version"
)

const (
	ShutdownTimeout = 30 * time.Second
	IdleTimeout     = 120 * time.Second
)

// Application holds all dependencies
type Application struct {
	config          *config.Config
	logger          interfaces.Logger
	metrics         interfaces.MetricsCollector
	githubClient    interfaces.GitHubClient
	chatClient      interfaces.ChatClient
	reviewerService interfaces.ReviewerService
	webhookHandler  *handlers.WebhookHandler
	server          *http.Server
}

func main() {
	app, err := initializeApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	app.logger.Info("Starting PR reviewer service",
		"version", version.Get(),
		"environment", os.Getenv("ENVIRONMENT"),
	)

	if err := app.run(); err != nil {
		app.logger.Fatal("Application failed to run", err)
	}
}

// initializeApplication sets up all dependencies
func initializeApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewAdapter(cfg.Logging.Level, cfg.Logging.Format)
	collector := metrics.NewPrometheusCollector()

	githubClient, err := github.NewClient(cfg.GitHub, log, collector)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	// Left nil without a credential; the reviewer then reports no_chat_bot.
	var chatClient interfaces.ChatClient
	if cfg.OpenAI.Enabled() {
		chatClient = openai.NewClient(cfg.OpenAI, log, collector)
	} else {
		log.Warn("OPENAI_API_KEY not set, pull requests will not be reviewed")
	}

	if cfg.GitHub.WebhookSecret == "" {
		log.Warn("GITHUB_WEBHOOK_SECRET not set, webhook signatures will not be validated")
	}

	reviewerService := services.NewReviewerService(chatClient, githubClient, cfg.Review, log, collector)

	app := &Application{
		config:          cfg,
		logger:          log,
		metrics:         collector,
		githubClient:    githubClient,
		chatClient:      chatClient,
		reviewerService: reviewerService,
	}

	app.setupServer()

	return app, nil
}

// setupServer configures the HTTP server with all routes and middleware
func (app *Application) setupServer() {
	app.webhookHandler = handlers.NewWebhookHandler(
		app.reviewerService,
		app.config.GitHub.WebhookSecret,
		app.config.Review.Timeout,
		app.logger,
	)

	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", app.config.Server.Host, app.config.Server.Port),
		Handler:      app.newRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}
}

func (app *Application) newRouter() *mux.Router {
	healthHandler := handlers.NewHealthHandler(app.chatClient != nil, app.logger)

	router := mux.NewRouter()

	router.Use(middleware.PanicRecoveryMiddleware(app.logger))
	router.Use(middleware.MetricsMiddleware(app.metrics))
	router.Use(middleware.LoggingMiddleware(app.logger))

	router.HandleFunc("/health", healthHandler.Handle).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/webhook", app.webhookHandler.Handle).Methods(http.MethodPost)

	if app.config.Manual.Token != "" {
		manualHandler := handlers.NewManualReviewHandler(app.reviewerService, app.githubClient, app.config.Review.Timeout, app.logger)

		requireToken := middleware.TokenAuthMiddleware(app.config.Manual.Token, app.logger)
		router.Handle("/manual-review", requireToken(http.HandlerFunc(manualHandler.Handle))).Methods(http.MethodPost)
	} else {
		app.logger.Info("MANUAL_REVIEW_TOKEN not set, manual review endpoint disabled")
	}

	return router
}

// run starts the application and handles graceful shutdown
func (app *Application) run() error {
	serverErrors := make(chan error, 1)

	go func() {
		app.logger.Info("Starting HTTP server",
			"host", app.config.Server.Host,
			"port", app.config.Server.Port,
			"tls", app.config.Server.TLSEnabled(),
		)

		var err error
		if app.config.Server.TLSEnabled() {
			err = app.server.ListenAndServeTLS(app.config.Server.TLSCertFile, app.config.Server.TLSKeyFile)
		} else {
			err = app.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)

	case <-ctx.Done():
		app.logger.Info("Shutdown signal received")
		return app.gracefulShutdown()
	}
}

// gracefulShutdown stops accepting requests, then waits for in-flight reviews
func (app *Application) gracefulShutdown() error {
	app.logger.Info("Starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	shutdownComplete := make(chan error, 1)

	go func() {
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			shutdownComplete <- fmt.Errorf("server shutdown failed: %w", err)
			return
		}

		app.webhookHandler.Wait()
		shutdownComplete <- nil
	}()

	select {
	case err := <-shutdownComplete:
		if err != nil {
			app.logger.Error("Graceful shutdown failed", err)
			if closeErr := app.server.Close(); closeErr != nil {
				app.logger.Error("Force shutdown also failed", closeErr)
			}
			return err
		}
		app.logger.Info("Graceful shutdown completed successfully")
		return nil

	case <-shutdownCtx.Done():
		app.logger.Error("Shutdown timeout exceeded, abandoning in-flight reviews", nil)
		if err := app.server.Close(); err != nil {
			app.logger.Error("Force shutdown failed", err)
		}
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
