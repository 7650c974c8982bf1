package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/config"
	"github.com/AnshRaj112/mindnest-backend/internal/database"
	"github.com/AnshRaj112/mindnest-backend/internal/handlers"
	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/AnshRaj112/mindnest-backend/internal/routes"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", shutdownTimeout, "Maximum time to wait for graceful shutdown")
	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	// Connect to MongoDB
	if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase); err != nil {
		logger.Error("Failed to connect to MongoDB",
			slog.Any("error", err),
			slog.String("hint", "check MONGODB_URI, network access and that the cluster is running"),
		)
		return err
	}
	defer database.Disconnect()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	if err := database.EnsureIndexes(ctx, database.DB); err != nil {
		logger.Warn("⚠️  failed to ensure MongoDB indexes", slog.Any("error", err))
	} else {
		logger.Info("✅ MongoDB indexes ensured")
	}
	cancel()

	// Connect to Redis
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer database.DisconnectRedis()

	// PostgreSQL only backs the contact form
	var contacts services.ContactStore
	if cfg.PostgresURI != "" {
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			logger.Warn("Failed to connect to PostgreSQL, contact form disabled", slog.Any("error", err))
		} else {
			defer database.DisconnectPostgres()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			if err := database.InitPostgresTables(ctx, database.PostgresDB); err != nil {
				logger.Warn("⚠️  failed to create PostgreSQL tables", slog.Any("error", err))
			}
			cancel()
			contacts = services.NewPostgresContactStore(database.PostgresDB)
		}
	} else {
		logger.Warn("POSTGRES_URI not set, contact form disabled")
	}

	deps, err := buildDeps(cfg, logger, contacts)
	if err != nil {
		return err
	}
	handlers.Init(deps)

	r := newRouter(cfg, logger, deps.Tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🚀 MindNest backend running", slog.String("addr", srv.Addr), slog.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// buildDeps constructs the services the handlers use.
func buildDeps(cfg *config.Config, logger *slog.Logger, contacts services.ContactStore) (handlers.Deps, error) {
	notesKey, err := cfg.NotesKeyBytes()
	if err != nil {
		return handlers.Deps{}, err
	}
	if notesKey == nil {
		logger.Warn("⚠️  NOTES_ENCRYPTION_KEY not set, appointment notes are stored unencrypted",
			slog.String("hint", "generate one with: openssl rand -base64 32"))
	} else {
		logger.Info("✅ Notes encryption key configured")
	}

	store := services.NewMongoStore(database.DB)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL, services.NewRedisRevoker(database.RedisClient))

	var predictor services.Predictor
	if cfg.MLServiceURL != "" {
		predictor = services.NewRemotePredictor(cfg.MLServiceURL, cfg.MLTimeout)
	}

	var uploader services.Uploader
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logger.Warn("Failed to initialize Cloudinary, file uploads will not be available", slog.Any("error", err))
		} else {
			uploader = cld
			logger.Info("✅ Cloudinary service initialized")
		}
	} else {
		logger.Warn("Cloudinary credentials not found, file uploads will not be available")
	}

	var mailer services.Mailer
	if cfg.SMTPEnabled() {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
		logger.Info("✅ SMTP notifications enabled")
	}

	return handlers.Deps{
		Store:    store,
		Tokens:   tokens,
		Scorer:   services.NewScorer(predictor, logger),
		Booking:  services.NewBookingService(store, services.NewRedisSlotLocker(database.RedisClient), notesKey, logger),
		Notifier: services.NewNotifier(mailer, store, logger),
		Chatbot:  services.NewChatbot(cfg.ChatbotURL, cfg.MLTimeout, logger),
		Uploader: uploader,
		Cache:    services.NewRedisCache(database.RedisClient),
		Contacts: contacts,
		Logger:   logger,
	}, nil
}

func newRouter(cfg *config.Config, logger *slog.Logger, tokens middleware.TokenParser) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		logger.Info("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RedisRateLimit(database.RedisClient, time.Minute, 300))
	}

	r.Handle("/metrics", promhttp.Handler())
	routes.SetupRoutes(r, tokens)
	return r
}
