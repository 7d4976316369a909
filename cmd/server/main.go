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

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/featureflags"
	"github.com/aryan0dhankhar/natours/internal/handler"
	"github.com/aryan0dhankhar/natours/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/natours/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/natours/internal/mail"
	"github.com/aryan0dhankhar/natours/internal/media"
	"github.com/aryan0dhankhar/natours/internal/observability/metrics"
	"github.com/aryan0dhankhar/natours/internal/observability/tracing"
	"github.com/aryan0dhankhar/natours/internal/payment"
	"github.com/aryan0dhankhar/natours/internal/repository"
	"github.com/aryan0dhankhar/natours/internal/security/audit"
	"github.com/aryan0dhankhar/natours/internal/security/auth"
	"github.com/aryan0dhankhar/natours/internal/security/ratelimit"
	"github.com/aryan0dhankhar/natours/internal/service"
	"github.com/aryan0dhankhar/natours/internal/views"
	"github.com/aryan0dhankhar/natours/internal/worker"
	"github.com/aryan0dhankhar/natours/pkg/config"
	"github.com/aryan0dhankhar/natours/pkg/database"
)

const statsTTL = 5 * time.Minute

func main() {
	// 1. Load configuration
	config.LoadDotEnv("config.env", ".env")
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	slog.SetDefault(log)
	log.Info("starting natours server", slog.String("environment", cfg.Environment))

	if err := run(cfg, log); err != nil {
		log.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName: "natours",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = shutdownTracing(shutdownCtx)
	}()

	// 4. Database
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	}, log)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := repository.Migrate(ctx, pool.GetDB()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// 5. Redis is optional; without it the API limiter is per process.
	readiness := map[string]handler.Pinger{"postgres": handler.PingFunc(pool.Health), "redis": nil}
	var apiLimiter ratelimit.Allower
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL, log)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		apiLimiter = ratelimit.NewRedisLimiter(redisClient.Cmdable(), cfg.RateLimitMax, cfg.RateLimitWindow)
		readiness["redis"] = handler.PingFunc(redisClient.Ping)
	} else {
		memLimiter := ratelimit.NewLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		defer memLimiter.Stop()
		apiLimiter = memLimiter
	}

	// 6. Repositories
	gdb, sqlDB := pool.Gorm(), pool.GetDB()
	tourStore := repository.NewTourStore(gdb, log)
	userStore := repository.NewUserStore(gdb, log)
	reviewStore := repository.NewReviewStore(gdb, log)
	bookingStore := repository.NewBookingStore(gdb, log)
	tourRepo := repository.NewPostgresTourRepository(sqlDB, tourStore, log)
	userRepo := repository.NewPostgresUserRepository(sqlDB, log)
	reviewRepo := repository.NewPostgresReviewRepository(sqlDB)
	bookingRepo := repository.NewPostgresBookingRepository(sqlDB, bookingStore)

	// 7. Outbound integrations
	mailer, err := newMailer(cfg, log)
	if err != nil {
		return err
	}
	photos, err := newPhotoStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	gateway := payment.NewGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.Currency, log)

	// 8. Services
	validate := service.NewValidator()
	tokens := auth.NewTokenManager(cfg.JWTSecret, "natours", cfg.JWTExpiresIn)
	tourService := service.NewTourService(tourStore, tourRepo, repository.TourMultiValue, statsTTL, validate, log)
	aggregator := service.NewRatingAggregator(reviewRepo, tourRepo, func(uuid.UUID) { tourService.InvalidateStats() }, log)
	reviewService := service.NewReviewService(reviewStore, aggregator, validate, log)
	userService := service.NewUserService(userStore, userRepo, media.NewPhotoProcessor(photos, log), aggregator, validate, log)
	bookingService := service.NewBookingService(bookingStore, bookingRepo, tourRepo, userRepo, gateway, validate, log)
	authService := service.NewAuthService(userRepo, tokens, mailer, service.AuthConfig{
		BcryptCost:    cfg.BcryptCost,
		ResetTokenTTL: cfg.ResetTokenTTL,
		Flags:         featureflags.Snapshot(featureflags.SignupRole),
	}, validate, log)

	auditLogger := audit.NewLogger(log)
	bookingService.OnBooked(func(b *domain.Booking) {
		metrics.IncBookings()
		auditLogger.LogAction(context.Background(), b.UserID.String(), audit.ActionBooking, "booking", b.ID.String(), "success", "tour "+b.TourID.String())
	})

	// 9. Handlers
	renderer, err := views.NewRenderer(log)
	if err != nil {
		return err
	}
	errs := handler.NewErrors(cfg.IsProduction(), renderer, log)
	router := handler.NewRouter(handler.Routes{
		Production:    cfg.IsProduction(),
		CORSOrigins:   cfg.CORSAllowedOrigins,
		BodyLimit:     cfg.BodyLimitBytes,
		PublicDir:     cfg.PublicDir,
		Errors:        errs,
		Authenticator: authService,
		Audit:         auditLogger,
		APILimiter:    apiLimiter,
		LoginThrottle: ratelimit.NewThrottle(6*time.Second, 10),
		Tours:         handler.NewResource[domain.Tour](tourService, errs, log).Populate("guides", "reviews"),
		TourExtra:     handler.NewTourHandler(tourService, errs, log),
		Users:         handler.NewResource[domain.User](userService, errs, log),
		Reviews:       handler.NewResource[domain.Review](reviewService, errs, log).Populate("user").Scoped(handler.ReviewScope).Prepared(handler.PrepareReview),
		Bookings:      handler.NewResource[domain.Booking](bookingService, errs, log).Populate("user", "tour"),
		Auth:          handler.NewAuthHandler(authService, auditLogger, cfg.JWTCookieExpiresIn, cfg.IsProduction(), errs, log),
		Account:       handler.NewUserHandler(userService, auditLogger, errs, log),
		Checkout:      handler.NewBookingHandler(bookingService, errs, log),
		Views:         handler.NewViewHandler(tourService, bookingService, userService, renderer, errs, log),
		Health:        handler.NewHealthHandler(readiness, log),
		Logger:        log,
	})

	// 10. Background sweeper
	cleanupWorker := worker.NewCleanupWorker(userRepo, log, cfg.ResetSweepInterval)
	go cleanupWorker.Start(ctx)

	// 11. HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Int("rate_limit", cfg.RateLimitMax),
		slog.Duration("rate_limit_window", cfg.RateLimitWindow),
		slog.Bool("redis", cfg.RedisURL != ""),
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-sigChan:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	cancel()
	log.Info("server stopped")
	return nil
}

// newMailer sends through SMTP when a host is configured and logs messages
// otherwise.
func newMailer(cfg *config.Config, log *slog.Logger) (*mail.Mailer, error) {
	var transport mail.Transport
	if cfg.SMTPHost != "" {
		smtp, err := mail.NewSMTPTransport(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("smtp transport: %w", err)
		}
		transport = smtp
	} else {
		transport = mail.NewLogTransport(log)
	}
	return mail.NewMailer(cfg.EmailFrom, transport, log)
}

// newPhotoStore uses MinIO when an endpoint is configured and the local
// public directory otherwise.
func newPhotoStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (media.ObjectStore, error) {
	if cfg.MinIOEndpoint == "" {
		return media.NewDiskStore(cfg.PhotoDir)
	}
	store, err := media.NewMinIOStore(media.MinIOConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("user photos stored in minio", slog.String("bucket", cfg.MinIOBucket))
	return store, nil
}
