package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"courseplatform/services/enrollment-service/config"
	"courseplatform/services/enrollment-service/internal/application/usecase"
	"courseplatform/services/enrollment-service/internal/infrastructure/cache"
	"courseplatform/services/enrollment-service/internal/infrastructure/email"
	"courseplatform/services/enrollment-service/internal/infrastructure/events"
	"courseplatform/services/enrollment-service/internal/infrastructure/logger"
	"courseplatform/services/enrollment-service/internal/infrastructure/observability"
	"courseplatform/services/enrollment-service/internal/infrastructure/payment"
	"courseplatform/services/enrollment-service/internal/infrastructure/repository"
	"courseplatform/services/enrollment-service/internal/infrastructure/security"
	"courseplatform/services/enrollment-service/internal/middleware"
	handlers "courseplatform/services/enrollment-service/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, log, cfg.OtelEnabled, cfg.OtelEndpoint)

	db, err := repository.Open(cfg)
	if err != nil {
		log.Fatal("failed to connect to DB", "driver", cfg.DBDriver, "error", err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal("failed to migrate DB", "error", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
	}

	// Инфраструктура
	courseRepo := repository.NewCourseRepository(db, cache.NewCourseCache(rdb))
	checkoutRepo := repository.NewCheckoutRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	bus := events.NewBus(rdb, log)
	mailer := email.NewEmailSender(cfg.SendgridAPIKey, cfg.SenderEmail, cfg.FrontendURL)

	// Сценарии
	checkout := usecase.NewCheckoutUseCase(courseRepo, checkoutRepo, enrollmentRepo, gateway, cfg.CheckoutTTL, cfg.Currency, log)
	reconciler := usecase.NewReconciler(courseRepo, checkoutRepo, enrollmentRepo, gateway, cfg.CheckoutGrace, log)
	webhooks := usecase.NewWebhookProcessor(gateway, checkoutRepo, reconciler, log)
	progress := usecase.NewProgressUseCase(courseRepo, enrollmentRepo, bus, log)
	access := usecase.NewAccessUseCase(courseRepo, enrollmentRepo, log)
	notifier := usecase.NewNotifier(bus, mailer, log)

	if strings.EqualFold(cfg.LogMode, "production") || strings.EqualFold(cfg.LogMode, "prod") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Handlers{
		Checkout:   handlers.NewCheckoutHandler(checkout, reconciler),
		Webhook:    handlers.NewWebhookHandler(webhooks),
		Course:     handlers.NewCourseHandler(access, reconciler),
		Enrollment: handlers.NewEnrollmentHandler(progress),
	},
		middleware.NewAuth(security.NewTokenManager(cfg.AccessSecret)),
		middleware.NewRateLimiter(rdb),
		splitOrigins(cfg.AllowedOrigins),
		log,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Enrollment Service is running", "addr", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// письма не критичны: падение подписки не валит сервис
		if err := notifier.Run(gctx); err != nil && gctx.Err() == nil {
			log.Error("notifier stopped", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracing shutdown", "error", err)
		}
		return rdb.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
