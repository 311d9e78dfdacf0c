package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"barberagenda/internal/auth"
	"barberagenda/internal/cache"
	"barberagenda/internal/config"
	"barberagenda/internal/notify"
	"barberagenda/internal/queue"
	"barberagenda/internal/service/appointments"
	"barberagenda/internal/service/catalog"
	"barberagenda/internal/store/postgres"
	httpTransport "barberagenda/internal/transport/http"
	"barberagenda/internal/watch"
)

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "barberagenda-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "barberagenda-server"),
	)
	slog.SetDefault(log)

	log.Info("starting", slog.String("http_addr", cfg.HTTPAddr), slog.String("log_level", cfg.LogLevel))

	loc, err := time.LoadLocation(cfg.ShopTimeZone)
	if err != nil {
		log.Error("invalid shop time zone", slog.String("tz", cfg.ShopTimeZone), slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	var catalogCache *cache.Catalog
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		catalogCache = cache.NewCatalog(rdb, cfg.CatalogTTL)
		log.Info("catalog cache enabled", slog.String("redis_addr", cfg.RedisAddr))
	}

	var events *queue.Publisher
	if cfg.AMQPURL != "" {
		events, err = queue.Dial(cfg.AMQPURL)
		if err != nil {
			log.Error("amqp connection failed", slog.Any("err", err))
			os.Exit(1)
		}
		defer events.Close()
		log.Info("event publisher connected")
	}

	apptRepo := postgres.NewAppointmentRepo(db)
	trashRepo := postgres.NewTrashRepo(db)
	historyRepo := postgres.NewHistoryRepo(db)
	catalogRepo := postgres.NewCatalogRepo(db)
	blockedRepo := postgres.NewBlockedDayRepo(db)
	userRepo := postgres.NewUserRepo(db)
	deviceRepo := postgres.NewDeviceTokenRepo(db)

	hub := watch.NewHub()
	apptSvc := appointments.NewService(apptRepo, trashRepo, historyRepo, hub, loc)
	catalogSvc := catalog.NewService(catalogRepo, blockedRepo, apptRepo, catalogCache)

	var sender notify.Sender = notify.NewNoopSender()
	if cfg.PushProvider == "webhook" && cfg.PushWebhookURL != "" {
		sender = notify.NewWebhookSender(cfg.PushWebhookURL, cfg.PushWebhookToken)
	}
	dispatcher := notify.NewDispatcher(deviceRepo, sender, log)
	log.Info("push dispatch configured", slog.String("provider", sender.ProviderID()))

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	server := httpTransport.NewServer(httpTransport.Deps{
		Tokens:       tokens,
		Appointments: apptSvc,
		Catalog:      catalogSvc,
		Notifier:     dispatcher,
		Events:       events,
		Users:        userRepo,
		Devices:      deviceRepo,
		Logger:       log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.HTTPAddr)
	}()

	log.Info("http server started", slog.String("http_addr", cfg.HTTPAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown failed", slog.Any("err", err))
		} else {
			log.Info("http server stopped")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
