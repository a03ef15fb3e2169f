package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/Gadfx/duhuze/internal/api/http"
	"github.com/Gadfx/duhuze/internal/config"
	"github.com/Gadfx/duhuze/internal/domain"
	"github.com/Gadfx/duhuze/internal/identity"
	"github.com/Gadfx/duhuze/internal/matchmaking"
	"github.com/Gadfx/duhuze/internal/moderation"
	"github.com/Gadfx/duhuze/internal/repository"
	"github.com/Gadfx/duhuze/internal/repository/model"
	"github.com/Gadfx/duhuze/internal/service"
	"github.com/Gadfx/duhuze/lib/logger/sl"
	"github.com/Gadfx/duhuze/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	matchRepo, err := setupMatchRepository(cfg.Database, log)
	if err != nil {
		log.Error("failed to connect database", sl.Err(err))
		os.Exit(1)
	}

	rdb, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}

	var gate service.ModerationGate = moderation.NopGate{}
	if rdb != nil {
		gate = moderation.NewRedisGate(rdb)
	}

	hub := matchmaking.NewHub(matchmaking.Options{
		MaxParticipants: cfg.Matchmaking.MaxParticipants,
		MaxWaiting:      cfg.Matchmaking.MaxWaiting,
		MaxScan:         cfg.Matchmaking.MaxScan,
	})
	router := service.NewSignalRouter(hub, log)
	matchService := service.NewMatchService(hub, router, gate, matchRepo, service.MatchOptions{
		ICEServers:      cfg.WebRTC.ICEServers(),
		BroadcastOnline: cfg.Matchmaking.BroadcastOnline,
		WaitTimeout:     cfg.Matchmaking.WaitTimeout,
		SweepInterval:   cfg.Matchmaking.SweepInterval,
	}, log)

	go matchService.RunExpiry(ctx)

	var publish httpapi.Publisher
	if rdb != nil {
		subscriber := moderation.NewSubscriber(rdb, cfg.Redis.EvictionChannel, matchService, log)
		go func() {
			if err := subscriber.Run(ctx); err != nil {
				log.Error("eviction subscriber stopped", sl.Err(err))
			}
		}()
		publish = func(ctx context.Context, eviction domain.Eviction) error {
			return moderation.Publish(ctx, rdb, cfg.Redis.EvictionChannel, eviction)
		}
	}

	signalingController := httpapi.NewSignalingController(
		matchService,
		identity.NewResolver(cfg.Auth.JWTSecret),
		httpapi.SignalingOptions{
			AllowedOrigins:  cfg.HTTP.AllowedOrigins,
			RequireIdentity: cfg.Auth.RequireIdentity,
			SendBuffer:      cfg.Matchmaking.SendBuffer,
		},
		log,
	)
	moderationController := httpapi.NewModerationController(matchService, publish, cfg.Moderation.APIKey)
	historyController := httpapi.NewHistoryController(matchRepo)

	engine := httpapi.SetupRouter(cfg.HTTP.AllowedOrigins, signalingController, moderationController, historyController)

	srv := &http.Server{
		Addr:        cfg.HTTP.Address,
		Handler:     engine,
		ReadTimeout: cfg.HTTP.ReadTimeout,
		// Write timeout is left to the websocket write deadlines; a server
		// wide one would cut long-lived signaling sockets.
	}

	go func() {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", sl.Err(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

// setupMatchRepository keeps history in Postgres when a DSN is configured
// and in memory otherwise.
func setupMatchRepository(cfg config.DatabaseConfig, log *slog.Logger) (repository.MatchRepository, error) {
	if cfg.DSN == "" {
		log.Info("database dsn is empty, keeping match history in memory")
		return repository.NewInMemoryMatchRepository(), nil
	}

	db, err := connectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewPostgresMatchRepository(db), nil
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.Match{}); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// connectRedis returns nil when no address is configured.
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.New("redis ping failed: " + err.Error())
	}
	return rdb, nil
}
