package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"credential-server/internal/auth"
	"credential-server/internal/config"
	apphttp "credential-server/internal/http"
	"credential-server/internal/observability"
	"credential-server/internal/repository"
	"credential-server/internal/repository/postgres"
	"credential-server/internal/repository/snapshot"
	"credential-server/internal/repository/sqlite"
	"credential-server/internal/service"
	"credential-server/internal/storage"
)

func main() {
	bootLogger := logrus.New()
	bootLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		bootLogger.Fatalf("invalid config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		bootLogger.Fatalf("setup logger: %v", err)
	}

	if err := observability.InitSentry(cfg.Sentry.DSN, cfg.Sentry.Environment); err != nil {
		logger.Warnf("init sentry: %v", err)
	}
	defer observability.FlushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo, closeRepo, err := buildUserRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup user repository: %v", err)
	}
	defer closeRepo()

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		logger.Fatalf("setup token issuer: %v", err)
	}
	userService := service.NewUserService(userRepo, auth.NewHasher(cfg.Auth.BcryptCost))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	handler := apphttp.NewHandler(userService, issuer, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (store: %s)", cfg.Addr(), cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildUserRepository(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.UserRepository, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		return sqlite.NewUserRepository(db), closeDB(db, logger), nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres database")
		return postgres.NewUserRepository(db), closeDB(db, logger), nil

	default:
		var sink snapshot.Sink = snapshot.NewFileSink(cfg.Store.Path)
		if cfg.Store.Bucket != "" {
			store, err := storage.Connect(ctx, storage.ConnectOptions{
				Region:   cfg.Storage.Region,
				Profile:  cfg.AWS.Profile,
				Endpoint: cfg.Storage.Endpoint,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("setup object storage: %w", err)
			}
			sink = snapshot.NewObjectSink(store, cfg.Store.Bucket, cfg.Store.Key)
		}
		logger.Infof("using snapshot store %s", sink)
		return snapshot.NewUserRepository(sink, logger), func() {}, nil
	}
}

func closeDB(db *sql.DB, logger *logrus.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Warnf("close database: %v", err)
		}
	}
}
