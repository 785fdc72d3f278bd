// @title           castgraph API
// @version         1.0
// @description     Social graph and content visibility service.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
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

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/castgraph/config"
	"github.com/d60-Lab/castgraph/internal/api"
	"github.com/d60-Lab/castgraph/internal/api/handler"
	"github.com/d60-Lab/castgraph/internal/cache"
	"github.com/d60-Lab/castgraph/internal/model"
	"github.com/d60-Lab/castgraph/internal/repository"
	"github.com/d60-Lab/castgraph/internal/service"
	"github.com/d60-Lab/castgraph/pkg/database"
	"github.com/d60-Lab/castgraph/pkg/logger"
	"github.com/d60-Lab/castgraph/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// 缓存不可用时读请求直接回源
		logger.Warn("redis unavailable, profile cache will fall through", zap.Error(err))
	}

	// repositories
	users := repository.NewUserRepository(db)
	store := repository.NewRelationshipStore(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)

	profiles := cache.NewProfileCache(users, rdb, cfg.Redis.ProfileTTL).WithAsyncFill(10000)
	stopWriter := profiles.Writer().Start(4)

	media, err := service.NewURLMediaResolver(cfg.Media.BaseURL)
	if err != nil {
		return fmt.Errorf("media.base_url: %w", err)
	}

	paging := service.Paging{DefaultLimit: cfg.Pagination.DefaultLimit, MaxLimit: cfg.Pagination.MaxLimit}
	policy := service.NewVisibilityPolicy(store)

	// services
	relSvc := service.NewRelationshipService(store, users)
	feedSvc := service.NewFeedService(store, users, posts, profiles, policy, paging)
	commentSvc := service.NewCommentService(comments, posts, users, policy, profiles, media, paging)
	profileSvc := service.NewProfileService(users, policy)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	otelName := ""
	if cfg.Tracing.Endpoint != "" {
		otelName = cfg.Tracing.ServiceName
	}
	router, err := api.NewRouter(handler.NewHandler(relSvc, feedSvc, commentSvc, profileSvc), api.Options{
		JWTSecret:   []byte(cfg.JWT.Secret),
		ServiceName: otelName,
		Sentry:      cfg.Sentry.DSN != "",
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	// 等待异步缓存写入落地
	if err := stopWriter(shutdownCtx); err != nil {
		logger.Warn("profile writer drain", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	return nil
}
