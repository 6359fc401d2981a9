package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mockinterview/internal/api"
	"mockinterview/internal/auth"
	"mockinterview/internal/config"
	"mockinterview/internal/redis"
	"mockinterview/internal/service/account"
	"mockinterview/internal/service/interview"
	"mockinterview/internal/service/llm"
	"mockinterview/internal/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := storage.Open(cfg.Driver(), cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("database ready", zap.String("driver", cfg.Driver()))

	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache, err = redis.NewRedisClient(cfg)
		if err != nil {
			return fmt.Errorf("create redis client: %w", err)
		}
		defer cache.Close()
		log.Info("redis enabled", zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
	}

	gateway, err := llm.New(ctx, cfg, log.Named("llm"))
	if err != nil {
		return fmt.Errorf("init llm gateway: %w", err)
	}

	opts := []interview.Option{interview.WithLogger(log.Named("interview"))}
	if cache != nil {
		opts = append(opts, interview.WithLocker(interview.NewRedisLocker(cache, lockTTL(cfg), log.Named("lock"))))
	}
	manager := interview.NewManager(interview.NewSQLStore(db), gateway, opts...)

	authService := auth.NewService(db, cache, cfg.TokenTTL())
	authService.StartTokenCleaner(ctx, auth.DefaultTokenCleanupInterval)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(manager, account.NewService(db), authService, log.Named("http"), api.Options{
		CSRF:          cfg.Auth.CSRF,
		SecureCookies: !cfg.IsDevelopment(),
	})
	srv := api.NewServer(cfg, api.NewRouter(handler, log.Named("http")))

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr), zap.String("gateway_mode", string(gateway.Mode())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// lockTTL covers the slowest respond or end call, every gateway attempt included.
func lockTTL(cfg *config.Config) time.Duration {
	attempts := cfg.Gateway.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return time.Duration(attempts)*cfg.GatewayTimeout() + 30*time.Second
}
