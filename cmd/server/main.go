package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/careconnect/intake/internal/api"
	"github.com/careconnect/intake/internal/archive"
	"github.com/careconnect/intake/internal/config"
	"github.com/careconnect/intake/internal/metrics"
	"github.com/careconnect/intake/internal/notify"
	"github.com/careconnect/intake/internal/pkg/logger"
	"github.com/careconnect/intake/internal/pkg/ratelimit"
	"github.com/careconnect/intake/internal/repository/sqlstore"
	"github.com/careconnect/intake/internal/service/registration"
)

func fatal(msg string, fields ...interface{}) {
	logger.Error(msg, fields...)
	logger.Sync()
	os.Exit(1)
}

// checkPortAvailable verifies the listen address is free before any
// resources are opened.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w", addr, err)
	}
	return ln.Close()
}

func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fatal("failed to load config", "error", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())
	defer logger.Sync()

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		fatal("pre-flight check failed", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, dialect, err := sqlstore.Open(ctx, cfg.Database)
	if err != nil {
		fatal("failed to open store", "driver", cfg.Database.Driver, "error", err)
	}
	defer db.Close()
	store := sqlstore.New(db, dialect)

	var opts []registration.Option
	if cfg.Notify.Enabled {
		client, err := notify.NewSESClient(ctx, cfg.Notify)
		if err != nil {
			fatal("failed to initialize SES client", "error", err)
		}
		notifier, err := notify.NewSESNotifier(client, cfg.Notify)
		if err != nil {
			fatal("failed to initialize notifier", "error", err)
		}
		opts = append(opts, registration.WithNotifier(notifier))
		logger.Info("registration notifications enabled", "recipients", len(cfg.Notify.Recipients))
	}

	svc := registration.NewService(store, opts...)
	if err := svc.EnsureSchema(ctx); err != nil {
		fatal("failed to initialize store", "error", err)
	}
	logger.Info("store ready", "driver", cfg.Database.Driver, "path", cfg.Database.Path())

	var (
		redisClient *redis.Client
		limiter     *ratelimit.Limiter
	)
	if cfg.RateLimit.Enabled {
		redisClient, err = connectRedis(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, intake rate limiting disabled", "error", err)
		} else {
			defer redisClient.Close()
			trusted, err := ratelimit.ParseTrustedProxies(cfg.Server.TrustedProxies)
			if err != nil {
				fatal("invalid trusted proxies", "error", err)
			}
			limiter = ratelimit.New(redisClient, cfg.RateLimit.RequestsPerMinute, ratelimit.WithTrustedProxies(trusted))
			logger.Info("intake rate limiting enabled", "per_minute", cfg.RateLimit.RequestsPerMinute)
		}
	}

	var s3Client *s3.Client
	if cfg.Archive.Enabled {
		s3Client, err = archive.NewS3Client(ctx, cfg.Archive)
		if err != nil {
			fatal("failed to initialize S3 client", "error", err)
		}
	}

	handlers := api.NewHandlers(svc, metrics.New())
	health := api.NewHealthChecker(store, redisClient, s3Client, cfg.Archive.Bucket)
	server := api.NewServer(cfg.Server, handlers, health, limiter)
	if s3Client != nil {
		server.SetArchiver(archive.NewS3Archiver(s3Client, cfg.Archive))
		logger.Info("export archiving enabled", "bucket", cfg.Archive.Bucket, "prefix", cfg.Archive.Prefix)
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", "error", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	svc.Wait()

	logger.Info("server stopped")
}
