package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/readshare/internal/config"
	"github.com/iudanet/readshare/internal/logging"
	"github.com/iudanet/readshare/internal/server"
	"github.com/iudanet/readshare/internal/server/feed"
	"github.com/iudanet/readshare/internal/server/jwt"
	"github.com/iudanet/readshare/internal/server/media"
	"github.com/iudanet/readshare/internal/server/metrics"
	"github.com/iudanet/readshare/internal/server/profile"
	"github.com/iudanet/readshare/internal/server/session"
	"github.com/iudanet/readshare/internal/server/storage/sqlstore"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "-version" || args[0] == "--version") {
		printVersion()
		return
	}

	if err := run(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "readshare: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	logger.Info("readshare server starting",
		slog.String("version", Version),
		slog.String("db_driver", cfg.Database.Driver),
		slog.String("media_backend", cfg.Media.Backend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.New(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	backend, files, err := newMediaBackend(ctx, cfg.Media)
	if err != nil {
		return err
	}

	m := metrics.New()
	issuer := jwt.NewIssuer(jwt.Config{
		AccessSecret:    []byte(cfg.Auth.AccessSecret),
		RefreshSecret:   []byte(cfg.Auth.RefreshSecret),
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	})

	srv := server.New(logger, cfg, server.Deps{
		Sessions:   session.NewService(logger, store, issuer, m),
		Profiles:   profile.NewService(logger, store),
		Feed:       feed.NewService(logger, store),
		Media:      media.NewService(logger, backend, cfg.Media.MaxBytes, cfg.Media.MaxWidth, cfg.Media.MaxPixels),
		MediaFiles: files,
		DB:         store,
		Metrics:    m,
		Version:    Version,
	})

	return srv.Run(ctx)
}

// newMediaBackend выбирает хранилище медиа. Для локального бэкенда
// возвращает также handler, раздающий файлы по /media/.
func newMediaBackend(ctx context.Context, cfg config.MediaConfig) (media.Backend, http.Handler, error) {
	switch cfg.Backend {
	case config.MediaS3:
		backend, err := media.NewS3Backend(ctx, media.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init s3 media backend: %w", err)
		}
		return backend, nil, nil
	default:
		backend, err := media.NewLocalBackend(cfg.Dir, "/media/")
		if err != nil {
			return nil, nil, fmt.Errorf("init local media backend: %w", err)
		}
		return backend, backend.Handler(), nil
	}
}

func printVersion() {
	fmt.Printf("readshare server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
