package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/readshare/internal/client/api"
	"github.com/iudanet/readshare/internal/client/auth"
	"github.com/iudanet/readshare/internal/client/cli"
	"github.com/iudanet/readshare/internal/client/iocli"
	"github.com/iudanet/readshare/internal/client/storage/boltdb"
	"github.com/iudanet/readshare/internal/logging"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", envOr("READSHARE_SERVER", "http://localhost:8080"), "Server URL")
	dbPath := flag.String("db", envOr("READSHARE_CLIENT_DB", "readshare-client.db"), "Path to local session database")
	scheme := flag.String("scheme", envOr("READSHARE_AUTH_SCHEME", api.DefaultScheme), "Authorization scheme accepted by the server (AUTH_SCHEMES)")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Usage = func() { cli.PrintUsage(os.Stderr) }

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, *serverURL, *dbPath, *scheme, *logLevel, args[0], args[1:])
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrUnknownCommand) {
			cli.PrintUsage(os.Stderr)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, serverURL, dbPath, scheme, logLevel, command string, args []string) error {
	logger := logging.New(os.Stderr, logLevel, "text")

	boltStorage, err := boltdb.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	apiClient := api.NewClient(serverURL)
	apiClient.SetScheme(scheme)
	authService := auth.NewService(apiClient, boltStorage, logger)
	apiClient.SetTokenSource(authService)

	return cli.New(iocli.NewStdio(), authService, apiClient).Run(ctx, command, args)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func printVersion() {
	fmt.Printf("ReadShare Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
