package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/gophblog/internal/config"
	"github.com/iudanet/gophblog/internal/crypto"
	"github.com/iudanet/gophblog/internal/server"
	"github.com/iudanet/gophblog/internal/server/auth"
	"github.com/iudanet/gophblog/internal/server/blog"
	"github.com/iudanet/gophblog/internal/server/cascade"
	"github.com/iudanet/gophblog/internal/server/handlers"
	"github.com/iudanet/gophblog/internal/server/jwt"
	"github.com/iudanet/gophblog/internal/server/search"
	"github.com/iudanet/gophblog/internal/server/search/boltdb"
	"github.com/iudanet/gophblog/internal/server/session"
	"github.com/iudanet/gophblog/internal/server/storage"
	"github.com/iudanet/gophblog/internal/server/storage/postgres"
	"github.com/iudanet/gophblog/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// primaryStore основное хранилище: sqlite или postgres
type primaryStore interface {
	storage.UserStorage
	storage.SessionStorage
	storage.ContentStorage
	storage.Transactor
	handlers.Pinger
	io.Closer
}

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to YAML config file (env only if empty)")
	seedAdmin := flag.String("seed-admin", "", "Create the admin account with this email and exit")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath, *seedAdmin); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, seedAdminEmail string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", slog.Any("error", err))
		}
	}()

	hasher, err := crypto.NewHasher(crypto.DefaultParams())
	if err != nil {
		return err
	}

	tokens, err := jwt.NewService(jwt.Config{
		Issuer:          cfg.Auth.Issuer,
		AccessSecret:    []byte(cfg.Auth.AccessSecret),
		RefreshSecret:   []byte(cfg.Auth.RefreshSecret),
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}

	sessions := session.NewManager(store, hasher, tokens, logger)
	authService := auth.NewService(store, sessions, hasher, tokens, logger)

	if seedAdminEmail != "" {
		return seed(ctx, authService, seedAdminEmail, logger)
	}

	// nil интерфейс, а не nil *boltdb.Index: иначе проверки index == nil не сработают
	var index search.Index
	if cfg.Search.Disabled {
		logger.Warn("Search index disabled")
	} else {
		bolt, err := boltdb.New(ctx, cfg.Search.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := bolt.Close(); err != nil {
				logger.Error("Failed to close search index", slog.Any("error", err))
			}
		}()
		index = bolt
	}

	synchronizer := cascade.NewSynchronizer(store, index, logger)
	blogService := blog.NewService(store, store, synchronizer, index, logger)

	router := server.NewRouter(logger, cfg.RateLimit, tokens, server.Routes{
		Health:   handlers.NewHealthHandler(logger, store, Version),
		Auth:     handlers.NewAuthHandler(logger, authService),
		Posts:    handlers.NewPostHandler(logger, blogService),
		Comments: handlers.NewCommentHandler(logger, blogService),
		Search:   handlers.NewSearchHandler(logger, blogService),
		Admin:    handlers.NewAdminHandler(logger, sessions, cfg.Auth.RefreshTokenTTL),
	})
	defer router.Stop()

	logger.Info("Gophblog server starting",
		slog.String("version", Version),
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("search", index != nil))

	if err := server.New(cfg, router, sessions, logger).Run(ctx); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg config.Storage) (primaryStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.PostgresDSN)
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func seed(ctx context.Context, service *auth.Service, email string, logger *slog.Logger) error {
	password, err := adminPassword()
	if err != nil {
		return err
	}

	user, err := service.SeedAdmin(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrAdminExists) {
			logger.Warn("Admin already exists, nothing to do")
			return nil
		}
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	fmt.Printf("Admin %s created (id %s)\n", user.Email, user.ID)
	return nil
}

func printVersion() {
	fmt.Printf("Gophblog Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
