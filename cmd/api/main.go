package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/safar/go-shop/internal/auth"
	"github.com/safar/go-shop/internal/config"
	"github.com/safar/go-shop/internal/database"
	"github.com/safar/go-shop/internal/httpapi"
	"github.com/safar/go-shop/internal/logging"
	"github.com/safar/go-shop/internal/seed"
	"github.com/safar/go-shop/internal/service"
	"github.com/safar/go-shop/internal/store"
	"github.com/safar/go-shop/internal/store/memory"
	"github.com/safar/go-shop/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("store ready", "driver", cfg.Store.Driver)

	if cfg.Store.SeedCatalog {
		if _, err := seed.Catalog(ctx, st, logger); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}

	tokens, err := auth.NewTokens(cfg.Auth)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	handler := httpapi.NewHandler(httpapi.Services{
		Catalog:  service.NewCatalog(st, logger),
		Cart:     service.NewCart(st, logger),
		Orders:   service.NewOrders(st, logger),
		Accounts: service.NewAccounts(st, tokens, logger),
	}, st, cfg.Store.Driver, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.Router(cfg.Server, tokens),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db, database.Up); err != nil {
			db.Close()
			return nil, err
		}
		return postgres.New(db), nil
	default:
		return memory.New(), nil
	}
}
