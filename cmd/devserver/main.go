// @title Storefront dev backend
// @version 1.0
// @description In-memory backend for the storefront client: cart, library, payments, profile.
// @host localhost:9091
// @BasePath /
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "storefront/internal/http"
	"storefront/internal/logging"
	"storefront/internal/repository"
	"storefront/internal/shop"

	_ "storefront/docs"
)

func main() {
	var (
		addr      string
		logLevel  string
		logFormat string
	)
	cmd := &cobra.Command{
		Use:           "devserver",
		Short:         "In-memory storefront backend for local development",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(logLevel, logFormat)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return run(cmd.Context(), addr, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9091", "listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "log format: console or json")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = os.Stderr.WriteString("devserver: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, addr string, logger *zap.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	mem := repository.NewMemoryStore()
	if err := shop.Seed(ctx, mem, shop.DemoCatalog()); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	store := shop.NewStoreService(mem, repository.NewMemoryCarts(mem), repository.NewMemoryPurchases(mem), repository.NewMemoryPending(mem), repository.NewMemoryTx(mem))
	accounts := shop.NewAccountService(repository.NewMemoryAccounts(mem), repository.NewMemorySessions(mem), 0)

	srv := httpapi.NewServer(store, accounts, logger)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "listen")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
		return errors.Wrap(err, "shutdown")
	}
	logger.Info("server stopped")
	return nil
}
