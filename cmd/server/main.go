package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/exportdesk/debt-ledger/internal/adapter/http/controller"
	"github.com/exportdesk/debt-ledger/internal/adapter/http/middleware"
	"github.com/exportdesk/debt-ledger/internal/adapter/http/router"
	"github.com/exportdesk/debt-ledger/internal/adapter/repository/postgres"
	"github.com/exportdesk/debt-ledger/internal/config"
	"github.com/exportdesk/debt-ledger/internal/logger"
	"github.com/exportdesk/debt-ledger/internal/usecase/services"
)

func main() {
	root := &cobra.Command{
		Use:   "debt-ledger",
		Short: "Agency debt ledger service",
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		logger.Error("command failed", err, nil)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			return postgres.RunMigrations(ctx, cfg.DatabaseDSN, cfg.MigrationsDir)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and serve the ledger API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := postgres.RunMigrations(migrateCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
				return err
			}

			db, err := postgres.Open(ctx, cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			agencyRepo := postgres.NewAgencyRepository(db)
			productRepo := postgres.NewProductRepository(db)
			postingRepo := postgres.NewPostingRepository(db)
			ledgerRepo := postgres.NewLedgerRepository(db)
			receiptRepo := postgres.NewReceiptRepository(db)

			transactionService := services.NewTransactionService(
				agencyRepo, productRepo, postingRepo, ledgerRepo, receiptRepo,
				cfg.ExportCodePrefix, cfg.PaymentCodePrefix,
			)
			reportService := services.NewReportService(agencyRepo, ledgerRepo)

			handler := router.New(
				controller.NewTransactionController(transactionService),
				controller.NewReportController(reportService),
				middleware.ChannelAuth(cfg.ChannelID, cfg.ChannelKey),
				db.PingContext,
			)

			srv := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", logger.Fields{"addr": cfg.ListenAddr})
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}
