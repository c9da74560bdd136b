package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	financeapp "github.com/propledger/backend/internal/application/finance"
	identityapp "github.com/propledger/backend/internal/application/identity"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/cache"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Maintenance commands for the property ledger",
	Long: `ledgerctl runs one-off ledger tasks outside the HTTP API: seeding charge
types, opening billing periods, generating invoices, marking overdue invoices,
creating users and minting access tokens.

Configuration is read the same way as the server (config.toml, .env and
LEDGER_* environment variables).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// runtime is the wiring shared by every command
type runtime struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *persistence.Database
	services *financeapp.Services
	users    *identityapp.UserService
	closers  []func() error
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	finance.OverpaymentTolerance = cfg.Ledger.PaymentOverpayTolerance

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log.Named("gorm"), logger.MapGormLogLevel(logLevel)))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	rt := &runtime{cfg: cfg, log: log, db: db, closers: []func() error{db.Close}}

	sequences := cache.NewSequenceBackendFactory(cfg.Ledger, cfg.Redis, cache.WithLogger(log))
	repoOpts, closeSequences, err := sequences.RepositoryOptions(ctx, db.DB)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("sequence backend: %w", err)
	}
	rt.closers = append(rt.closers, closeSequences)

	rt.services = financeapp.NewServices(financeapp.Dependencies{
		Repos:  persistence.NewGormLedgerRepositories(db.DB, repoOpts...),
		Scope:  persistence.NewGormLedgerTransactionScope(db.DB, repoOpts...),
		Logger: log.Named("ledger"),
	})
	rt.users = identityapp.NewUserService(
		persistence.NewGormAccountOpeningRepositories(db.DB),
		persistence.NewGormAccountOpeningScope(db.DB),
		log.Named("users"),
	)
	return rt, nil
}

// Close releases resources in reverse order of acquisition
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	_ = rt.log.Sync()
	return errors.Join(errs...)
}

// withRuntime adapts a command body that needs the wired services
func withRuntime(fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rt.Close(); cerr != nil {
				rt.log.Warn("Cleanup failed", zap.Error(cerr))
			}
		}()
		return fn(cmd, args, rt)
	}
}
