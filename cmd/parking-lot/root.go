package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/base-14/examples/go/parking-rules/internal/config"
	"github.com/base-14/examples/go/parking-rules/internal/database"
	"github.com/base-14/examples/go/parking-rules/internal/ledger"
	"github.com/base-14/examples/go/parking-rules/internal/logging"
	"github.com/base-14/examples/go/parking-rules/internal/parking"
	"github.com/base-14/examples/go/parking-rules/internal/server"
)

var (
	cfgPath string
	port    string
)

var rootCmd = &cobra.Command{
	Use:          "parking-lot",
	Short:        "Parking lot entry, exit and tariff service",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "", "port for the HTTP server (overrides config)")
}

// app holds everything the commands share.
type app struct {
	cfg       *config.Config
	telemetry *parking.TelemetryProvider
	attendant *parking.InstrumentedAttendant
	db        *gorm.DB
}

// healthCheck pings the database when the Postgres ledger is in use.
func (a *app) healthCheck() server.HealthFunc {
	if a.db == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return database.CheckHealth(ctx, a.db)
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if port != "" {
		cfg.Server.Port = port
	}

	if err := logging.Init(cfg.LoggingOptions()); err != nil {
		return nil, err
	}

	telemetry, err := parking.NewTelemetryProvider(ctx, cfg.TelemetryProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	a := &app{cfg: cfg, telemetry: telemetry}

	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	rules, err := cfg.Rules()
	if err != nil {
		a.close()
		return nil, err
	}

	engine, err := parking.NewEngine(store, rules)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("build rules engine: %w", err)
	}

	a.attendant, err = parking.NewInstrumentedAttendant(parking.NewAttendant(engine, store, nil), telemetry)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("instrument attendant: %w", err)
	}

	return a, nil
}

func (a *app) openStore(ctx context.Context) (parking.Store, error) {
	if a.cfg.Database.URL == "" {
		logging.Logger().Info().Msg("using in-memory ledger")
		return ledger.NewMemory(), nil
	}
	if !ledger.IsPostgresURL(a.cfg.Database.URL) {
		return nil, fmt.Errorf("unsupported database url: only postgres:// is supported")
	}

	db, err := database.Connect(a.cfg.Database.URL, a.cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	a.db = db

	store := ledger.NewPostgres(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logging.Logger().Info().Msg("using postgres ledger")
	return store, nil
}

func (a *app) close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logging.Logger().Info().Msg("shutting down telemetry")
	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		logging.Logger().Error().Err(err).Msg("error shutting down telemetry")
	}

	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			logging.Logger().Error().Err(err).Msg("error closing database")
		}
	}
}
