package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/taskhub/internal/config"
	"github.com/gosuda/taskhub/internal/credential"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/store/memory"
	"github.com/gosuda/taskhub/internal/store/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("taskhub failed")
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "taskhub",
		Short:         "Multi-tenant project and task management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadDotEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newAuditTailCmd(),
	)
	return root
}

// loadConfig reads the environment and configures the global logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(lc config.LogConfig) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if lc.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

// openPostgres connects to PostgreSQL with the configured pool size.
func openPostgres(ctx context.Context, cfg *config.Config) (*postgres.Store, error) {
	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}
	return postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
}

// openStore connects the configured store driver. pg is nil for the memory driver.
func openStore(ctx context.Context, cfg *config.Config) (store domain.Store, pg *postgres.Store, err error) {
	if cfg.Store.Driver == config.DriverMemory {
		log.Warn().Msg("using the in-memory store; all data is lost on exit")
		return memory.New(), nil, nil
	}

	pg, err = openPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.AutoMigrate {
		applied, err := pg.Migrate(ctx)
		if err != nil {
			pg.Close()
			return nil, nil, err
		}
		log.Info().Int("applied", applied).Msg("database migrations up to date")
	}
	return pg, pg, nil
}

func newCredentials(cfg *config.Config) *credential.Store {
	return credential.New(credential.DefaultArgon2id(), cfg.JWT.Secret, cfg.JWT.TTL)
}

// requirePostgres rejects commands that only make sense against a database.
func requirePostgres(cfg *config.Config, command string) error {
	if cfg.Store.Driver != config.DriverPostgres {
		return fmt.Errorf("%s requires TASKHUB_STORE_DRIVER=%s", command, config.DriverPostgres)
	}
	return nil
}
