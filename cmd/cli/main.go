package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/cmd/cli/commands"
	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/db"
	"github.com/jakechorley/shift-planner/pkg/db/memory"
	"github.com/jakechorley/shift-planner/pkg/lock"
	"github.com/jakechorley/shift-planner/pkg/postgres"
	"github.com/jakechorley/shift-planner/pkg/utils/logging"
)

var (
	env     string
	store   string
	fixture string
	verbose bool

	app      = &commands.AppContext{Ctx: context.Background()}
	cleanups []func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "shift-planner",
		Short:        "Shift Planner CLI - Generate and manage staff schedules",
		Long:         `A CLI tool for generating shift schedules from coverage demand, availability and history, and managing their versions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().StringVar(&store, "store", "", "Override the configured store: memory or postgres")
	rootCmd.PersistentFlags().StringVar(&fixture, "fixture", "", "YAML file seeding the memory store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")

	rootCmd.AddCommand(sessionCommands(app)...)
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app, sessionCommands))

	err := rootCmd.Execute()
	shutdown()
	if err != nil {
		var exitErr *commands.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// sessionCommands are the commands that can also run inside an interactive session
func sessionCommands(app *commands.AppContext) []*cobra.Command {
	return []*cobra.Command{
		commands.GenerateCmd(app),
		commands.PublishCmd(app),
		commands.ArchiveCmd(app),
		commands.DuplicateCmd(app),
		commands.ListVersionsCmd(app),
		commands.ShowCmd(app),
		commands.EditEntryCmd(app),
		commands.ExplainCmd(app),
		commands.ExportCmd(app),
	}
}

// initApp sets up logger, config, store and run lock
func initApp() error {
	var err error
	app.Env = env

	logger, closeLogs, err := logging.New(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	cleanups = append(cleanups, closeLogs)

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Debug("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if store != "" {
		app.Cfg.Database.Driver = store
	}
	if fixture != "" {
		app.Cfg.Database.Fixture = fixture
	}
	if err := config.Validate(app.Cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	app.Database, err = openStore(app.Ctx, app.Cfg, app.Logger)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, app.Database.Close)

	app.Locker, err = openLocker(app.Cfg, app.Logger)
	if err != nil {
		return err
	}

	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Database, error) {
	switch cfg.Database.Driver {
	case "postgres":
		logger.Info("Connecting to postgres")
		pg, err := postgres.NewDB(ctx, cfg.Database.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return pg, nil
	default:
		if cfg.Database.Fixture == "" {
			logger.Warn("Memory store has no fixture; every input list is empty")
			return memory.New(memory.Inputs{}), nil
		}
		logger.Info("Loading memory store fixture", zap.String("path", cfg.Database.Fixture))
		mem, err := memory.LoadFixture(cfg.Database.Fixture)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixture: %w", err)
		}
		return mem, nil
	}
}

func openLocker(cfg *config.Config, logger *zap.Logger) (lock.Locker, error) {
	if cfg.Redis == nil {
		logger.Debug("Using in-process generation lock")
		return lock.NewLocalLocker(), nil
	}

	locker, err := lock.NewRedisLocker(lock.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, err
	}
	cleanups = append(cleanups, func() {
		if err := locker.Close(); err != nil {
			logger.Warn("Failed to close redis", zap.Error(err))
		}
	})
	return locker, nil
}

func shutdown() {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
