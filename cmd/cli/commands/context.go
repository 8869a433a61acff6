package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/clients/sheetsclient"
	"github.com/jakechorley/shift-planner/pkg/core/services"
	"github.com/jakechorley/shift-planner/pkg/db"
	"github.com/jakechorley/shift-planner/pkg/lock"
	"github.com/jakechorley/shift-planner/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Database db.Database
	Locker   lock.Locker
	Logger   *zap.Logger
	Ctx      context.Context

	sheets *sheetsclient.Client
}

// SheetsPublisher authorises against Google on first use and reuses the client afterwards
func (app *AppContext) SheetsPublisher() (services.SchedulePublisher, error) {
	if app.sheets != nil {
		return app.sheets, nil
	}
	if app.Cfg.Sheets == nil {
		return nil, fmt.Errorf("no sheets section in the configuration")
	}

	app.Logger.Info("Loading Google client configuration")
	googleCfg, err := config.LoadGoogleClientWithEnv(app.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load google client config: %w", err)
	}

	app.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(app.Ctx, googleCfg, app.Env, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	app.sheets = client
	return client, nil
}

// Postgres returns the database when it is the postgres store
func (app *AppContext) Postgres() (*postgres.DB, error) {
	pg, ok := app.Database.(*postgres.DB)
	if !ok {
		return nil, fmt.Errorf("the %s store has no migrations", app.Cfg.Database.Driver)
	}
	return pg, nil
}

// ExitError carries a process exit code other than 1
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string {
	return e.Msg
}
