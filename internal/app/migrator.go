package app

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/Freeeeeet/edubook/internal/config"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// goose хранит диалект и FS в глобальном состоянии
var gooseMu sync.Mutex

// Migrator обёртка над goose
type Migrator struct {
	db      *sql.DB
	dialect string
	logger  *zap.Logger
}

// NewMigrator создаёт мигратор для postgres или sqlite
func NewMigrator(db *sql.DB, driver string, logger *zap.Logger) (*Migrator, error) {
	var dialect string
	switch driver {
	case config.DriverPostgres:
		dialect = "postgres"
	case config.DriverSQLite:
		dialect = "sqlite3"
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}

	return &Migrator{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}, nil
}

// setup настраивает goose, вызывается под gooseMu
func (mg *Migrator) setup() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{mg.logger.Sugar()})
	if err := goose.SetDialect(mg.dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run применяет все pending миграции
func (mg *Migrator) Run(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := mg.setup(); err != nil {
		return err
	}

	mg.logger.Info("Applying database migrations", zap.String("dialect", mg.dialect))

	if err := goose.UpContext(ctx, mg.db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	mg.logger.Info("Migrations applied successfully")
	return nil
}

// Version показывает текущую версию миграций
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := mg.setup(); err != nil {
		return 0, err
	}

	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

func migrate(ctx context.Context, db *sql.DB, driver string, logger *zap.Logger) error {
	migrator, err := NewMigrator(db, driver, logger)
	if err != nil {
		return err
	}
	return migrator.Run(ctx)
}

// gooseLogger направляет вывод goose в zap
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}
