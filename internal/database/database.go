package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"medinsight/internal/config"
	"medinsight/internal/records"
)

// DBManager owns the gorm connection to the event store.
type DBManager struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

// NewDBManager creates a database manager for the configured database type.
func NewDBManager(cfg *config.Config, logger *slog.Logger) *DBManager {
	return &DBManager{cfg: cfg, logger: logger}
}

// NewDBManagerWithConnection wraps an already opened connection.
func NewDBManagerWithConnection(db *gorm.DB, logger *slog.Logger) *DBManager {
	return &DBManager{db: db, logger: logger}
}

// Init opens the database connection.
func (dm *DBManager) Init() error {
	if dm.db != nil {
		return nil
	}

	dialector, err := dm.dialector()
	if err != nil {
		return err
	}

	logLevel := logger.Warn
	if dm.cfg.IsTest() {
		logLevel = logger.Silent
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("error connecting to %s database: %w", dm.cfg.DatabaseType, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("error getting sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(dm.cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(dm.cfg.GetMaxIdleConns())

	dm.db = db
	dm.logger.Info("Database connection established",
		slog.String("type", dm.cfg.DatabaseType))
	return nil
}

func (dm *DBManager) dialector() (gorm.Dialector, error) {
	switch dm.cfg.DatabaseType {
	case config.PostgresDatabase:
		return postgres.Open(dm.cfg.DatabaseDSN()), nil
	case config.SQLiteDatabase:
		path := dm.cfg.DatabaseDSN()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("error creating storage directory: %w", err)
		}
		dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dm.cfg.DatabaseType)
	}
}

// GetConnection returns the open connection, nil before Init.
func (dm *DBManager) GetConnection() *gorm.DB {
	return dm.db
}

// MigrateDatabase creates or updates the users, questions and feedback tables.
func (dm *DBManager) MigrateDatabase() error {
	db := dm.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(records.Models()...)
	})
	if err != nil {
		dm.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	dm.logger.Info("Database migration completed successfully")
	return nil
}

// Ping checks that the database answers.
func (dm *DBManager) Ping(ctx context.Context) error {
	if dm.db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := dm.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (dm *DBManager) Close() error {
	if dm.db == nil {
		return nil
	}
	sqlDB, err := dm.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
