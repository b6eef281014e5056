package db

import (
	"fmt"
	"log/slog"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/taskmanager-dev/taskmanager/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// Registers the "postgres" database/sql driver used by the postgres dialector.
	_ "github.com/lib/pq"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Open connects to the database described by driver and dsn.
func Open(driver, dsn string, log *slog.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(driver, dsn)

	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(log),
	})

	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver != DriverSQLite {
		sqlDB, err := conn.DB()

		if err != nil {
			return nil, err
		}

		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return conn, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres:
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn}), nil
	case DriverMySQL:
		normalized, err := normalizeMySQLDSN(dsn)

		if err != nil {
			return nil, err
		}

		return mysql.Open(normalized), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

// normalizeMySQLDSN forces parseTime so timestamps scan into time.Time.
func normalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := gomysql.ParseDSN(dsn)

	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}

	cfg.ParseTime = true

	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}

	return cfg.FormatDSN(), nil
}

func Migrate(conn *gorm.DB) error {
	models := []interface{}{
		&models.User{},
		&models.Credentials{},
		&models.Project{},
		&models.Tag{},
		&models.Task{},
	}

	for _, model := range models {
		if err := conn.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}

	return nil
}

func newLogger(log *slog.Logger) logger.Interface {
	if log == nil {
		return logger.Discard
	}

	return logger.New(slog.NewLogLogger(log.Handler(), slog.LevelWarn), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
