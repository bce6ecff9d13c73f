package models

import (
	"fmt"

	"github.com/rtucker-mozilla/minventory/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the configured database and stores it in DB. logMode follows
// the server mode: debug logs every statement, test logs nothing.
func InitDB(cfg *config.DatabaseConfig, logMode string) error {
	db, err := Open(cfg, logMode)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open returns a new connection without touching the package level DB.
func Open(cfg *config.DatabaseConfig, logMode string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(logMode)),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

func gormLogLevel(mode string) logger.LogLevel {
	switch mode {
	case "debug":
		return logger.Info
	case "test":
		return logger.Silent
	default:
		return logger.Warn
	}
}

func GetDB() *gorm.DB {
	return DB
}
