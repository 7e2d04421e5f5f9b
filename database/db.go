package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/database/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

const pingTimeout = 8 * time.Second

// InitDB opens the database described by cfg. It does not create tables;
// call EnsureSchema for that.
func InitDB(cfg *config.DatabaseConfig) error {
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return err
	}

	var gormLogger logger.Interface
	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	}

	var dialector gorm.Dialector
	if cfg.IsPostgreSQL() {
		d, err := openPostgres(cfg.GetDSN())
		if err != nil {
			return err
		}
		dialector = d
	} else {
		dialector = sqlite.Open(cfg.GetDSN() + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	}

	conn, err := gorm.Open(dialector, c)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

func openPostgres(dsn string) (gorm.Dialector, error) {
	pgCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pgCfg)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect postgres %s:%d: %w", pgCfg.Host, pgCfg.Port, err)
	}

	return postgres.New(postgres.Config{Conn: sqlDB}), nil
}

// EnsureSchema creates the account table and its unique email index if they
// are missing. Safe to call on every start.
func EnsureSchema() error {
	if db == nil {
		return errors.New("database not initialized")
	}
	return db.AutoMigrate(&model.Account{})
}

func CloseDB() error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		err = sqlDB.Close()
		db = nil
		return err
	}
	return nil
}

func GetDB() *gorm.DB {
	return db
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
