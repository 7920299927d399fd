package db

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/depictapp/depict/internal/config"
	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// New opens the application database from Config and applies pool settings.
func New(cfg config.Config) (*gorm.DB, error) {
	dialect, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialect, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)

	return gdb, nil
}

var testSeq int64

// NewTest opens an in-memory sqlite database for tests. Each call gets
// its own database; the pool is pinned to a single connection so
// concurrent test goroutines share one serialized handle.
func NewTest() (*gorm.DB, error) {
	name := fmt.Sprintf("file:depict_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testSeq, 1))
	gdb, err := gorm.Open(sqlite.Open(name), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return gdb, nil
}

// IsPostgres reports whether the connection speaks the postgres dialect.
// The advisory-lock debit path is only available there.
func IsPostgres(gdb *gorm.DB) bool {
	return gdb != nil && gdb.Dialector.Name() == "postgres"
}

// Module provides the gorm database handle.
var Module = fx.Module("db",
	fx.Provide(New),
)
