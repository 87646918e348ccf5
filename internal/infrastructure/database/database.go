package database

import (
	"context"
	"fmt"

	"nhadat-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open opens a GORM DB for the given driver.
// For postgres, PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers such as PgBouncer.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch driver {
	case DriverPostgres, "":
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), cfg)
	case DriverSQLite:
		if dsn == "" {
			dsn = "file:nhadat.db?_pragma=foreign_keys(1)"
		}
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		// ":memory:" databases exist per connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}
}

// Models lists every table owned by the service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&domain.Account{},
		&domain.Listing{},
		&domain.Image{},
		&domain.ListingEvent{},
	}
}

// AutoMigrate creates or updates the schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Ping checks the underlying connection.
func Ping(db *gorm.DB) error {
	return PingContext(context.Background(), db)
}

func PingContext(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
