package database

import (
	"context"
	"embed"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	migrate "github.com/rubenv/sql-migrate"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-stats/internal/domain/entities"
	"github.com/johnquangdev/meeting-stats/pkg/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Open connects to the database selected by cfg.Database.Driver
func Open(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.Driver == "sqlite" {
		return NewSQLiteDB(cfg.GetDatabaseDSN(), gormLogger(cfg))
	}
	return NewPostgresDB(cfg)
}

// NewPostgresDB creates a new PostgreSQL database connection using GORM
func NewPostgresDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	// Open connection
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger(cfg),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get generic database object to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// The database container often comes up after the service does
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = cfg.Database.ConnectTimeout

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Printf("⏳ Database not ready: %v", err)
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, bo); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connected successfully")

	return db, nil
}

// Migrate brings the schema up to date. PostgreSQL uses the embedded
// sql-migrate files; SQLite falls back to GORM AutoMigrate.
func Migrate(db *gorm.DB) (int, error) {
	if db.Dialector.Name() != "postgres" {
		return 0, AutoMigrate(db)
	}

	log.Println("🔄 Applying embedded migrations using sql-migrate...")

	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate up, error: %v", err)
	}

	n, err := migrate.Exec(sqlDB, "postgres", migrationSource(), migrate.Up)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migration, error: %v", err)
	}

	log.Printf("✅ Applied %d migrations!\n", n)
	return n, nil
}

// MigrateDown rolls back at most max embedded migrations; max 0 rolls back all
func MigrateDown(db *gorm.DB, max int) (int, error) {
	if db.Dialector.Name() != "postgres" {
		return 0, fmt.Errorf("down migrations require postgres, got %s", db.Dialector.Name())
	}

	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate down: %w", err)
	}

	n, err := migrate.ExecMax(sqlDB, "postgres", migrationSource(), migrate.Down, max)
	if err != nil {
		return 0, fmt.Errorf("failed to roll back migration: %w", err)
	}
	return n, nil
}

func migrationSource() *migrate.EmbedFileSystemMigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// AutoMigrate creates the schema from the entity definitions
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.UserStatistics{}, &entities.MeetingRecord{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("✅ Database connection closed")
	return nil
}

func gormLogger(cfg *config.Config) logger.Interface {
	if cfg.IsProduction() {
		return logger.Default.LogMode(logger.Error)
	}
	return logger.Default.LogMode(logger.Info)
}
