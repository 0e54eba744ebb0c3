package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dareduel/internal/config"
	"dareduel/internal/microservices/http-api/models"
)

// ConnectDB opens the Postgres database through GORM and migrates the schema.
func ConnectDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{}
	if cfg.IsProduction() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying connection: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		// close the db handle if ping fails to avoid resource leak
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Connected to the database successfully")
	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.BlockedUser{},
		&models.Challenge{},
		&models.Notification{},
		&models.GameStats{},
	)
}

// ConnectPool opens a raw pgx pool for the repositories that run hand-written
// SQL (leaderboard aggregation) beside the GORM stack.
func ConnectPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect pgx pool: %w", err)
	}
	logger.Info("pgx pool connected")
	return pool, nil
}
