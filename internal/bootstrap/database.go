package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/config"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/database"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
)

const migrateTimeout = time.Minute

// SetupDatabase connects to PostgreSQL and applies pending migrations.
func SetupDatabase(cfg *config.Config, log logger.Logger) (*sqlx.DB, error) {
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	if len(applied) > 0 {
		log.Info("Database migrations applied", logger.Strings("migrations", applied))
	}

	return db, nil
}
