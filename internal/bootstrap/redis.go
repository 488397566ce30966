package bootstrap

import (
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/config"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/events"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
)

// SetupEventPublisher returns a run event publisher when Redis is enabled and
// reachable, otherwise nil.
func SetupEventPublisher(cfg *config.Config, log logger.Logger) *events.Publisher {
	if !cfg.Redis.Enabled {
		return nil
	}

	client, err := events.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Warn("Redis not available, run events disabled", logger.Error(err))
		return nil
	}

	log.Info("Event publisher initialized",
		logger.String("redis_address", cfg.Redis.Address),
		logger.String("stream", events.StreamName),
	)
	return events.NewPublisher(client, log)
}
