package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/config"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
)

// LoadConfig loads and validates the configuration file. An empty path falls
// back to CONFIG_PATH, then config.yml.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// CreateLogger builds the service logger with service and version fields attached.
func CreateLogger(cfg *config.Config, version string) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", ServiceName),
		logger.String("version", version),
	), nil
}
