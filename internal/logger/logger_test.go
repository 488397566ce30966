package logger_test

import (
	"errors"
	"testing"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SetDefaults(t *testing.T) {
	cfg := logger.Config{}
	cfg.SetDefaults()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
}

func TestNew_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		t.Run(level, func(t *testing.T) {
			log, err := logger.New(logger.Config{Level: level, OutputPaths: []string{"stderr"}})
			require.NoError(t, err)

			child := log.With(logger.String("service", "review-ingestor"))
			child.Debug("debug entry", logger.Int("n", 1))
			child.Info("info entry", logger.Bool("ok", true))
			child.Warn("warn entry", logger.Error(errors.New("boom")))
		})
	}
}

func TestNop(t *testing.T) {
	log := logger.NewNop()
	log.Info("ignored")
	assert.Same(t, log, log.With(logger.String("k", "v")))
	assert.NoError(t, log.Sync())
}

func TestDomainFields(t *testing.T) {
	tests := []struct {
		name  string
		field logger.Field
		key   string
		value string
	}{
		{name: "run id", field: logger.RunID("run-1"), key: logger.KeyRunID, value: "run-1"},
		{name: "product id", field: logger.ProductID("B00000000A"), key: logger.KeyProductID, value: "B00000000A"},
		{name: "url", field: logger.URL("https://www.amazon.com/dp/B00000000A"), key: logger.KeyURL, value: "https://www.amazon.com/dp/B00000000A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.field.Key)
			assert.Equal(t, tt.value, tt.field.String)
		})
	}
}
