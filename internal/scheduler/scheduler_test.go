package scheduler_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/scheduler"
)

type mockStarter struct {
	mock.Mock
}

func (m *mockStarter) Start(skipExisting bool) (string, error) {
	args := m.Called(skipExisting)
	return args.String(0), args.Error(1)
}

func TestScheduler_Tick(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "started"},
		{name: "busy", err: models.ErrAlreadyRunning},
		{name: "failure", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starter := &mockStarter{}
			starter.On("Start", true).Return("run-1", tt.err).Once()

			s := scheduler.New("@daily", true, starter, logger.NewNop())
			assert.NotPanics(t, s.Tick)
			starter.AssertExpectations(t)
		})
	}
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	s := scheduler.New("every tuesday", true, &mockStarter{}, logger.NewNop())
	require.Error(t, s.Start())
}

func TestScheduler_StartStop(t *testing.T) {
	starter := &mockStarter{}
	s := scheduler.New("0 3 * * *", false, starter, logger.NewNop())
	require.NoError(t, s.Start())
	s.Stop()
	starter.AssertNotCalled(t, "Start", mock.Anything)
}
