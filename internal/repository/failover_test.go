package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"praktika/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	fail    bool
	reports map[string]*models.AvailabilityReport
	calls   int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{reports: make(map[string]*models.AvailabilityReport)}
}

func (s *flakyStore) GetReport(ctx context.Context, key string) (*models.AvailabilityReport, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("store down")
	}
	return s.reports[key], nil
}

func (s *flakyStore) SetReport(ctx context.Context, key string, report *models.AvailabilityReport) error {
	s.calls++
	if s.fail {
		return errors.New("store down")
	}
	s.reports[key] = report
	return nil
}

func (s *flakyStore) ClearReport(ctx context.Context, key string) error {
	s.calls++
	if s.fail {
		return errors.New("store down")
	}
	delete(s.reports, key)
	return nil
}

func setupFailover(t *testing.T) (*FailoverReportStore, *flakyStore, *flakyStore) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	primary := newFlakyStore()
	fallback := newFlakyStore()
	return NewFailoverReportStore(primary, fallback, &logger), primary, fallback
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	store, primary, fallback := setupFailover(t)
	ctx := context.Background()

	require.NoError(t, store.SetReport(ctx, "k", sampleReport()))
	got, err := store.GetReport(ctx, "k")
	require.NoError(t, err)
	assert.NotNil(t, got)

	assert.NotZero(t, primary.calls)
	assert.Zero(t, fallback.calls)
}

func TestFailoverFallsBackOnPrimaryError(t *testing.T) {
	store, primary, fallback := setupFailover(t)
	ctx := context.Background()

	primary.fail = true
	require.NoError(t, store.SetReport(ctx, "k", sampleReport()))

	got, err := store.GetReport(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(3), got.Sequence)
	assert.NotZero(t, fallback.calls)
}

func TestFailoverSkipsPrimaryWhileDown(t *testing.T) {
	store, primary, _ := setupFailover(t)
	ctx := context.Background()

	primary.fail = true
	_ = store.SetReport(ctx, "k", sampleReport())
	callsAfterFailure := primary.calls

	// Within the cooldown the primary is not probed again.
	_, _ = store.GetReport(ctx, "k")
	_, _ = store.GetReport(ctx, "k")
	assert.Equal(t, callsAfterFailure, primary.calls)
}

func TestFailoverProbesPrimaryAfterCooldown(t *testing.T) {
	store, primary, _ := setupFailover(t)
	ctx := context.Background()

	primary.fail = true
	_ = store.SetReport(ctx, "k", sampleReport())

	// Pretend the failure happened long ago.
	store.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())
	primary.fail = false
	primary.reports["k"] = sampleReport()

	got, err := store.GetReport(ctx, "k")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.False(t, store.isDown.Load())
}
