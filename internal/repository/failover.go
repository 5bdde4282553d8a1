package repository

import (
	"context"
	"sync/atomic"
	"time"

	"praktika/internal/domain"
	"praktika/internal/models"

	"github.com/rs/zerolog"
)

// FailoverReportStore prefers the primary (Redis) store and falls back to
// memory when it errors, probing the primary again after a cooldown.
type FailoverReportStore struct {
	primary   domain.ReportStore
	fallback  domain.ReportStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed probe
}

const recoveryProbeInterval = time.Minute

func NewFailoverReportStore(primary, fallback domain.ReportStore, logger *zerolog.Logger) *FailoverReportStore {
	return &FailoverReportStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverReportStore) GetReport(ctx context.Context, key string) (*models.AvailabilityReport, error) {
	if !r.isDown.Load() {
		report, err := r.primary.GetReport(ctx, key)
		if err == nil {
			return report, nil
		}
		r.markDown(err)
	}

	if r.shouldProbe() {
		report, err := r.primary.GetReport(ctx, key)
		if err == nil {
			r.isDown.Store(false)
			return report, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}

	return r.fallback.GetReport(ctx, key)
}

func (r *FailoverReportStore) SetReport(ctx context.Context, key string, report *models.AvailabilityReport) error {
	if !r.isDown.Load() {
		err := r.primary.SetReport(ctx, key, report)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SetReport(ctx, key, report)
}

func (r *FailoverReportStore) ClearReport(ctx context.Context, key string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearReport(ctx, key)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.ClearReport(ctx, key)
}

func (r *FailoverReportStore) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary report store failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverReportStore) shouldProbe() bool {
	return r.isDown.Load() &&
		time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryProbeInterval
}
