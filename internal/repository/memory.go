package repository

import (
	"context"
	"sync"
	"time"

	"praktika/internal/models"
)

// MemoryReportStore is the in-process fallback when Redis is unavailable.
type MemoryReportStore struct {
	reports sync.Map
	ttl     time.Duration
}

type memoryEntry struct {
	report    *models.AvailabilityReport
	expiresAt time.Time
}

func NewMemoryReportStore(ttl time.Duration) *MemoryReportStore {
	return &MemoryReportStore{ttl: ttl}
}

func (r *MemoryReportStore) GetReport(ctx context.Context, key string) (*models.AvailabilityReport, error) {
	val, ok := r.reports.Load(key)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		r.reports.Delete(key)
		return nil, nil
	}
	return entry.report, nil
}

func (r *MemoryReportStore) SetReport(ctx context.Context, key string, report *models.AvailabilityReport) error {
	r.reports.Store(key, &memoryEntry{report: report, expiresAt: time.Now().Add(r.ttl)})
	return nil
}

func (r *MemoryReportStore) ClearReport(ctx context.Context, key string) error {
	r.reports.Delete(key)
	return nil
}
