package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	commitments "energy-commitments/internal/commitments/domain"
)

// ReportRepository is an in-memory report store for tests and local runs.
type ReportRepository struct {
	mu    sync.RWMutex
	data  map[string][]commitments.CommitmentRow
	saves int
}

// NewReportRepository constructs a repository.
func NewReportRepository() *ReportRepository {
	return &ReportRepository{data: make(map[string][]commitments.CommitmentRow)}
}

// ListByDate returns the rows stored for date.
func (r *ReportRepository) ListByDate(ctx context.Context, date time.Time) ([]commitments.CommitmentRow, error) {
	_ = ctx
	if date.IsZero() {
		return nil, commitments.ErrInvalidDate
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.data[date.Format(commitments.DateLayout)]
	return append([]commitments.CommitmentRow(nil), rows...), nil
}

// SaveReport replaces the rows stored for date.
func (r *ReportRepository) SaveReport(ctx context.Context, date time.Time, rows []commitments.CommitmentRow) error {
	_ = ctx
	if r == nil {
		return errors.New("memory report repo: nil repository")
	}
	if date.IsZero() {
		return commitments.ErrInvalidDate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[date.Format(commitments.DateLayout)] = append([]commitments.CommitmentRow(nil), rows...)
	r.saves++
	return nil
}

// Saves returns how many times SaveReport succeeded.
func (r *ReportRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
