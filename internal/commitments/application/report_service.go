package application

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	commitments "energy-commitments/internal/commitments/domain"
	"energy-commitments/internal/observability/metrics"
)

// Runner computes commitment rows for a date.
type Runner interface {
	Run(ctx context.Context, capacityFile io.Reader, date time.Time) ([]commitments.CommitmentRow, error)
}

// ReportRepository stores computed commitment rows by report date.
type ReportRepository interface {
	ListByDate(ctx context.Context, date time.Time) ([]commitments.CommitmentRow, error)
	SaveReport(ctx context.Context, date time.Time, rows []commitments.CommitmentRow) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Report is the set of commitment rows of one date.
type Report struct {
	Date   time.Time
	Rows   []commitments.CommitmentRow
	Cached bool
}

// ReportService serves stored reports and computes missing ones.
type ReportService struct {
	runner Runner
	repo   ReportRepository
	logger *log.Logger
	clock  Clock
	group  singleflight.Group
}

// NewReportService constructs the service.
func NewReportService(runner Runner, repo ReportRepository, logger *log.Logger, clock Clock) (*ReportService, error) {
	if runner == nil {
		return nil, errors.New("report service: nil runner")
	}
	if repo == nil {
		return nil, errors.New("report service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReportService{runner: runner, repo: repo, logger: logger, clock: clock}, nil
}

// Today returns the current report date.
func (s *ReportService) Today() time.Time {
	return DayOf(s.clock.Now())
}

// Generate returns the stored report for date, or runs the pipeline on the
// capacity file and stores the result. Plant-day sets that are empty are not
// stored, so later calls recompute them. Concurrent calls for the same date
// share one computation.
func (s *ReportService) Generate(ctx context.Context, capacityFile io.Reader, date time.Time) (Report, error) {
	if date.IsZero() {
		return Report{}, commitments.ErrInvalidDate
	}
	date = DayOf(date)
	key := date.Format(commitments.DateLayout)
	value, err, _ := s.group.Do(key, func() (any, error) {
		return s.generate(ctx, capacityFile, date)
	})
	if err != nil {
		return Report{}, err
	}
	return value.(Report), nil
}

func (s *ReportService) generate(ctx context.Context, capacityFile io.Reader, date time.Time) (Report, error) {
	stored, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return Report{}, err
	}
	if len(stored) > 0 {
		metrics.IncReportCache(true)
		return Report{Date: date, Rows: stored, Cached: true}, nil
	}
	metrics.IncReportCache(false)

	rows, err := s.runner.Run(ctx, capacityFile, date)
	if err != nil {
		s.logf("report generate failed: date=%s err=%v", date.Format(commitments.DateLayout), err)
		return Report{}, err
	}
	if len(rows) == 0 {
		s.logf("report generate: date=%s produced no plant-days, not stored", date.Format(commitments.DateLayout))
		return Report{Date: date, Rows: rows}, nil
	}
	if err := s.repo.SaveReport(ctx, date, rows); err != nil {
		return Report{}, err
	}
	s.logf("report generated: date=%s rows=%d", date.Format(commitments.DateLayout), len(rows))
	return Report{Date: date, Rows: rows}, nil
}

// Find returns the stored report for date.
func (s *ReportService) Find(ctx context.Context, date time.Time) (Report, error) {
	if date.IsZero() {
		return Report{}, commitments.ErrInvalidDate
	}
	date = DayOf(date)
	rows, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return Report{}, err
	}
	if len(rows) == 0 {
		metrics.IncReportCache(false)
		return Report{}, commitments.ErrReportNotFound
	}
	metrics.IncReportCache(true)
	return Report{Date: date, Rows: rows, Cached: true}, nil
}

// DayOf truncates t to its calendar day in UTC.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseReportDate parses a YYYY-MM-DD report date.
func ParseReportDate(value string) (time.Time, error) {
	parsed, err := time.Parse(commitments.DateLayout, value)
	if err != nil {
		return time.Time{}, commitments.ErrInvalidDate
	}
	return parsed, nil
}

func (s *ReportService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
