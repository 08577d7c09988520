package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	commitments "energy-commitments/internal/commitments/domain"
	"energy-commitments/internal/commitments/infrastructure/memory"
)

type countingRunner struct {
	rows  []commitments.CommitmentRow
	err   error
	calls int32
	delay time.Duration
}

func (r *countingRunner) Run(_ context.Context, _ io.Reader, _ time.Time) ([]commitments.CommitmentRow, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return r.rows, r.err
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func sampleRows() []commitments.CommitmentRow {
	return []commitments.CommitmentRow{{
		BalanceRow: commitments.BalanceRow{
			BalanceKey:          commitments.BalanceKey{Year: 2024, Month: 5, Day: 1, PlantCode: "P1"},
			ConsolidatedBalance: decimal.NewFromInt(150),
		},
		CommitmentValue: decimal.NewFromInt(45),
		Operation:       commitments.OperationSell,
	}}
}

func newTestReportService(t *testing.T, runner Runner, repo ReportRepository) *ReportService {
	t.Helper()
	service, err := NewReportService(runner, repo, nil, fixedClock{now: reportDay.Add(15 * time.Hour)})
	if err != nil {
		t.Fatalf("new report service: %v", err)
	}
	return service
}

func TestReportService_ComputesThenServesStored(t *testing.T) {
	ctx := context.Background()
	runner := &countingRunner{rows: sampleRows()}
	repo := memory.NewReportRepository()
	service := newTestReportService(t, runner, repo)

	first, err := service.Generate(ctx, strings.NewReader(""), reportDay)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.Cached || len(first.Rows) != 1 {
		t.Fatalf("expected fresh report with 1 row, got %+v", first)
	}
	second, err := service.Generate(ctx, strings.NewReader(""), reportDay.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if !second.Cached {
		t.Fatalf("expected stored report on second call")
	}
	if runner.calls != 1 || repo.Saves() != 1 {
		t.Fatalf("expected one run and one save, got runs=%d saves=%d", runner.calls, repo.Saves())
	}

	found, err := service.Find(ctx, reportDay)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found.Rows) != 1 || found.Rows[0].PlantCode != "P1" {
		t.Fatalf("unexpected stored rows: %+v", found.Rows)
	}
}

func TestReportService_EmptyResultIsNotStored(t *testing.T) {
	ctx := context.Background()
	runner := &countingRunner{rows: []commitments.CommitmentRow{}}
	repo := memory.NewReportRepository()
	service := newTestReportService(t, runner, repo)

	for i := 0; i < 2; i++ {
		report, err := service.Generate(ctx, strings.NewReader(""), reportDay)
		if err != nil {
			t.Fatalf("generate %d: %v", i, err)
		}
		if len(report.Rows) != 0 || report.Cached {
			t.Fatalf("unexpected report: %+v", report)
		}
	}
	if runner.calls != 2 || repo.Saves() != 0 {
		t.Fatalf("empty result must be recomputed and never stored: runs=%d saves=%d", runner.calls, repo.Saves())
	}
	if _, err := service.Find(ctx, reportDay); !errors.Is(err, commitments.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestReportService_RunFailureNotStored(t *testing.T) {
	runner := &countingRunner{err: &commitments.RunError{Date: reportDay, Stage: commitments.StageSelectPrice, Err: commitments.ErrNoPriceFound}}
	repo := memory.NewReportRepository()
	service := newTestReportService(t, runner, repo)
	if _, err := service.Generate(context.Background(), strings.NewReader(""), reportDay); !errors.Is(err, commitments.ErrNoPriceFound) {
		t.Fatalf("expected ErrNoPriceFound, got %v", err)
	}
	if repo.Saves() != 0 {
		t.Fatalf("failed run must not be stored")
	}
}

func TestReportService_ConcurrentGenerateSharesRun(t *testing.T) {
	runner := &countingRunner{rows: sampleRows(), delay: 50 * time.Millisecond}
	repo := memory.NewReportRepository()
	service := newTestReportService(t, runner, repo)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Generate(context.Background(), strings.NewReader(""), reportDay); err != nil {
				t.Errorf("generate: %v", err)
			}
		}()
	}
	wg.Wait()
	if repo.Saves() != 1 {
		t.Fatalf("expected a single stored report, got %d saves", repo.Saves())
	}
}

func TestReportService_TodayAndDates(t *testing.T) {
	service := newTestReportService(t, &countingRunner{}, memory.NewReportRepository())
	if !service.Today().Equal(reportDay) {
		t.Fatalf("expected today %s, got %s", reportDay, service.Today())
	}
	if _, err := ParseReportDate("2024-13-01"); !errors.Is(err, commitments.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := service.Generate(context.Background(), strings.NewReader(""), time.Time{}); !errors.Is(err, commitments.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
