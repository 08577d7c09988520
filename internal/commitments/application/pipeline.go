package application

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	commitments "energy-commitments/internal/commitments/domain"
	"energy-commitments/internal/observability/metrics"
)

// CapacityLoader parses an uploaded declared capacity workbook.
type CapacityLoader interface {
	Load(ctx context.Context, r io.Reader) ([]commitments.CapacityRecord, error)
}

// MarketData retrieves the dispatch and price datasets for one date.
type MarketData interface {
	FetchDispatch(ctx context.Context, date time.Time) ([]commitments.DispatchRecord, error)
	FetchPrice(ctx context.Context, date time.Time) ([]commitments.PriceRecord, error)
}

// Pipeline reconciles declared capacity against dispatch and prices for a day.
type Pipeline struct {
	loader CapacityLoader
	market MarketData
	logger *log.Logger
}

// NewPipeline constructs the pipeline.
func NewPipeline(loader CapacityLoader, market MarketData, logger *log.Logger) (*Pipeline, error) {
	if loader == nil {
		return nil, errors.New("pipeline: nil capacity loader")
	}
	if market == nil {
		return nil, errors.New("pipeline: nil market data client")
	}
	return &Pipeline{loader: loader, market: market, logger: logger}, nil
}

// Run produces the commitment rows for date. Any stage failure aborts the run
// and is returned as a *commitments.RunError.
func (p *Pipeline) Run(ctx context.Context, capacityFile io.Reader, date time.Time) ([]commitments.CommitmentRow, error) {
	if date.IsZero() {
		return nil, commitments.ErrInvalidDate
	}
	start := time.Now()
	rows, err := p.run(ctx, capacityFile, date)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
		var runErr *commitments.RunError
		if errors.As(err, &runErr) {
			metrics.IncStageError(string(runErr.Stage))
		}
	}
	metrics.ObservePipelineRun(result, time.Since(start))
	return rows, err
}

func (p *Pipeline) run(ctx context.Context, capacityFile io.Reader, date time.Time) ([]commitments.CommitmentRow, error) {
	fail := func(stage commitments.Stage, err error) error {
		return &commitments.RunError{Date: date, Stage: stage, Err: err}
	}

	capacity, err := p.loader.Load(ctx, capacityFile)
	if err != nil {
		return nil, fail(commitments.StageLoadCapacity, err)
	}

	var dispatch []commitments.DispatchRecord
	var prices []commitments.PriceRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := p.market.FetchDispatch(gctx, date)
		if err != nil {
			return fail(commitments.StageFetchDispatch, err)
		}
		dispatch = records
		return nil
	})
	g.Go(func() error {
		records, err := p.market.FetchPrice(gctx, date)
		if err != nil {
			return fail(commitments.StageFetchPrice, err)
		}
		prices = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	price, err := commitments.SelectPrice(prices)
	if err != nil {
		return nil, fail(commitments.StageSelectPrice, err)
	}

	inScope := commitments.FilterInScope(dispatch, capacity)
	capacityEnriched, capacityDrops := commitments.EnrichCapacity(capacity)
	dispatchEnriched, dispatchDrops := commitments.EnrichDispatch(inScope)
	recordDrops("capacity", capacityDrops)
	recordDrops("dispatch", dispatchDrops)
	metrics.AddDroppedRows("dispatch", "out_of_scope", len(dispatch)-len(inScope))

	balances := commitments.Aggregate(dispatchEnriched, capacityEnriched)
	rows := commitments.Annotate(balances, price)

	p.logf("reconciliation date=%s capacity=%d dispatch=%d in_scope=%d price=%s plant_days=%d dropped_capacity=%d dropped_dispatch=%d",
		date.Format(commitments.DateLayout), len(capacity), len(dispatch), len(inScope), price.String(), len(rows),
		capacityDrops.Total(), dispatchDrops.Total())
	return rows, nil
}

// SelectedPrice runs only the price stages; used by operators to inspect the day price.
func (p *Pipeline) SelectedPrice(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	prices, err := p.market.FetchPrice(ctx, date)
	if err != nil {
		return decimal.Decimal{}, &commitments.RunError{Date: date, Stage: commitments.StageFetchPrice, Err: err}
	}
	price, err := commitments.SelectPrice(prices)
	if err != nil {
		return decimal.Decimal{}, &commitments.RunError{Date: date, Stage: commitments.StageSelectPrice, Err: err}
	}
	return price, nil
}

func recordDrops(table string, stats commitments.DropStats) {
	metrics.AddDroppedRows(table, "missing_plant", stats.MissingPlant)
	metrics.AddDroppedRows(table, "sentinel_plant", stats.SentinelPlant)
	metrics.AddDroppedRows(table, "malformed_date", stats.MalformedDate)
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
