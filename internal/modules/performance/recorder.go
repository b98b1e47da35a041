package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/valuation"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// Summarizer produces the portfolio-level valuation a snapshot is taken from
type Summarizer interface {
	Summarize(ctx context.Context, portfolioID string) (*valuation.Summary, error)
}

// PortfolioLister enumerates portfolio ids for the record-all job
type PortfolioLister interface {
	IDs() ([]string, error)
}

// Recorder captures end-of-day snapshots of portfolio value
type Recorder struct {
	repo         *Repository
	valuation    Summarizer
	portfolios   PortfolioLister
	marketData   domain.MarketDataProvider
	sp500Symbol  string
	nasdaqSymbol string
	log          zerolog.Logger
}

// NewRecorder creates a new performance recorder
func NewRecorder(repo *Repository, summarizer Summarizer, portfolios PortfolioLister, marketData domain.MarketDataProvider, sp500Symbol, nasdaqSymbol string, log zerolog.Logger) *Recorder {
	return &Recorder{
		repo:         repo,
		valuation:    summarizer,
		portfolios:   portfolios,
		marketData:   marketData,
		sp500Symbol:  sp500Symbol,
		nasdaqSymbol: nasdaqSymbol,
		log:          log.With().Str("service", "performance_recorder").Logger(),
	}
}

// RecordSnapshot captures today's snapshot for one portfolio. Running it twice
// on the same day replaces the earlier row rather than duplicating it. The
// daily return compares against the latest prior snapshot, whatever day that
// was; benchmark closes are best-effort and left null on failure.
func (r *Recorder) RecordSnapshot(ctx context.Context, portfolioID string) (*Snapshot, error) {
	summary, err := r.valuation.Summarize(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to value portfolio for snapshot: %w", err)
	}

	date := time.Now().Format(dateLayout)

	s := Snapshot{
		PortfolioID:   portfolioID,
		Date:          date,
		TotalEquity:   summary.TotalEquity,
		CashBalance:   summary.CashBalance,
		HoldingsValue: summary.HoldingsValue,
		NetDeposits:   summary.NetDeposits,
	}

	prior, err := r.repo.LatestBefore(portfolioID, date)
	if err != nil {
		return nil, err
	}
	if prior != nil && prior.TotalEquity > 0 {
		daily := (s.TotalEquity - prior.TotalEquity) / prior.TotalEquity * 100
		s.DailyReturnPct = &daily
	}

	if s.NetDeposits > 0 {
		cumulative := (s.TotalEquity - s.NetDeposits) / s.NetDeposits * 100
		s.CumulativeReturnPct = &cumulative
	}

	s.SP500Close = r.benchmarkClose(ctx, r.sp500Symbol)
	s.NasdaqClose = r.benchmarkClose(ctx, r.nasdaqSymbol)

	if err := r.repo.Upsert(s); err != nil {
		return nil, err
	}

	r.log.Info().
		Str("portfolio_id", portfolioID).
		Str("date", date).
		Float64("total_equity", s.TotalEquity).
		Msg("Performance snapshot recorded")

	return &s, nil
}

// RecordAll snapshots every portfolio. One portfolio's failure is logged and
// skipped so a bad portfolio cannot starve the rest of the scheduled run.
func (r *Recorder) RecordAll(ctx context.Context) error {
	ids, err := r.portfolios.IDs()
	if err != nil {
		return fmt.Errorf("failed to list portfolios for snapshots: %w", err)
	}

	failures := 0
	for _, id := range ids {
		if _, err := r.RecordSnapshot(ctx, id); err != nil {
			failures++
			r.log.Error().Err(err).Str("portfolio_id", id).Msg("Snapshot failed")
		}
	}

	if failures > 0 {
		return fmt.Errorf("snapshots failed for %d of %d portfolios", failures, len(ids))
	}

	r.log.Info().Int("portfolios", len(ids)).Msg("Snapshot run completed")
	return nil
}

// History returns snapshots in the range with returns rebaselined on the
// first row, so a partial-range query reads as "growth since the start of the
// window" rather than since inception.
func (r *Recorder) History(portfolioID, from, to string) ([]Snapshot, error) {
	snapshots, err := r.repo.History(portfolioID, from, to)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return snapshots, nil
	}

	base := snapshots[0].TotalEquity
	for i := range snapshots {
		if base > 0 {
			rebased := (snapshots[i].TotalEquity - base) / base * 100
			snapshots[i].CumulativeReturnPct = &rebased
		} else {
			snapshots[i].CumulativeReturnPct = nil
		}
	}

	return snapshots, nil
}

func (r *Recorder) benchmarkClose(ctx context.Context, symbol string) *float64 {
	if symbol == "" || r.marketData == nil {
		return nil
	}

	quote, err := r.marketData.GetQuote(ctx, symbol)
	if err != nil {
		r.log.Debug().Err(err).Str("symbol", symbol).Msg("Benchmark close unavailable")
		return nil
	}
	if quote.Price <= 0 {
		return nil
	}

	return &quote.Price
}
