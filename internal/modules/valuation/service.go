// Package valuation joins the holdings cache with live market quotes to
// produce per-holding and portfolio-level market views. Read-only: a
// provider failure degrades the result, it never errors out a request.
package valuation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/holdings"
	"github.com/rs/zerolog"
)

// Price availability status
const (
	PriceLive        = "live"
	PriceUnavailable = "unavailable"
)

// Record is the valuation of one holding. Ephemeral, never persisted.
type Record struct {
	Symbol           string
	Name             string
	Sector           string
	Quantity         float64
	AverageCostBasis float64
	TotalCostBasis   float64

	Price             float64
	PriceStatus       string
	PriceStatusReason string // set when PriceStatus is unavailable

	MarketValue      float64
	Weight           float64  // percent of total holdings market value
	TargetAllocation *float64 // percent; nil when no target configured
	Drift            *float64 // Weight - target; nil when no target (absent != zero)

	DayChange        float64
	DayChangePercent float64

	UnrealizedGain        float64
	UnrealizedGainPercent float64
}

// Summary is the portfolio-level roll-up of a valuation pass
type Summary struct {
	PortfolioID        string
	CashBalance        float64
	HoldingsValue      float64
	TotalEquity        float64
	DayChange          float64
	DayChangePercent   float64
	NetDeposits        float64
	TotalReturn        float64
	TotalReturnPercent *float64 // nil when net deposits are zero
	DailyAlpha         *float64 // vs benchmark; nil when the benchmark quote is unavailable
	HoldingCount       int
}

// SectorSlice is one sector's share of the portfolio
type SectorSlice struct {
	Sector      string
	MarketValue float64
	Weight      float64 // percent
	Holdings    int
}

// HoldingsSource provides the cached positions of a portfolio
type HoldingsSource interface {
	GetAll(portfolioID string) ([]holdings.Holding, error)
}

// LedgerSource provides cash figures derived from the transaction ledger
type LedgerSource interface {
	CashBalance(portfolioID string) (float64, error)
	NetDeposits(portfolioID string) (float64, error)
}

// Service is the valuation engine
type Service struct {
	holdings        HoldingsSource
	ledger          LedgerSource
	marketData      domain.MarketDataProvider
	benchmarkSymbol string
	log             zerolog.Logger
}

// NewService creates a new valuation service
func NewService(holdingsSource HoldingsSource, ledgerSource LedgerSource, marketData domain.MarketDataProvider, benchmarkSymbol string, log zerolog.Logger) *Service {
	return &Service{
		holdings:        holdingsSource,
		ledger:          ledgerSource,
		marketData:      marketData,
		benchmarkSymbol: benchmarkSymbol,
		log:             log.With().Str("service", "valuation").Logger(),
	}
}

// Valuate produces one record per holding, enriched with live quotes fetched
// in a single batched call. One unavailable quote degrades only its own
// record; a provider-wide failure degrades every record but still returns
// one per holding.
func (s *Service) Valuate(ctx context.Context, portfolioID string) ([]Record, error) {
	positions, err := s.holdings.GetAll(portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	if len(positions) == 0 {
		return []Record{}, nil
	}

	symbols := make([]string, 0, len(positions))
	for _, h := range positions {
		symbols = append(symbols, h.Symbol)
	}

	quotes, quotesErr := s.marketData.GetMultipleQuotes(ctx, symbols)
	if quotesErr != nil {
		s.log.Warn().Err(quotesErr).Str("portfolio_id", portfolioID).Msg("Batch quote fetch failed, valuing with prices unavailable")
	}

	records := make([]Record, 0, len(positions))
	totalMarketValue := 0.0

	for _, h := range positions {
		rec := Record{
			Symbol:           h.Symbol,
			Sector:           h.Sector,
			Quantity:         h.Quantity,
			AverageCostBasis: h.AverageCostBasis,
			TotalCostBasis:   h.TotalCostBasis,
			TargetAllocation: h.TargetAllocation,
		}

		quote, ok := quotes[h.Symbol]
		switch {
		case quotesErr != nil:
			rec.PriceStatus = PriceUnavailable
			rec.PriceStatusReason = "market data provider unavailable"
		case !ok || quote.Price <= 0:
			rec.PriceStatus = PriceUnavailable
			rec.PriceStatusReason = fmt.Sprintf("no quote data for %s", h.Symbol)
		default:
			rec.PriceStatus = PriceLive
			rec.Name = quote.Name
			rec.Price = quote.Price
			rec.MarketValue = quote.Price * h.Quantity
			rec.DayChange = quote.Change * h.Quantity
			rec.DayChangePercent = quote.ChangePercent
		}

		rec.UnrealizedGain = rec.MarketValue - h.TotalCostBasis
		if h.TotalCostBasis > 0 {
			rec.UnrealizedGainPercent = rec.UnrealizedGain / h.TotalCostBasis * 100
		}

		totalMarketValue += rec.MarketValue
		records = append(records, rec)
	}

	// Second pass: weights and drift need the portfolio total
	for i := range records {
		if totalMarketValue > 0 {
			records[i].Weight = records[i].MarketValue / totalMarketValue * 100
		}
		if records[i].TargetAllocation != nil {
			drift := records[i].Weight - *records[i].TargetAllocation
			records[i].Drift = &drift
		}
	}

	return records, nil
}

// Summarize rolls a valuation pass up to portfolio level
func (s *Service) Summarize(ctx context.Context, portfolioID string) (*Summary, error) {
	records, err := s.Valuate(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	cash, err := s.ledger.CashBalance(portfolioID)
	if err != nil {
		return nil, err
	}

	netDeposits, err := s.ledger.NetDeposits(portfolioID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		PortfolioID:  portfolioID,
		CashBalance:  cash,
		NetDeposits:  netDeposits,
		HoldingCount: len(records),
	}

	for _, rec := range records {
		summary.HoldingsValue += rec.MarketValue
		summary.DayChange += rec.DayChange
	}

	summary.TotalEquity = summary.CashBalance + summary.HoldingsValue
	summary.TotalReturn = summary.TotalEquity - summary.NetDeposits
	if summary.NetDeposits > 0 {
		pct := summary.TotalReturn / summary.NetDeposits * 100
		summary.TotalReturnPercent = &pct
	}

	if previousValue := summary.HoldingsValue - summary.DayChange; previousValue > 0 {
		summary.DayChangePercent = summary.DayChange / previousValue * 100
	}

	// Daily alpha vs the reference benchmark, best-effort
	if s.benchmarkSymbol != "" {
		if benchmark, err := s.marketData.GetQuote(ctx, s.benchmarkSymbol); err == nil {
			alpha := summary.DayChangePercent - benchmark.ChangePercent
			summary.DailyAlpha = &alpha
		} else {
			s.log.Debug().Err(err).Str("benchmark", s.benchmarkSymbol).Msg("Benchmark quote unavailable, omitting daily alpha")
		}
	}

	return summary, nil
}

// SectorAllocation groups the portfolio's market value by sector,
// largest first. Holdings without a cached sector fall under "Unknown".
func (s *Service) SectorAllocation(ctx context.Context, portfolioID string) ([]SectorSlice, error) {
	records, err := s.Valuate(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	bySector := make(map[string]*SectorSlice)
	totalValue := 0.0

	for _, rec := range records {
		sector := strings.TrimSpace(rec.Sector)
		if sector == "" {
			sector = "Unknown"
		}

		slice, ok := bySector[sector]
		if !ok {
			slice = &SectorSlice{Sector: sector}
			bySector[sector] = slice
		}
		slice.MarketValue += rec.MarketValue
		slice.Holdings++
		totalValue += rec.MarketValue
	}

	slices := make([]SectorSlice, 0, len(bySector))
	for _, slice := range bySector {
		if totalValue > 0 {
			slice.Weight = slice.MarketValue / totalValue * 100
		}
		slices = append(slices, *slice)
	}

	sort.Slice(slices, func(i, j int) bool {
		return slices[i].MarketValue > slices[j].MarketValue
	})

	return slices, nil
}
