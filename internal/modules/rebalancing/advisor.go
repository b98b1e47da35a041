// Package rebalancing suggests trades that move a portfolio back toward its
// configured target allocations. Advisory only: nothing here writes to the
// ledger or the holdings cache.
package rebalancing

import (
	"context"
	"math"
	"sort"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/valuation"
	"github.com/rs/zerolog"
)

// DefaultDriftThreshold is the minimum absolute drift, in percentage points,
// before a position earns a suggestion.
const DefaultDriftThreshold = 2.0

// Trade actions
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Suggestion is one advisory trade
type Suggestion struct {
	Symbol        string
	Action        string
	CurrentWeight float64 // percent
	TargetWeight  float64 // percent
	Drift         float64 // CurrentWeight - TargetWeight
	CurrentValue  float64
	TargetValue   float64
	TradeValue    float64 // absolute dollar amount to trade
	Shares        float64 // 0 when the live price is unavailable
	Price         float64
	PriceStatus   string
}

// Valuer produces the per-holding valuation records the advisor works from
type Valuer interface {
	Valuate(ctx context.Context, portfolioID string) ([]valuation.Record, error)
}

// Advisor computes rebalancing suggestions from live valuations
type Advisor struct {
	valuer Valuer
	log    zerolog.Logger
}

// NewAdvisor creates a new rebalancing advisor
func NewAdvisor(valuer Valuer, log zerolog.Logger) *Advisor {
	return &Advisor{
		valuer: valuer,
		log:    log.With().Str("service", "rebalancing").Logger(),
	}
}

// Suggest returns one suggestion per holding whose weight drifts from its
// target by at least thresholdPct percentage points, largest drift first.
// Holdings without a target are never suggested; a zero target is a real
// target and can produce a SELL. A non-positive threshold falls back to the
// default.
func (a *Advisor) Suggest(ctx context.Context, portfolioID string, thresholdPct float64) ([]Suggestion, error) {
	if thresholdPct <= 0 {
		thresholdPct = DefaultDriftThreshold
	}

	records, err := a.valuer.Valuate(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	totalValue := 0.0
	for _, rec := range records {
		totalValue += rec.MarketValue
	}

	suggestions := make([]Suggestion, 0)
	for _, rec := range records {
		if rec.TargetAllocation == nil || rec.Drift == nil {
			continue
		}
		if math.Abs(*rec.Drift) < thresholdPct {
			continue
		}

		targetValue := *rec.TargetAllocation / 100 * totalValue
		tradeValue := targetValue - rec.MarketValue

		s := Suggestion{
			Symbol:        rec.Symbol,
			CurrentWeight: rec.Weight,
			TargetWeight:  *rec.TargetAllocation,
			Drift:         *rec.Drift,
			CurrentValue:  rec.MarketValue,
			TargetValue:   targetValue,
			TradeValue:    math.Abs(tradeValue),
			Price:         rec.Price,
			PriceStatus:   rec.PriceStatus,
		}

		switch {
		case tradeValue > 0:
			s.Action = ActionBuy
		case tradeValue < 0:
			s.Action = ActionSell
		default:
			s.Action = ActionHold
		}

		// Share counts need a live price; dollar amounts stand on their own.
		if rec.PriceStatus == valuation.PriceLive && rec.Price > 0 {
			s.Shares = s.TradeValue / rec.Price
		}

		suggestions = append(suggestions, s)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return math.Abs(suggestions[i].Drift) > math.Abs(suggestions[j].Drift)
	})

	a.log.Debug().
		Str("portfolio_id", portfolioID).
		Float64("threshold_pct", thresholdPct).
		Int("suggestions", len(suggestions)).
		Msg("Rebalancing suggestions computed")

	return suggestions, nil
}
