package performance

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// tradingDaysPerYear annualizes daily volatility and Sharpe figures
const tradingDaysPerYear = 252

// Stats summarizes the daily-return series of a snapshot range
type Stats struct {
	Days                    int
	MeanDailyReturnPct      float64
	DailyVolatilityPct      float64
	AnnualizedVolatilityPct float64
	SharpeRatio             *float64 // nil when volatility is zero
	BestDayPct              float64
	WorstDayPct             float64
	MaxDrawdownPct          float64
}

// ComputeStats derives return statistics from a snapshot series. Snapshots
// without a daily return (the first ever recorded) are excluded from the
// return series but still count toward the drawdown path.
func ComputeStats(snapshots []Snapshot) Stats {
	returns := make([]float64, 0, len(snapshots))
	for _, s := range snapshots {
		if s.DailyReturnPct != nil {
			returns = append(returns, *s.DailyReturnPct)
		}
	}

	stats := Stats{Days: len(returns)}
	if len(returns) == 0 {
		return stats
	}

	stats.MeanDailyReturnPct = stat.Mean(returns, nil)
	if len(returns) > 1 {
		stats.DailyVolatilityPct = stat.StdDev(returns, nil)
		stats.AnnualizedVolatilityPct = stats.DailyVolatilityPct * math.Sqrt(tradingDaysPerYear)
	}

	if stats.DailyVolatilityPct > 0 {
		sharpe := stats.MeanDailyReturnPct / stats.DailyVolatilityPct * math.Sqrt(tradingDaysPerYear)
		stats.SharpeRatio = &sharpe
	}

	stats.BestDayPct = returns[0]
	stats.WorstDayPct = returns[0]
	for _, ret := range returns[1:] {
		if ret > stats.BestDayPct {
			stats.BestDayPct = ret
		}
		if ret < stats.WorstDayPct {
			stats.WorstDayPct = ret
		}
	}

	stats.MaxDrawdownPct = maxDrawdown(snapshots)

	return stats
}

// maxDrawdown walks the equity path and returns the deepest peak-to-trough
// decline as a positive percentage
func maxDrawdown(snapshots []Snapshot) float64 {
	peak := 0.0
	drawdown := 0.0

	for _, s := range snapshots {
		if s.TotalEquity > peak {
			peak = s.TotalEquity
		}
		if peak > 0 {
			dd := (peak - s.TotalEquity) / peak * 100
			if dd > drawdown {
				drawdown = dd
			}
		}
	}

	return drawdown
}
