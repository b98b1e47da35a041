package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(date string, equity float64, dailyReturn *float64) Snapshot {
	return Snapshot{PortfolioID: "p1", Date: date, TotalEquity: equity, DailyReturnPct: dailyReturn}
}

func fp(v float64) *float64 { return &v }

func TestComputeStats(t *testing.T) {
	snapshots := []Snapshot{
		snap("2026-01-01", 10000, nil), // first snapshot has no daily return
		snap("2026-01-02", 10100, fp(1)),
		snap("2026-01-03", 9898, fp(-2)),
		snap("2026-01-04", 10195, fp(3)),
	}

	stats := ComputeStats(snapshots)

	assert.Equal(t, 3, stats.Days)
	assert.InDelta(t, 2.0/3.0, stats.MeanDailyReturnPct, 0.0001)
	assert.InDelta(t, 2.5166, stats.DailyVolatilityPct, 0.001)
	assert.InDelta(t, 3.0, stats.BestDayPct, 0.0001)
	assert.InDelta(t, -2.0, stats.WorstDayPct, 0.0001)
	require.NotNil(t, stats.SharpeRatio)
	assert.Greater(t, *stats.SharpeRatio, 0.0)

	// Peak 10100, trough 9898
	assert.InDelta(t, (10100.0-9898.0)/10100.0*100, stats.MaxDrawdownPct, 0.0001)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.Days)
	assert.Nil(t, stats.SharpeRatio)
}

func TestComputeStats_SingleReturn(t *testing.T) {
	stats := ComputeStats([]Snapshot{
		snap("2026-01-01", 10000, nil),
		snap("2026-01-02", 10100, fp(1)),
	})

	assert.Equal(t, 1, stats.Days)
	assert.InDelta(t, 1.0, stats.MeanDailyReturnPct, 0.0001)
	assert.Zero(t, stats.DailyVolatilityPct)
	assert.Nil(t, stats.SharpeRatio)
}

func TestMaxDrawdown_MonotonicGrowth(t *testing.T) {
	stats := ComputeStats([]Snapshot{
		snap("2026-01-01", 100, nil),
		snap("2026-01-02", 110, fp(10)),
		snap("2026-01-03", 120, fp(9.09)),
	})

	assert.Zero(t, stats.MaxDrawdownPct)
}
