package domain

import "context"

// Quote is a live market quote for a single symbol
type Quote struct {
	Symbol        string
	Name          string
	Price         float64
	Change        float64
	ChangePercent float64
	PreviousClose float64
}

// CompanyProfile describes a listed company. Only the sector is load-bearing
// for this system; the rest is carried through for display.
type CompanyProfile struct {
	Symbol   string
	Name     string
	Sector   string
	Industry string
	Exchange string
}

// HistoricalBar is one day of historical price data
type HistoricalBar struct {
	Date   string // YYYY-MM-DD
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// MarketDataProvider defines the contract for the external market-data
// collaborator. All calls may fail independently; callers must degrade
// gracefully (zero price, absent sector, absent benchmark) and never let a
// provider failure abort a ledger mutation.
type MarketDataProvider interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	GetMultipleQuotes(ctx context.Context, symbols []string) (map[string]Quote, error)
	GetCompanyProfile(ctx context.Context, symbol string) (*CompanyProfile, error)
	GetHistoricalData(ctx context.Context, symbol string, days int) ([]HistoricalBar, error)
}
