// Package ledger records financial transactions and derives cash balances.
// The transactions table is the source of truth: append-only, no update or
// delete path, corrections are made with offsetting rows.
package ledger

import "time"

// Transaction types
const (
	TypeBuy      = "BUY"
	TypeSell     = "SELL"
	TypeDeposit  = "DEPOSIT"
	TypeWithdraw = "WITHDRAW"
	TypeDividend = "DIVIDEND"
)

// ValidTypes is the set of allowed transaction types
var ValidTypes = map[string]bool{
	TypeBuy:      true,
	TypeSell:     true,
	TypeDeposit:  true,
	TypeWithdraw: true,
	TypeDividend: true,
}

// Transaction is one committed ledger entry
type Transaction struct {
	ID              string
	PortfolioID     string
	Symbol          string // empty for DEPOSIT/WITHDRAW
	Type            string
	Quantity        float64 // 0 for cash-only types
	PricePerShare   float64 // 0 for cash-only types
	Fees            float64
	TotalAmount     float64 // signed cash-balance delta
	TransactionDate int64   // Unix seconds
	Notes           string
	PredictionID    string // optional link to an external prediction
	CreatedAt       int64
}

// AddRequest holds the inputs for recording a transaction
type AddRequest struct {
	PortfolioID   string
	Symbol        string
	Type          string
	Quantity      float64
	PricePerShare float64
	Amount        float64 // gross cash amount for DEPOSIT/WITHDRAW/DIVIDEND
	Fees          float64
	Date          time.Time
	Notes         string
	PredictionID  string

	// SkipValidation bypasses the cash-sufficiency and held-quantity checks.
	// Narrow escape hatch for bulk import flows that pre-validate externally.
	SkipValidation bool
}

// ListFilter narrows a transaction listing
type ListFilter struct {
	Type   string
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

// Summary aggregates a portfolio's ledger by type
type Summary struct {
	TotalCount       int64
	BuyCount         int64
	SellCount        int64
	TotalBought      float64
	TotalSold        float64
	TotalDeposits    float64
	TotalWithdrawals float64
	TotalDividends   float64
	TotalFees        float64
}
