package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
)

// MockMarketData is an in-memory market data provider for tests. Set Fail to
// simulate a provider-wide outage; symbols without a configured quote are
// simply absent from batch results, matching real provider behavior.
type MockMarketData struct {
	mu       sync.Mutex
	quotes   map[string]domain.Quote
	profiles map[string]domain.CompanyProfile
	Fail     bool
}

// NewMockMarketData creates an empty mock provider
func NewMockMarketData() *MockMarketData {
	return &MockMarketData{
		quotes:   make(map[string]domain.Quote),
		profiles: make(map[string]domain.CompanyProfile),
	}
}

// SetQuote configures the quote returned for a symbol
func (m *MockMarketData) SetQuote(q domain.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[strings.ToUpper(q.Symbol)] = q
}

// SetProfile configures the company profile returned for a symbol
func (m *MockMarketData) SetProfile(p domain.CompanyProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[strings.ToUpper(p.Symbol)] = p
}

// GetQuote implements domain.MarketDataProvider
func (m *MockMarketData) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, domain.NewExternalUnavailableError("mock provider failure", nil)
	}

	q, ok := m.quotes[strings.ToUpper(symbol)]
	if !ok {
		return nil, domain.NewExternalUnavailableError(fmt.Sprintf("no quote for %s", symbol), nil)
	}
	return &q, nil
}

// GetMultipleQuotes implements domain.MarketDataProvider
func (m *MockMarketData) GetMultipleQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, domain.NewExternalUnavailableError("mock provider failure", nil)
	}

	result := make(map[string]domain.Quote)
	for _, symbol := range symbols {
		if q, ok := m.quotes[strings.ToUpper(symbol)]; ok {
			result[q.Symbol] = q
		}
	}
	return result, nil
}

// GetCompanyProfile implements domain.MarketDataProvider
func (m *MockMarketData) GetCompanyProfile(ctx context.Context, symbol string) (*domain.CompanyProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, domain.NewExternalUnavailableError("mock provider failure", nil)
	}

	p, ok := m.profiles[strings.ToUpper(symbol)]
	if !ok {
		return nil, domain.NewExternalUnavailableError(fmt.Sprintf("no profile for %s", symbol), nil)
	}
	return &p, nil
}

// GetHistoricalData implements domain.MarketDataProvider
func (m *MockMarketData) GetHistoricalData(ctx context.Context, symbol string, days int) ([]domain.HistoricalBar, error) {
	if m.Fail {
		return nil, domain.NewExternalUnavailableError("mock provider failure", nil)
	}
	return []domain.HistoricalBar{}, nil
}
