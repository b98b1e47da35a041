// Package fmp provides a client for the Financial Modeling Prep market data API.
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/domain"
	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

// Client is an HTTP client for an FMP-compatible market data API.
// It implements domain.MarketDataProvider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a new FMP client
func New(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log: log.With().Str("client", "fmp").Logger(),
	}
}

// quoteResponse mirrors the FMP /quote payload
type quoteResponse struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	Change            float64 `json:"change"`
	ChangesPercentage float64 `json:"changesPercentage"`
	PreviousClose     float64 `json:"previousClose"`
}

// profileResponse mirrors the FMP /profile payload
type profileResponse struct {
	Symbol       string `json:"symbol"`
	CompanyName  string `json:"companyName"`
	Sector       string `json:"sector"`
	Industry     string `json:"industry"`
	ExchangeName string `json:"exchangeShortName"`
}

// historicalResponse mirrors the FMP /historical-price-full payload
type historicalResponse struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date   string  `json:"date"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume int64   `json:"volume"`
	} `json:"historical"`
}

// GetQuote fetches a live quote for a single symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	quotes, err := c.GetMultipleQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}

	quote, ok := quotes[strings.ToUpper(symbol)]
	if !ok {
		return nil, domain.NewExternalUnavailableError(fmt.Sprintf("no quote data for %s", symbol), nil)
	}
	return &quote, nil
}

// GetMultipleQuotes fetches quotes for a set of symbols in one batched call.
// Symbols the provider has no data for are simply absent from the result map.
func (c *Client) GetMultipleQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	if len(symbols) == 0 {
		return map[string]domain.Quote{}, nil
	}

	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			normalized = append(normalized, s)
		}
	}

	var payload []quoteResponse
	endpoint := "/quote/" + url.PathEscape(strings.Join(normalized, ","))
	if err := c.get(ctx, endpoint, nil, &payload); err != nil {
		return nil, domain.NewExternalUnavailableError("quote request failed", err)
	}

	quotes := make(map[string]domain.Quote, len(payload))
	for _, q := range payload {
		quotes[strings.ToUpper(q.Symbol)] = domain.Quote{
			Symbol:        strings.ToUpper(q.Symbol),
			Name:          q.Name,
			Price:         q.Price,
			Change:        q.Change,
			ChangePercent: q.ChangesPercentage,
			PreviousClose: q.PreviousClose,
		}
	}

	c.log.Debug().Int("requested", len(normalized)).Int("received", len(quotes)).Msg("Fetched batch quotes")
	return quotes, nil
}

// GetCompanyProfile fetches the company profile (sector lookup) for a symbol
func (c *Client) GetCompanyProfile(ctx context.Context, symbol string) (*domain.CompanyProfile, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var payload []profileResponse
	if err := c.get(ctx, "/profile/"+url.PathEscape(symbol), nil, &payload); err != nil {
		return nil, domain.NewExternalUnavailableError("profile request failed", err)
	}
	if len(payload) == 0 {
		return nil, domain.NewExternalUnavailableError(fmt.Sprintf("no profile data for %s", symbol), nil)
	}

	p := payload[0]
	return &domain.CompanyProfile{
		Symbol:   strings.ToUpper(p.Symbol),
		Name:     p.CompanyName,
		Sector:   p.Sector,
		Industry: p.Industry,
		Exchange: p.ExchangeName,
	}, nil
}

// GetHistoricalData fetches up to days of daily bars, most recent first
func (c *Client) GetHistoricalData(ctx context.Context, symbol string, days int) ([]domain.HistoricalBar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if days <= 0 {
		days = 30
	}

	var payload historicalResponse
	params := url.Values{"timeseries": []string{fmt.Sprintf("%d", days)}}
	if err := c.get(ctx, "/historical-price-full/"+url.PathEscape(symbol), params, &payload); err != nil {
		return nil, domain.NewExternalUnavailableError("historical data request failed", err)
	}

	bars := make([]domain.HistoricalBar, 0, len(payload.Historical))
	for _, h := range payload.Historical {
		bars = append(bars, domain.HistoricalBar{
			Date:   h.Date,
			Open:   h.Open,
			High:   h.High,
			Low:    h.Low,
			Close:  h.Close,
			Volume: h.Volume,
		})
	}

	return bars, nil
}

// get performs a GET request against the API and decodes the JSON response
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
