// Package marketdata fetches historical daily closes from a Yahoo-style
// chart endpoint. It is the pipeline's only price source.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pverdier/patrimoine-backend/internal/domain"
	"github.com/pverdier/patrimoine-backend/internal/logger"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client queries the chart API for daily closes. It implements
// domain.PriceSource.
type Client struct {
	BaseURL string
	Client  *http.Client
}

// NewClient creates a chart API client. If baseURL is empty, the public
// Yahoo endpoint is used.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// chartResponse mirrors the subset of the chart payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCloses fetches closing prices for [start, end). An unknown or
// delisted symbol yields an empty series, not an error; callers decide
// whether that is worth escalating.
func (c *Client) DailyCloses(ctx context.Context, security string, start, end time.Time) ([]domain.PriceRecord, error) {
	if security == "" {
		return nil, fmt.Errorf("security is required")
	}
	if !start.Before(end) {
		// Nothing to request; an up-to-date security lands here daily.
		return nil, nil
	}

	u, err := url.Parse(c.BaseURL + "/v8/finance/chart/" + url.PathEscape(security))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success, continue
	case http.StatusNotFound:
		// Unknown or delisted ticker. Treated as an empty series so one
		// dead symbol never blocks the rest of the portfolio.
		logger.Warnw("symbol not found on price source", "security", security)
		return nil, nil
	default:
		return nil, fmt.Errorf("price source returned status %d for %s", resp.StatusCode, security)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response for %s: %w", security, err)
	}
	if parsed.Chart.Error != nil {
		logger.Warnw("price source reported error",
			"security", security,
			"code", parsed.Chart.Error.Code,
			"description", parsed.Chart.Error.Description)
		return nil, nil
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	var records []domain.PriceRecord
	seen := make(map[time.Time]int)
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			// Market holidays and the in-progress session come back null.
			continue
		}
		date := domain.Day(time.Unix(ts, 0).UTC())
		if !date.Before(end) {
			continue
		}
		rec := domain.PriceRecord{
			Security: security,
			Date:     date,
			Close:    decimal.NewFromFloat(*closes[i]),
		}
		// Intraday candles can repeat the current date; the last one wins.
		if idx, ok := seen[date]; ok {
			records[idx] = rec
			continue
		}
		seen[date] = len(records)
		records = append(records, rec)
	}

	return records, nil
}
