package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"SignalSentinel/internal/model"
)

// BrokerFetcher implements Fetcher against the broker's REST bar API.
type BrokerFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewBrokerFetcher creates a new fetcher with optional proxy support.
func NewBrokerFetcher(baseURL, apiKey, proxyURL string) *BrokerFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BrokerFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
	}
}

func (f *BrokerFetcher) Name() string { return "broker" }

// brokerBar is the JSON shape of one bar from the broker API.
type brokerBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"tick_volume"`
}

// brokerAsset is one entry of the broker's instrument listing.
type brokerAsset struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
	Open   bool   `json:"open"`
}

func (f *BrokerFetcher) FetchBars(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", string(tf))
	q.Set("limit", fmt.Sprint(count))

	var raw []brokerBar
	if err := f.getJSON(ctx, "/api/v1/bars?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("fetch bars %s/%s: %w", symbol, tf, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fetch bars %s/%s: %w", symbol, tf, model.ErrMissingSeries)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// ListAssets returns the open binary/turbo instruments.
func (f *BrokerFetcher) ListAssets(ctx context.Context) ([]string, error) {
	var raw []brokerAsset
	if err := f.getJSON(ctx, "/api/v1/assets", &raw); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	seen := make(map[string]bool, len(raw))
	var assets []string
	for _, a := range raw {
		if !a.Open || (a.Type != "binary" && a.Type != "turbo") || seen[a.Symbol] {
			continue
		}
		seen[a.Symbol] = true
		assets = append(assets, a.Symbol)
	}
	sort.Strings(assets)
	return assets, nil
}

func (f *BrokerFetcher) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return model.ErrMissingSeries
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
