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

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client    *http.Client
	BaseURL   string
	Symbols   []string          // returned by ListAssets; Yahoo has no listing endpoint
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(symbols []string, proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: "https://query1.finance.yahoo.com",
		Symbols: symbols,
		SymbolMap: map[string]string{
			"EURUSD": "EURUSD=X",
			"GBPUSD": "GBPUSD=X",
			"USDJPY": "JPY=X",
			"AUDUSD": "AUDUSD=X",
			"SPX500": "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func isNull(vs []*float64, i int) bool {
	return i >= len(vs) || vs[i] == nil
}

func deref(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}

// yahooInterval maps a timeframe to the chart interval and the widest range
// Yahoo serves at that interval.
func yahooInterval(tf model.Timeframe) (interval, rng string, err error) {
	switch tf {
	case model.TimeframeM1:
		return "1m", "7d", nil
	case model.TimeframeM5:
		return "5m", "60d", nil
	case model.TimeframeH1:
		return "60m", "730d", nil
	case model.TimeframeD1:
		return "1d", "10y", nil
	default:
		return "", "", fmt.Errorf("%w: yahoo has no interval for timeframe %q", model.ErrInvalidConfig, tf)
	}
}

func (f *YahooFetcher) FetchBars(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error) {
	interval, rng, err := yahooInterval(tf)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, model.ErrMissingSeries)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if isNull(quote.Open, i) || isNull(quote.High, i) || isNull(quote.Low, i) || isNull(quote.Close, i) {
			continue // skip null or partial bars (holidays, halted quotes)
		}
		o, h, l, c := deref(quote.Open, i), deref(quote.High, i), deref(quote.Low, i), deref(quote.Close, i)
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: deref(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

func (f *YahooFetcher) ListAssets(_ context.Context) ([]string, error) {
	return append([]string(nil), f.Symbols...), nil
}
