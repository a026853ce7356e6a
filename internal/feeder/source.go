package feeder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/LeJamon/goPriceOracle/internal/core/oracle"
)

// Quotes maps an asset to its price in the base asset.
type Quotes map[oracle.Address]decimal.Decimal

// Source supplies quotes for registered assets. Assets it cannot price are
// left out of the result.
type Source interface {
	Fetch(ctx context.Context, assets []oracle.Address) (Quotes, error)
}

// StaticSource returns fixed quotes.
type StaticSource struct {
	quotes Quotes
}

// NewStaticSource parses decimal prices keyed by asset.
func NewStaticSource(prices map[string]string) (*StaticSource, error) {
	quotes := make(Quotes, len(prices))
	for asset, s := range prices {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid price for %s: %w", asset, err)
		}
		quotes[oracle.Address(asset)] = d
	}
	return &StaticSource{quotes: quotes}, nil
}

func (s *StaticSource) Fetch(_ context.Context, assets []oracle.Address) (Quotes, error) {
	out := make(Quotes, len(assets))
	for _, a := range assets {
		if q, ok := s.quotes[a]; ok {
			out[a] = q
		}
	}
	return out, nil
}

// maxResponseBytes bounds an HTTP source response
const maxResponseBytes = 4 << 20

// HTTPSource fetches one JSON document per run and extracts each asset's
// price with a gjson path, e.g. "data.BTC.price" or "rates.#(symbol==\"BTC\").usd".
type HTTPSource struct {
	url    string
	paths  map[oracle.Address]string
	client *http.Client
}

// NewHTTPSource creates a source reading url. paths maps assets to gjson
// paths into the response.
func NewHTTPSource(url string, paths map[string]string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	p := make(map[oracle.Address]string, len(paths))
	for asset, path := range paths {
		p[oracle.Address(asset)] = path
	}
	return &HTTPSource{
		url:    url,
		paths:  p,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, assets []oracle.Address) (Quotes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch quotes: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read quotes: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("quotes response is not valid JSON")
	}

	out := make(Quotes, len(assets))
	for _, a := range assets {
		path, ok := s.paths[a]
		if !ok {
			continue
		}
		res := gjson.GetBytes(body, path)
		if !res.Exists() {
			continue
		}
		d, err := parseQuote(res)
		if err != nil {
			return nil, fmt.Errorf("quote for %s: %w", a, err)
		}
		out[a] = d
	}
	return out, nil
}

// parseQuote reads numbers from their raw text to keep every digit.
func parseQuote(res gjson.Result) (decimal.Decimal, error) {
	switch res.Type {
	case gjson.Number:
		return decimal.NewFromString(res.Raw)
	case gjson.String:
		return decimal.NewFromString(res.Str)
	default:
		return decimal.Decimal{}, fmt.Errorf("unexpected %s value %s", res.Type, res.Raw)
	}
}
