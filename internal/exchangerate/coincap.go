package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

const (
	coincapAssetsURL = "https://api.coincap.io/v2/assets"
	coincapRatesURL  = "https://api.coincap.io/v2/rates"
)

type coincapRecord struct {
	Symbol   string `json:"symbol"`
	RateUSD  string `json:"rateUsd"`
	PriceUSD string `json:"priceUsd"`
}

type coincapResponse struct {
	Data []coincapRecord `json:"data"`
}

// CoinCapProvider queries CoinCap's assets and rates endpoints, which
// report overlapping but not identical sets of currencies (assets
// skews crypto, rates skews fiat).
type CoinCapProvider struct {
	Client *http.Client
}

func (p *CoinCapProvider) httpClient() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

func (p *CoinCapProvider) Name() string { return "coincap" }

func (p *CoinCapProvider) FetchRates(ctx context.Context) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, url := range []string{coincapAssetsURL, coincapRatesURL} {
		records, err := p.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			raw := rec.RateUSD
			if raw == "" {
				raw = rec.PriceUSD
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			out[rec.Symbol] = value
		}
	}
	return out, nil
}

func (p *CoinCapProvider) fetch(ctx context.Context, url string) ([]coincapRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("coincap: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coincap: %s returned status %d", url, resp.StatusCode)
	}
	var parsed coincapResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("coincap: decoding %s: %w", url, err)
	}
	return parsed.Data, nil
}
