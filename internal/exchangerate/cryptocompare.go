package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const cryptocompareURL = "https://min-api.cryptocompare.com/data/top/mktcapfull?limit=100&tsym=USD"

type cryptocompareRaw struct {
	USD struct {
		Price float64 `json:"PRICE"`
	} `json:"USD"`
}

type cryptocompareRecord struct {
	CoinInfo struct {
		Name string `json:"Name"`
	} `json:"CoinInfo"`
	Raw *cryptocompareRaw `json:"RAW"`
}

type cryptocompareResponse struct {
	Data []cryptocompareRecord `json:"Data"`
}

// CryptoCompareProvider queries CryptoCompare's top-market-cap listing,
// which requires an API key on the Authorization header.
type CryptoCompareProvider struct {
	Client *http.Client
	APIKey string
}

func (p *CryptoCompareProvider) httpClient() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

func (p *CryptoCompareProvider) Name() string { return "cryptocompare" }

func (p *CryptoCompareProvider) FetchRates(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cryptocompareURL, nil)
	if err != nil {
		return nil, err
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Apikey "+p.APIKey)
	}

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("cryptocompare: fetching rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cryptocompare: returned status %d", resp.StatusCode)
	}

	var parsed cryptocompareResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("cryptocompare: decoding response: %w", err)
	}

	out := map[string]float64{"USD": 1.0}
	for _, rec := range parsed.Data {
		if rec.Raw == nil {
			continue
		}
		out[rec.CoinInfo.Name] = rec.Raw.USD.Price
	}
	return out, nil
}
