package babycost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultSearchURL = "https://www.googleapis.com/customsearch/v1"

var ErrMissingSearchCredentials = errors.New("price search key and engine id are required")

var snippetPrice = regexp.MustCompile(`\$\s?(\d{1,4}(?:,\d{3})*(?:\.\d{2})?)`)

// SearchFetcher finds pack prices through a custom search JSON API. The
// first result carrying an offer price, or a "$12.34" in its title or
// snippet, wins.
type SearchFetcher struct {
	BaseURL  string
	APIKey   string
	EngineID string
	Client   *http.Client
}

func NewSearchFetcher(apiKey, engineID string) *SearchFetcher {
	return &SearchFetcher{
		BaseURL:  DefaultSearchURL,
		APIKey:   apiKey,
		EngineID: engineID,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Pagemap struct {
		Offer []struct {
			Price string `json:"price"`
		} `json:"offer"`
	} `json:"pagemap"`
}

func (f *SearchFetcher) FetchPrice(ctx context.Context, p Product) (ProductPrice, error) {
	if f.APIKey == "" || f.EngineID == "" {
		return ProductPrice{}, ErrMissingSearchCredentials
	}

	q := url.Values{}
	q.Set("key", f.APIKey)
	q.Set("cx", f.EngineID)
	q.Set("q", p.Query)
	q.Set("num", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return ProductPrice{}, fmt.Errorf("failed to build search request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return ProductPrice{}, fmt.Errorf("price search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProductPrice{}, fmt.Errorf("price search returned %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return ProductPrice{}, fmt.Errorf("failed to parse search response: %w", err)
	}

	out := ProductPrice{Category: p.Category}
	for _, item := range parsed.Items {
		if price, ok := itemPrice(item); ok {
			out.PriceUSD = decimal.NewNullDecimal(price)
			out.SourceURL = item.Link
			return out, nil
		}
	}
	return out, nil
}

func itemPrice(item searchItem) (decimal.Decimal, bool) {
	for _, offer := range item.Pagemap.Offer {
		if price, ok := parsePrice(offer.Price); ok {
			return price, true
		}
	}
	for _, text := range []string{item.Title, item.Snippet} {
		if m := snippetPrice.FindStringSubmatch(text); m != nil {
			if price, ok := parsePrice(m[1]); ok {
				return price, true
			}
		}
	}
	return decimal.Decimal{}, false
}

func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Decimal{}, false
	}
	price, err := decimal.NewFromString(s)
	if err != nil || !price.IsPositive() {
		return decimal.Decimal{}, false
	}
	return price, true
}
