package babycost

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SourceLivePrice      = "live-price"
	SourceStaticFallback = "static-fallback"

	// FreshFor is how long a fetched price stays usable.
	FreshFor = 7 * 24 * time.Hour
)

// weeksPerMonth is the leave-month divisor for supply costs.
var weeksPerMonth = decimal.RequireFromString("4.333")

var ErrInvalidLeaveWeeks = errors.New("leaveWeeks must be a positive number")

// ProductPrice is the latest fetched pack price for a category. A fetch that
// found nothing is stored with an invalid PriceUSD.
type ProductPrice struct {
	Category  string              `json:"category"`
	PriceUSD  decimal.NullDecimal `json:"priceUsd"`
	SourceURL string              `json:"sourceUrl,omitempty"`
	FetchedAt time.Time           `json:"fetchedAt"`
}

// PriceSource provides the latest price per category.
type PriceSource interface {
	LatestPrices(ctx context.Context) ([]ProductPrice, error)
}

// Line is one priced basket line.
type Line struct {
	Category        string  `json:"category"`
	Label           string  `json:"label"`
	MonthlyEstimate float64 `json:"monthlyEstimate"`
	Source          string  `json:"source"`
	Note            string  `json:"note,omitempty"`
}

// Estimate is the basket priced over a leave.
type Estimate struct {
	Jurisdiction  string     `json:"jurisdiction"`
	Lines         []Line     `json:"lines"`
	TotalMonthly  float64    `json:"totalMonthly"`
	TotalForLeave float64    `json:"totalForLeave"`
	LeaveMonths   float64    `json:"leaveMonths"`
	Source        string     `json:"source"`
	PricedAt      *time.Time `json:"pricedAt"`
}

// Estimator prices the basket. A nil Prices always uses the fallbacks.
type Estimator struct {
	Prices PriceSource
	Clock  func() time.Time
}

func NewEstimator(prices PriceSource) *Estimator {
	return &Estimator{Prices: prices}
}

// Estimate prices the basket for leaveWeeks of leave. The jurisdiction is
// carried through for display; supply prices are national.
func (e *Estimator) Estimate(ctx context.Context, jurisdiction string, leaveWeeks float64) (Estimate, error) {
	if math.IsNaN(leaveWeeks) || math.IsInf(leaveWeeks, 0) || leaveWeeks <= 0 {
		return Estimate{}, ErrInvalidLeaveWeeks
	}

	now := e.now()
	byCategory := e.latest(ctx)
	leaveMonths := decimal.NewFromFloat(leaveWeeks).Div(weeksPerMonth)

	est := Estimate{
		Jurisdiction: jurisdiction,
		Lines:        make([]Line, 0, len(products)),
		Source:       SourceStaticFallback,
	}

	total := decimal.Zero
	for _, p := range products {
		monthly := p.FallbackMonthly
		source := SourceStaticFallback

		if price, ok := byCategory[p.Category]; ok && price.PriceUSD.Valid && now.Sub(price.FetchedAt) < FreshFor {
			monthly = p.MonthlyFromPack(price.PriceUSD.Decimal)
			source = SourceLivePrice
			est.Source = SourceLivePrice
			if est.PricedAt == nil || price.FetchedAt.After(*est.PricedAt) {
				fetched := price.FetchedAt
				est.PricedAt = &fetched
			}
		}

		monthly = monthly.Round(2)
		total = total.Add(monthly)
		est.Lines = append(est.Lines, Line{
			Category:        p.Category,
			Label:           p.Label,
			MonthlyEstimate: monthly.InexactFloat64(),
			Source:          source,
			Note:            p.Note,
		})
	}

	est.TotalMonthly = total.Round(2).InexactFloat64()
	est.TotalForLeave = total.Mul(leaveMonths).Round(2).InexactFloat64()
	est.LeaveMonths = leaveMonths.Round(1).InexactFloat64()
	return est, nil
}

func (e *Estimator) latest(ctx context.Context) map[string]ProductPrice {
	out := make(map[string]ProductPrice)
	if e.Prices == nil {
		return out
	}
	prices, err := e.Prices.LatestPrices(ctx)
	if err != nil {
		log.Printf("[BabyCosts] Price lookup failed, using fallbacks: %v", err)
		return out
	}
	for _, p := range prices {
		out[p.Category] = p
	}
	return out
}

func (e *Estimator) now() time.Time {
	if e.Clock == nil {
		return time.Now().UTC()
	}
	return e.Clock()
}
