/*
Package babycost estimates newborn supply costs over a leave.

PURPOSE:
  The income gap is only half of the budget. This package prices a small,
  fixed basket of newborn supplies so the leave plan can show what the
  months away from work will cost on top of lost income.

PRICING:
  monthly = packPrice / unitCount * unitsPerMonth

  A live price is used when it was fetched within the last 7 days. Otherwise
  the line falls back to a static monthly figure. A failing price source
  never fails an estimate.

SEE ALSO:
  - estimate.go: Estimator
  - refresh.go: Background price refresh
*/
package babycost

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrUnknownProduct = errors.New("unknown product category")

// Product is one line of the basket.
type Product struct {
	Category string
	Label    string
	// Query is the search phrase used to find a current pack price.
	Query string
	// UnitCount is the number of units in one purchasable pack.
	UnitCount decimal.Decimal
	// UnitsPerMonth is the number of units a newborn goes through monthly.
	UnitsPerMonth   decimal.Decimal
	FallbackMonthly decimal.Decimal
	Note            string
}

var products = []Product{
	{
		Category:        "diapers",
		Label:           "Diapers",
		Query:           "Huggies Little Snugglers size 1 diapers 100 count",
		UnitCount:       decimal.NewFromInt(100),
		UnitsPerMonth:   decimal.NewFromInt(240),
		FallbackMonthly: decimal.NewFromInt(60),
		Note:            "Average ~8–12 changes/day for newborns, tapering after 3 months",
	},
	{
		Category:        "wipes",
		Label:           "Baby wipes",
		Query:           "Pampers Baby Fresh wipes 504 count",
		UnitCount:       decimal.NewFromInt(504),
		UnitsPerMonth:   decimal.NewFromInt(504),
		FallbackMonthly: decimal.NewFromInt(15),
		Note:            "One large pack per month on average",
	},
	{
		Category:        "formula",
		Label:           "Formula (if formula-feeding)",
		Query:           "Similac 360 Total Care infant formula powder 30.8oz",
		UnitCount:       decimal.NewFromInt(1),
		UnitsPerMonth:   decimal.RequireFromString("2.5"),
		FallbackMonthly: decimal.NewFromInt(320),
		Note:            "~4 cans/month for a formula-fed newborn; skip entirely if breastfeeding",
	},
	{
		Category:        "wash",
		Label:           "Baby wash & shampoo",
		Query:           "Aveeno baby wash shampoo 18oz",
		UnitCount:       decimal.NewFromInt(1),
		UnitsPerMonth:   decimal.RequireFromString("0.5"),
		FallbackMonthly: decimal.NewFromInt(25),
		Note:            "Averaged across wash, shampoo, lotion, and diaper cream",
	},
	{
		Category:        "clothing",
		Label:           "Onesies & bodysuits",
		Query:           "Carter's 5 pack short sleeve bodysuit newborn",
		UnitCount:       decimal.NewFromInt(5),
		UnitsPerMonth:   decimal.NewFromInt(5),
		FallbackMonthly: decimal.NewFromInt(75),
		Note:            "Babies cycle through ~4 sizes in year one; hand-me-downs cut this significantly",
	},
}

// Products returns the basket in display order.
func Products() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

// LookupProduct finds a basket line by category.
func LookupProduct(category string) (Product, bool) {
	for _, p := range products {
		if p.Category == category {
			return p, true
		}
	}
	return Product{}, false
}

// MonthlyFromPack converts a pack price to a monthly cost, rounded to cents.
func (p Product) MonthlyFromPack(price decimal.Decimal) decimal.Decimal {
	return price.Div(p.UnitCount).Mul(p.UnitsPerMonth).Round(2)
}
