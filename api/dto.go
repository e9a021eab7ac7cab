/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Money fields in responses are rounded to cents. The calculation itself
  keeps full precision; only the wire form is rounded.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-planner/calculator"
	"github.com/warp/leave-planner/narration"
	"github.com/warp/leave-planner/plan"
	"github.com/warp/leave-planner/policy"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CalculateRequest asks for one calculation.
type CalculateRequest struct {
	Jurisdiction     string                `json:"jurisdiction"`
	Inputs           calculator.UserInputs `json:"inputs"`
	IncludeNarration bool                  `json:"includeNarration"`
}

// NarrationRequest asks for a narrative of a calculation.
type NarrationRequest struct {
	Jurisdiction string                `json:"jurisdiction"`
	Inputs       calculator.UserInputs `json:"inputs"`
}

// NarrationCheckRequest certifies an externally written narrative.
type NarrationCheckRequest struct {
	Jurisdiction string                `json:"jurisdiction"`
	Inputs       calculator.UserInputs `json:"inputs"`
	Narrative    narration.Narrative   `json:"narrative"`
}

// SavePriceRequest records a pack price for a basket product.
type SavePriceRequest struct {
	Category  string              `json:"category"`
	PriceUSD  decimal.NullDecimal `json:"priceUsd"`
	SourceURL string              `json:"sourceUrl"`
	FetchedAt *time.Time          `json:"fetchedAt"`
}

// CreatePlanRequest saves a calculation with its budget.
type CreatePlanRequest struct {
	Jurisdiction   string                `json:"jurisdiction"`
	Inputs         calculator.UserInputs `json:"inputs"`
	CurrentSavings float64               `json:"currentSavings"`
	Expenses       map[string]float64    `json:"expenses"`
	Childcare      *plan.Childcare       `json:"childcare"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// PolicyDTO is a jurisdiction policy with derived fields.
type PolicyDTO struct {
	policy.Config
	WaitingWeeks               float64 `json:"waitingWeeks"`
	HasEligibilityRequirements bool    `json:"hasEligibilityRequirements"`
}

// MonthlyProjectionDTO is one month of cashflow.
type MonthlyProjectionDTO struct {
	MonthIndex int     `json:"monthIndex"`
	Weeks      float64 `json:"weeks"`
	Income     float64 `json:"income"`
	Benefit    float64 `json:"benefit"`
	Gap        float64 `json:"gap"`
}

// BreakdownDTO is the leave breakdown with money in cents.
type BreakdownDTO struct {
	TotalWeeks      float64                `json:"totalWeeks"`
	PaidWeeks       float64                `json:"paidWeeks"`
	UnpaidWeeks     float64                `json:"unpaidWeeks"`
	WeeklyIncome    float64                `json:"weeklyIncome"`
	WeeklyBenefit   float64                `json:"weeklyBenefit"`
	MonthlyCashflow []MonthlyProjectionDTO `json:"monthlyCashflow"`
	TotalIncomeGap  float64                `json:"totalIncomeGap"`
	SavingsNeeded   float64                `json:"savingsNeeded"`
}

// MetadataDTO identifies the calculation.
type MetadataDTO struct {
	Jurisdiction string `json:"jurisdiction"`
	CalculatedAt string `json:"calculatedAt"`
}

// CalculateResponse is a calculation and, when asked for, its narrative.
type CalculateResponse struct {
	Breakdown   BreakdownDTO                     `json:"breakdown"`
	Explanation calculator.StructuredExplanation `json:"explanation"`
	Metadata    MetadataDTO                      `json:"metadata"`
	Narration   *narration.Result                `json:"narration,omitempty"`
}

// PlanDTO is a saved plan.
type PlanDTO struct {
	ID             uuid.UUID             `json:"id"`
	Jurisdiction   string                `json:"jurisdiction"`
	Inputs         calculator.UserInputs `json:"inputs"`
	Result         CalculateResponse     `json:"result"`
	CurrentSavings float64               `json:"currentSavings"`
	Expenses       map[string]float64    `json:"expenses"`
	Childcare      *plan.Childcare       `json:"childcare,omitempty"`
	Summary        plan.Summary          `json:"summary"`
	CreatedAt      string                `json:"createdAt"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// cents rounds v to cents. Non-finite values have no JSON form and become 0.
func cents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func toPolicyDTO(c policy.Config) PolicyDTO {
	return PolicyDTO{
		Config:                     c,
		WaitingWeeks:               c.WaitingWeeks(),
		HasEligibilityRequirements: c.HasEligibilityRequirements(),
	}
}

func toBreakdownDTO(b calculator.LeaveBreakdown) BreakdownDTO {
	months := make([]MonthlyProjectionDTO, len(b.MonthlyCashflow))
	for i, m := range b.MonthlyCashflow {
		months[i] = MonthlyProjectionDTO{
			MonthIndex: m.MonthIndex,
			Weeks:      m.Weeks,
			Income:     cents(m.Income),
			Benefit:    cents(m.Benefit),
			Gap:        cents(m.Gap),
		}
	}
	return BreakdownDTO{
		TotalWeeks:      b.TotalWeeks,
		PaidWeeks:       b.PaidWeeks,
		UnpaidWeeks:     b.UnpaidWeeks,
		WeeklyIncome:    cents(b.WeeklyIncome),
		WeeklyBenefit:   cents(b.WeeklyBenefit),
		MonthlyCashflow: months,
		TotalIncomeGap:  cents(b.TotalIncomeGap),
		SavingsNeeded:   cents(b.SavingsNeeded),
	}
}

func toCalculateResponse(r calculator.Result, n *narration.Result) CalculateResponse {
	return CalculateResponse{
		Breakdown:   toBreakdownDTO(r.Breakdown),
		Explanation: r.Explanation,
		Metadata: MetadataDTO{
			Jurisdiction: r.Metadata.Jurisdiction,
			CalculatedAt: r.Metadata.CalculatedAt.Format(time.RFC3339),
		},
		Narration: n,
	}
}

func toPlanDTO(p plan.Plan) PlanDTO {
	expenses := p.Expenses
	if expenses == nil {
		expenses = map[string]float64{}
	}
	return PlanDTO{
		ID:             p.ID,
		Jurisdiction:   p.Jurisdiction,
		Inputs:         p.Inputs,
		Result:         toCalculateResponse(p.Result, nil),
		CurrentSavings: cents(p.CurrentSavings),
		Expenses:       expenses,
		Childcare:      p.Childcare,
		Summary:        p.Summarize(),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}
