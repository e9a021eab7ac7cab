/*
Package plan stores leave plans.

PURPOSE:
  A plan is one calculation the user chose to keep: the inputs, the result
  computed from them, and the household budget entered next to it (savings,
  monthly expenses, childcare). Plans are write-once; a changed plan is a
  new plan with a new ID.

IMPLEMENTATIONS:
  - plan/store/memory.go: In-memory for tests and local runs
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - calculator/calculate.go: Produces the stored Result
*/
package plan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-planner/calculator"
)

var (
	ErrPlanNotFound  = errors.New("plan not found")
	ErrDuplicatePlan = errors.New("duplicate plan id")
	ErrInvalidPlan   = errors.New("invalid plan")
)

// Childcare is the care arrangement after the leave ends.
type Childcare struct {
	Type         string  `json:"type"`
	MonthlyCost  float64 `json:"monthlyCost"`
	ReturnOption string  `json:"returnOption,omitempty"`
}

// Plan is a saved calculation plus its budget.
type Plan struct {
	ID             uuid.UUID             `json:"id"`
	Jurisdiction   string                `json:"jurisdiction"`
	Inputs         calculator.UserInputs `json:"inputs"`
	Result         calculator.Result     `json:"result"`
	CurrentSavings float64               `json:"currentSavings"`
	Expenses       map[string]float64    `json:"expenses"`
	Childcare      *Childcare            `json:"childcare,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// Summary is the budget view of a plan.
type Summary struct {
	MonthlyExpenses  float64 `json:"monthlyExpenses"`
	SavingsNeeded    float64 `json:"savingsNeeded"`
	SavingsShortfall float64 `json:"savingsShortfall"`
}

// Store persists plans. Save rejects an ID that already exists.
type Store interface {
	Save(ctx context.Context, p Plan) error
	Get(ctx context.Context, id uuid.UUID) (Plan, error)
	List(ctx context.Context, limit int) ([]Plan, error)
}

// FieldError is a rejected plan field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid plan %s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrInvalidPlan }

// IsNotFound reports whether err means the plan does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrPlanNotFound) }

// New stamps a fresh plan with a random ID.
func New(jurisdiction string, inputs calculator.UserInputs, result calculator.Result, now time.Time) Plan {
	return Plan{
		ID:           uuid.New(),
		Jurisdiction: jurisdiction,
		Inputs:       inputs,
		Result:       result,
		Expenses:     map[string]float64{},
		CreatedAt:    now.UTC(),
	}
}

// Validate checks the budget fields. Calculation inputs are checked by
// calculator.CheckInputs before the result is computed.
func (p Plan) Validate() error {
	if !finiteNonNegative(p.CurrentSavings) {
		return &FieldError{Field: "currentSavings", Message: "must be a non-negative number"}
	}
	names := make([]string, 0, len(p.Expenses))
	for name := range p.Expenses {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == "" {
			return &FieldError{Field: "expenses", Message: "expense names cannot be empty"}
		}
		if !finiteNonNegative(p.Expenses[name]) {
			return &FieldError{Field: "expenses." + name, Message: "must be a non-negative number"}
		}
	}
	if p.Childcare != nil && !finiteNonNegative(p.Childcare.MonthlyCost) {
		return &FieldError{Field: "childcare.monthlyCost", Message: "must be a non-negative number"}
	}
	return nil
}

// Summarize totals the monthly expenses and compares current savings with
// the savings the leave needs. Amounts are rounded to cents.
func (p Plan) Summarize() Summary {
	expenses := decimal.Zero
	for _, v := range p.Expenses {
		expenses = expenses.Add(decimal.NewFromFloat(v))
	}
	if p.Childcare != nil {
		expenses = expenses.Add(decimal.NewFromFloat(p.Childcare.MonthlyCost))
	}

	needed := decimal.NewFromFloat(p.Result.Breakdown.SavingsNeeded)
	shortfall := needed.Sub(decimal.NewFromFloat(p.CurrentSavings))
	if shortfall.IsNegative() {
		shortfall = decimal.Zero
	}

	return Summary{
		MonthlyExpenses:  expenses.Round(2).InexactFloat64(),
		SavingsNeeded:    needed.Round(2).InexactFloat64(),
		SavingsShortfall: shortfall.Round(2).InexactFloat64(),
	}
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
