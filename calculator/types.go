/*
Package calculator estimates the income gap a parent faces during leave.

PURPOSE:
  Given a salary, a leave duration and a jurisdiction policy, the calculator
  answers "how much income do I lose, month by month, and why?". Every
  number it produces can be traced back to either a user input, a policy
  default (an Assumption) or a forced correction (an Adjustment).

PIPELINE:
  Calculation is a fixed sequence of pure stages. Each stage consumes the
  previous stage's output; nothing is mutated in place.

    Resolve   UserInputs + policy  -> Scenario, []Assumption
    Validate  Scenario + policy    -> Scenario, []Warning, []Adjustment
    Project   Scenario             -> LeaveBreakdown
    Explain   breakdown + records  -> StructuredExplanation

ASSUMPTION vs ADJUSTMENT:
  They are deliberately different types. An Assumption records that the user
  left a field unset and a policy default was used. An Adjustment records
  that a value was out of range or above a statutory cap and was changed.
  Assumptions build trust ("we used 8 weeks because..."); adjustments explain
  corrections ("your benefit was capped at...").

NUMERIC CONVENTIONS:
  - Money: plain float64 in the policy currency (dollars, not cents)
  - Percentages: 0-100, not 0-1
  - Weeks: integral at the leave level, fractional per month (2 decimals)

DETERMINISM:
  The only non-deterministic value is Metadata.CalculatedAt, which comes
  from the Engine's injected Clock. Two calls with the same inputs produce
  identical Breakdown and Explanation.

SEE ALSO:
  - resolve.go: Default substitution
  - caps.go: Validation and cap cascade
  - project.go: Monthly cashflow projection
  - explain.go: Structured explanation
  - calculate.go: Composed entry point
*/
package calculator

import "time"

// =============================================================================
// INPUTS
// =============================================================================

// UserInputs is what the caller supplies. nil optional fields mean
// "use the policy default".
type UserInputs struct {
	Salary        float64    `json:"salary"`
	LeaveWeeks    *float64   `json:"leaveWeeks,omitempty"`
	PaidPercent   *float64   `json:"paidPercent,omitempty"`
	EmployerTopUp *float64   `json:"employerTopUp,omitempty"`
	StartDate     *time.Time `json:"startDate,omitempty"`
}

// Scenario is the fully resolved numeric state of one calculation.
type Scenario struct {
	Salary        float64
	LeaveWeeks    float64
	PaidWeeks     float64
	PaidPercent   float64
	EmployerTopUp float64
	StartDate     *time.Time
}

// =============================================================================
// RECORDS - Append-only audit trail of the pipeline
// =============================================================================

// Assumption records a policy default substituted for an unset input.
type Assumption struct {
	Field  string
	Value  float64
	Reason string
}

// Adjustment records a forced correction made by the cap cascade.
type Adjustment struct {
	Field         string
	OriginalValue float64
	AdjustedValue float64
	Reason        string
}

type WarningType string

const (
	WarningEligibility WarningType = "eligibility"
	WarningCap         WarningType = "cap"
	WarningValidation  WarningType = "validation"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Warning flags a risk without changing any number.
type Warning struct {
	Type     WarningType
	Severity Severity
	Message  string
}

// =============================================================================
// OUTPUTS
// =============================================================================

// MonthlyProjection is one 4.33-week chunk of the leave.
type MonthlyProjection struct {
	MonthIndex int     `json:"monthIndex"`
	Weeks      float64 `json:"weeks"`
	Income     float64 `json:"income"`
	Benefit    float64 `json:"benefit"`
	Gap        float64 `json:"gap"`
}

// LeaveBreakdown is the projection of a validated Scenario.
type LeaveBreakdown struct {
	TotalWeeks      float64             `json:"totalWeeks"`
	PaidWeeks       float64             `json:"paidWeeks"`
	UnpaidWeeks     float64             `json:"unpaidWeeks"`
	WeeklyIncome    float64             `json:"weeklyIncome"`
	WeeklyBenefit   float64             `json:"weeklyBenefit"`
	MonthlyCashflow []MonthlyProjection `json:"monthlyCashflow"`
	TotalIncomeGap  float64             `json:"totalIncomeGap"`
	SavingsNeeded   float64             `json:"savingsNeeded"`
}

// StructuredExplanation is human-readable but still data, not prose.
type StructuredExplanation struct {
	Summary             string   `json:"summary"`
	Assumptions         []string `json:"assumptions"`
	CapsApplied         []string `json:"capsApplied"`
	Warnings            []string `json:"warnings"`
	ThingsToDoubleCheck []string `json:"thingsToDoubleCheck"`
}

// Metadata is attached at the boundary; CalculatedAt is not deterministic.
type Metadata struct {
	Jurisdiction string    `json:"jurisdiction"`
	CalculatedAt time.Time `json:"calculatedAt"`
}

// Result is the output of Engine.Calculate.
type Result struct {
	Breakdown   LeaveBreakdown        `json:"breakdown"`
	Explanation StructuredExplanation `json:"explanation"`
	Metadata    Metadata              `json:"metadata"`
}
