/*
Package policy provides the jurisdiction policy registry.

PURPOSE:
  A jurisdiction policy is the statutory contract a parent's leave is paid
  under: how many weeks are paid by default, at what percentage of income,
  how long the unpaid waiting period is, and which maximums apply. The
  calculator never hard-codes any of these values; it reads them from a
  Config resolved here.

KEY CONCEPTS:
  - Config: The complete ruleset for one jurisdiction
  - Defaults: Values substituted when the user leaves an input unset
  - Caps: Maximums enforced by the cap cascade (paid weeks, weekly, total)
  - Eligibility: Tenure/hours requirements (informational only)

OPTIONAL VALUES:
  Every optional number is a pointer. nil means "not set by this policy",
  which is different from zero: a waiting period of 0 days is a real value,
  an absent waiting period means the policy has none.

FALLBACK:
  Lookups never fail. Unknown jurisdiction ids resolve to the generic
  policy (US-GENERIC) so the product can always render an estimate.

EXAMPLE:
  reg := policy.Default()
  ca := reg.Get("US-CA")
  if ca.Caps.MaxWeeklyBenefit != nil {
      fmt.Println("weekly max:", *ca.Caps.MaxWeeklyBenefit)
  }

SEE ALSO:
  - registry.go: Loading and lookup
  - policies.yaml: Built-in jurisdiction table
  - calculator/caps.go: Consumes Caps and Defaults
*/
package policy

// GenericID is the jurisdiction every unknown id falls back to.
const GenericID = "US-GENERIC"

// =============================================================================
// CONFIG - Rules governing benefits for one jurisdiction
// =============================================================================

// Config is an immutable jurisdiction policy.
type Config struct {
	JurisdictionID string       `yaml:"jurisdiction_id" json:"jurisdictionId"`
	DisplayName    string       `yaml:"display_name" json:"displayName"`
	Currency       string       `yaml:"currency" json:"currency"`
	Defaults       Defaults     `yaml:"defaults" json:"defaults"`
	Caps           Caps         `yaml:"caps" json:"caps"`
	Eligibility    *Eligibility `yaml:"eligibility,omitempty" json:"eligibility,omitempty"`
	Sources        []string     `yaml:"sources,omitempty" json:"sources,omitempty"`
	Notes          string       `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Defaults are substituted for unset user inputs.
type Defaults struct {
	PaidWeeks   float64  `yaml:"paid_weeks" json:"paidWeeks"`
	PaidPercent float64  `yaml:"paid_percent" json:"paidPercent"`
	WaitingDays *float64 `yaml:"waiting_days,omitempty" json:"waitingDays,omitempty"`
}

// Caps are the statutory maximums. nil = no cap.
type Caps struct {
	MaxPaidWeeks     *float64 `yaml:"max_paid_weeks,omitempty" json:"maxPaidWeeks,omitempty"`
	MaxWeeklyBenefit *float64 `yaml:"max_weekly_benefit,omitempty" json:"maxWeeklyBenefit,omitempty"`
	MaxTotalBenefit  *float64 `yaml:"max_total_benefit,omitempty" json:"maxTotalBenefit,omitempty"`
}

// Eligibility requirements are reported as warnings, never enforced.
type Eligibility struct {
	MinTenureMonths *float64 `yaml:"min_tenure_months,omitempty" json:"minTenureMonths,omitempty"`
	MinHoursWorked  *float64 `yaml:"min_hours_worked,omitempty" json:"minHoursWorked,omitempty"`
}

// HasEligibilityRequirements reports whether a non-zero tenure or hours
// requirement is configured. A requirement of 0 counts as none.
func (c Config) HasEligibilityRequirements() bool {
	if c.Eligibility == nil {
		return false
	}
	return nonZero(c.Eligibility.MinTenureMonths) || nonZero(c.Eligibility.MinHoursWorked)
}

// WaitingWeeks returns the waiting period expressed in weeks (0 if unset).
func (c Config) WaitingWeeks() float64 {
	if c.Defaults.WaitingDays == nil {
		return 0
	}
	return *c.Defaults.WaitingDays / 7
}

func nonZero(v *float64) bool { return v != nil && *v != 0 }

// Float returns a pointer to v. Handy for building policies in code and tests.
func Float(v float64) *float64 { return &v }
