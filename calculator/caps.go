/*
caps.go - Validation and the statutory cap cascade

PURPOSE:
  Turns a resolved Scenario into one that satisfies every range rule and
  every policy maximum. Bad input is corrected, never rejected: the product
  must always render some estimate, so each correction is recorded as an
  Adjustment instead of returned as an error.

CASCADE ORDER (order matters, later steps read corrected values):
  1. Clamp salary, leave weeks, paid weeks, paid percent, employer top-up
  2. Paid weeks cannot exceed leave weeks
  3. Policy maximum paid weeks
  4. Waiting period (unpaid delay before benefits start)
  5. Paid percent + top-up cannot exceed 100
  6. Policy maximum weekly benefit
  7. Policy maximum total benefit (reads the percentages left by step 6)
  8. Eligibility and zero-leave warnings

PREFER BASE PERCENT:
  When a benefit cap forces the combined percentage down, the employer
  top-up absorbs the reduction first. The statutory percent is only reduced
  once the top-up is exhausted.

INVARIANTS (hold on every returned Scenario):
  0 <= PaidWeeks <= LeaveWeeks
  0 <= PaidPercent <= 100, 0 <= EmployerTopUp
  PaidPercent + EmployerTopUp <= 100
  WeeklyBenefit <= caps.MaxWeeklyBenefit          (when set)
  WeeklyBenefit * PaidWeeks <= caps.MaxTotalBenefit (when set)
  PaidWeeks <= caps.MaxPaidWeeks                   (when set)

SEE ALSO:
  - resolve.go: Produces the Scenario validated here
  - explain.go: Renders adjustments whose reason mentions a cap
*/
package calculator

import (
	"math"

	"github.com/warp/leave-planner/policy"
)

const (
	WeeksPerYear = 52

	// maxNudges bounds the ULP corrections in fitUnder.
	maxNudges = 64
)

// WeeklyIncome is the salary spread evenly over a year.
func WeeklyIncome(salary float64) float64 { return salary / WeeksPerYear }

// WeeklyBenefit is the benefit paid per paid week. The validator and the
// projector share this exact expression so cap checks hold bit-for-bit.
func WeeklyBenefit(s Scenario) float64 {
	return WeeklyIncome(s.Salary) * ((s.PaidPercent + s.EmployerTopUp) / 100)
}

// =============================================================================
// CASCADE STATE
// =============================================================================

type capState struct {
	scenario    Scenario
	warnings    []Warning
	adjustments []Adjustment
}

func (st capState) adjust(field string, from, to float64, reason string) capState {
	st.adjustments = append(st.adjustments, Adjustment{
		Field:         field,
		OriginalValue: from,
		AdjustedValue: to,
		Reason:        reason,
	})
	return st
}

func (st capState) warn(t WarningType, sev Severity, msg string) capState {
	st.warnings = append(st.warnings, Warning{Type: t, Severity: sev, Message: msg})
	return st
}

type capStep func(capState, policy.Config) capState

var cascade = []capStep{
	clampRanges,
	paidWithinLeave,
	applyMaxPaidWeeks,
	applyWaitingPeriod,
	limitTotalPercent,
	applyMaxWeeklyBenefit,
	applyMaxTotalBenefit,
	addWarnings,
}

// Validate runs the cap cascade. It never fails.
func Validate(s Scenario, p policy.Config) (Scenario, []Warning, []Adjustment) {
	st := capState{scenario: s}
	for _, step := range cascade {
		st = step(st, p)
	}
	return st.scenario, st.warnings, st.adjustments
}

// =============================================================================
// STEP 1 - Range clamps
// =============================================================================

type rangeRule struct {
	field    string
	label    string
	value    func(*Scenario) *float64
	hasUpper bool
}

var rangeRules = []rangeRule{
	{"salary", "salary", func(s *Scenario) *float64 { return &s.Salary }, false},
	{"leaveWeeks", "leave weeks", func(s *Scenario) *float64 { return &s.LeaveWeeks }, false},
	{"paidWeeks", "paid weeks", func(s *Scenario) *float64 { return &s.PaidWeeks }, false},
	{"paidPercent", "paid percent", func(s *Scenario) *float64 { return &s.PaidPercent }, true},
	{"employerTopUp", "employer top-up", func(s *Scenario) *float64 { return &s.EmployerTopUp }, true},
}

func clampRanges(st capState, _ policy.Config) capState {
	for _, rule := range rangeRules {
		v := rule.value(&st.scenario)
		switch {
		case math.IsNaN(*v) || math.IsInf(*v, 0):
			st = st.adjust(rule.field, *v, 0, "Validation: "+rule.label+" must be a finite number.")
			*v = 0
		case *v < 0:
			st = st.adjust(rule.field, *v, 0, "Validation: "+rule.label+" cannot be negative.")
			*v = 0
		case rule.hasUpper && *v > 100:
			st = st.adjust(rule.field, *v, 100, "Validation: "+rule.label+" cannot exceed 100%.")
			*v = 100
		}
	}
	return st
}

// =============================================================================
// STEPS 2-4 - Paid duration
// =============================================================================

func paidWithinLeave(st capState, _ policy.Config) capState {
	s := st.scenario
	if s.PaidWeeks > s.LeaveWeeks {
		st = st.adjust("paidWeeks", s.PaidWeeks, s.LeaveWeeks, "Validation: paid weeks cannot exceed total leave weeks.")
		st.scenario.PaidWeeks = s.LeaveWeeks
	}
	return st
}

func applyMaxPaidWeeks(st capState, p policy.Config) capState {
	limit := p.Caps.MaxPaidWeeks
	if limit == nil || st.scenario.PaidWeeks <= *limit {
		return st
	}
	st = st.adjust("paidWeeks", st.scenario.PaidWeeks, *limit, "Cap applied: paid weeks exceed the policy maximum.")
	st.scenario.PaidWeeks = *limit
	return st
}

func applyWaitingPeriod(st capState, p policy.Config) capState {
	waiting := p.WaitingWeeks()
	if waiting <= 0 {
		return st
	}
	adjusted := math.Max(0, st.scenario.PaidWeeks-waiting)
	if adjusted == st.scenario.PaidWeeks {
		return st
	}
	st = st.adjust("paidWeeks", st.scenario.PaidWeeks, adjusted, "Cap applied: waiting period reduces paid weeks.")
	st.scenario.PaidWeeks = adjusted
	return st
}

// =============================================================================
// STEPS 5-7 - Benefit amount
// =============================================================================

func limitTotalPercent(st capState, _ policy.Config) capState {
	s := st.scenario
	total := s.PaidPercent + s.EmployerTopUp
	if total <= 100 {
		return st
	}
	st = st.adjust("totalPaidPercent", total, 100, "Cap applied: total paid percent cannot exceed 100%.")
	st.scenario.EmployerTopUp = math.Max(0, 100-s.PaidPercent)
	st.scenario = fitUnder(st.scenario, func(s Scenario) bool {
		return s.PaidPercent+s.EmployerTopUp > 100
	})
	return st
}

func applyMaxWeeklyBenefit(st capState, p policy.Config) capState {
	limit := p.Caps.MaxWeeklyBenefit
	if limit == nil {
		return st
	}
	weekly := WeeklyBenefit(st.scenario)
	if weekly <= *limit {
		return st
	}

	// weekly > limit >= 0 implies a positive weekly income.
	cappedPercent := *limit / WeeklyIncome(st.scenario.Salary) * 100
	st = st.adjust("weeklyBenefit", weekly, *limit, "Cap applied: weekly benefit exceeds the policy maximum.")
	st.scenario = redistribute(st.scenario, cappedPercent)
	st.scenario = fitUnder(st.scenario, func(s Scenario) bool {
		return WeeklyBenefit(s) > *limit
	})
	return st
}

func applyMaxTotalBenefit(st capState, p policy.Config) capState {
	limit := p.Caps.MaxTotalBenefit
	paidWeeks := st.scenario.PaidWeeks
	if limit == nil || paidWeeks <= 0 {
		return st
	}
	total := WeeklyBenefit(st.scenario) * paidWeeks
	if total <= *limit {
		return st
	}

	adjustedWeekly := *limit / paidWeeks
	cappedPercent := adjustedWeekly / WeeklyIncome(st.scenario.Salary) * 100
	st = st.adjust("totalBenefit", total, *limit, "Cap applied: total benefit exceeds the policy maximum.")
	st.scenario = redistribute(st.scenario, cappedPercent)
	st.scenario = fitUnder(st.scenario, func(s Scenario) bool {
		return WeeklyBenefit(s)*s.PaidWeeks > *limit
	})
	return st
}

// redistribute sets the combined percentage to target, taking the reduction
// from the employer top-up before the statutory percent.
func redistribute(s Scenario, target float64) Scenario {
	if target <= s.PaidPercent {
		s.PaidPercent = target
		s.EmployerTopUp = 0
		return s
	}
	s.EmployerTopUp = target - s.PaidPercent
	return s
}

// fitUnder lowers the larger percentage one ULP at a time while exceeds
// holds. Redistribution lands within a few ULPs of the boundary, so this
// only absorbs float64 rounding. Subnormal targets can defeat the nudging;
// the benefit is then zeroed so the cap still holds.
func fitUnder(s Scenario, exceeds func(Scenario) bool) Scenario {
	for i := 0; i < maxNudges && exceeds(s); i++ {
		if s.EmployerTopUp > s.PaidPercent {
			s.EmployerTopUp = math.Nextafter(s.EmployerTopUp, 0)
		} else {
			s.PaidPercent = math.Nextafter(s.PaidPercent, 0)
		}
	}
	if exceeds(s) {
		s.PaidPercent, s.EmployerTopUp = 0, 0
	}
	return s
}

// =============================================================================
// STEP 8 - Warnings
// =============================================================================

func addWarnings(st capState, p policy.Config) capState {
	if p.HasEligibilityRequirements() {
		st = st.warn(WarningEligibility, SeverityInfo, "Eligibility requirements may apply based on tenure or hours worked.")
	}
	if st.scenario.LeaveWeeks == 0 {
		st = st.warn(WarningValidation, SeverityWarning, "Leave weeks are set to 0, so no benefit is calculated.")
	}
	return st
}
