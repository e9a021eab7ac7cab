package calculator_test

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-planner/calculator"
	"github.com/warp/leave-planner/policy"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func f(v float64) *float64 { return &v }

func genericWith(caps policy.Caps) policy.Config {
	p := policy.Default().Get(policy.GenericID)
	p.Caps = caps
	return p
}

func fixedEngine() *calculator.Engine {
	at := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	return &calculator.Engine{
		Policies: policy.Default(),
		Clock:    func() time.Time { return at },
	}
}

func fields(adjs []calculator.Adjustment) []string {
	out := make([]string, len(adjs))
	for i, a := range adjs {
		out[i] = a.Field
	}
	return out
}

// =============================================================================
// RESOLVE
// =============================================================================

func TestResolve_UsesPolicyDefaults(t *testing.T) {
	// GIVEN: Only a salary
	// WHEN: Resolving against the generic policy
	// THEN: Leave, percent and top-up come from defaults and are recorded

	p := policy.Default().Get("US-GENERIC")
	scenario, assumptions := calculator.Resolve(calculator.UserInputs{Salary: 80000}, p)

	assert.Equal(t, 6.0, scenario.LeaveWeeks)
	assert.Equal(t, 6.0, scenario.PaidWeeks)
	assert.Equal(t, 60.0, scenario.PaidPercent)
	assert.Equal(t, 0.0, scenario.EmployerTopUp)

	require.Len(t, assumptions, 3)
	assert.Equal(t, "leaveWeeks", assumptions[0].Field)
	assert.Equal(t, "paidPercent", assumptions[1].Field)
	assert.Equal(t, "employerTopUp", assumptions[2].Field)
}

func TestResolve_PaidWeeksLimitedByPolicyDefault(t *testing.T) {
	p := policy.Default().Get("US-CA")
	scenario, assumptions := calculator.Resolve(calculator.UserInputs{
		Salary:        70000,
		LeaveWeeks:    f(12),
		PaidPercent:   f(60),
		EmployerTopUp: f(0),
	}, p)

	assert.Equal(t, 8.0, scenario.PaidWeeks)
	require.Len(t, assumptions, 1)
	assert.Equal(t, "paidWeeks", assumptions[0].Field)
	assert.Equal(t, 8.0, assumptions[0].Value)
}

func TestResolve_ExplicitInputsProduceNoAssumptions(t *testing.T) {
	p := policy.Default().Get("US-GENERIC")
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	scenario, assumptions := calculator.Resolve(calculator.UserInputs{
		Salary:        50000,
		LeaveWeeks:    f(4),
		PaidPercent:   f(70),
		EmployerTopUp: f(10),
		StartDate:     &start,
	}, p)

	assert.Empty(t, assumptions)
	assert.Equal(t, 4.0, scenario.PaidWeeks)
	assert.Equal(t, 10.0, scenario.EmployerTopUp)
	require.NotNil(t, scenario.StartDate)
	assert.True(t, scenario.StartDate.Equal(start))
}

// =============================================================================
// VALIDATE - Range clamps
// =============================================================================

func TestValidate_ClampsOutOfRangeValuesInFieldOrder(t *testing.T) {
	// GIVEN: Every field out of range
	// WHEN: Validating
	// THEN: Each is clamped and the adjustments follow the cascade order

	s := calculator.Scenario{Salary: -5, LeaveWeeks: -2, PaidWeeks: -1, PaidPercent: 150, EmployerTopUp: -3}
	validated, _, adjustments := calculator.Validate(s, genericWith(policy.Caps{}))

	assert.Equal(t, []string{"salary", "leaveWeeks", "paidWeeks", "paidPercent", "employerTopUp"}, fields(adjustments))
	assert.Equal(t, 0.0, validated.Salary)
	assert.Equal(t, 0.0, validated.LeaveWeeks)
	assert.Equal(t, 0.0, validated.PaidWeeks)
	assert.Equal(t, 100.0, validated.PaidPercent)
	assert.Equal(t, 0.0, validated.EmployerTopUp)

	for _, adj := range adjustments {
		assert.True(t, strings.HasPrefix(adj.Reason, "Validation:"), adj.Reason)
	}
}

func TestValidate_NonFiniteDegeneratesToZero(t *testing.T) {
	s := calculator.Scenario{Salary: math.Inf(1), LeaveWeeks: 10, PaidWeeks: 6, PaidPercent: math.NaN(), EmployerTopUp: math.Inf(-1)}
	validated, _, adjustments := calculator.Validate(s, genericWith(policy.Caps{}))

	assert.Equal(t, 0.0, validated.Salary)
	assert.Equal(t, 0.0, validated.PaidPercent)
	assert.Equal(t, 0.0, validated.EmployerTopUp)
	assert.Equal(t, []string{"salary", "paidPercent", "employerTopUp"}, fields(adjustments))
}

func TestValidate_PaidWeeksCannotExceedLeave(t *testing.T) {
	s := calculator.Scenario{Salary: 60000, LeaveWeeks: 4, PaidWeeks: 6, PaidPercent: 60}
	validated, _, adjustments := calculator.Validate(s, genericWith(policy.Caps{}))

	assert.Equal(t, 4.0, validated.PaidWeeks)
	require.Len(t, adjustments, 1)
	assert.Equal(t, 6.0, adjustments[0].OriginalValue)
	assert.Equal(t, 4.0, adjustments[0].AdjustedValue)
}

func TestValidate_MaxPaidWeeks(t *testing.T) {
	s := calculator.Scenario{Salary: 60000, LeaveWeeks: 20, PaidWeeks: 20, PaidPercent: 60}
	validated, _, adjustments := calculator.Validate(s, genericWith(policy.Caps{MaxPaidWeeks: f(12)}))

	assert.Equal(t, 12.0, validated.PaidWeeks)
	require.Len(t, adjustments, 1)
	assert.Contains(t, adjustments[0].Reason, "Cap applied")
}

// =============================================================================
// VALIDATE - Waiting period
// =============================================================================

func TestCalculate_WaitingPeriodReducesPaidWeeks(t *testing.T) {
	// GIVEN: California (8 paid weeks default, 7-day waiting period)
	// WHEN: Taking 12 weeks at 60%
	// THEN: 8 paid weeks minus one waiting week = 7 paid, 5 unpaid

	result := fixedEngine().Calculate(calculator.UserInputs{
		Salary:      70000,
		LeaveWeeks:  f(12),
		PaidPercent: f(60),
	}, "US-CA")

	assert.Equal(t, 7.0, result.Breakdown.PaidWeeks)
	assert.Equal(t, 5.0, result.Breakdown.UnpaidWeeks)
	assert.Equal(t, "US-CA", result.Metadata.Jurisdiction)
}

func TestValidate_WithoutWaitingPeriod(t *testing.T) {
	// Same scenario without the waiting period: 8 paid, 4 unpaid.
	p := policy.Default().Get("US-CA")
	p.Defaults.WaitingDays = nil

	scenario, _ := calculator.Resolve(calculator.UserInputs{Salary: 70000, LeaveWeeks: f(12), PaidPercent: f(60)}, p)
	validated, _, _ := calculator.Validate(scenario, p)
	b := calculator.Project(validated)

	assert.Equal(t, 8.0, b.PaidWeeks)
	assert.Equal(t, 4.0, b.UnpaidWeeks)
}

func TestValidate_WaitingPeriodFloorsAtZero(t *testing.T) {
	p := policy.Default().Get("US-CA")
	p.Defaults.WaitingDays = f(21)

	s := calculator.Scenario{Salary: 70000, LeaveWeeks: 2, PaidWeeks: 2, PaidPercent: 60}
	validated, _, _ := calculator.Validate(s, p)

	assert.Equal(t, 0.0, validated.PaidWeeks)
}

// =============================================================================
// VALIDATE - Percent and benefit caps
// =============================================================================

func TestValidate_TotalPercentReducesTopUp(t *testing.T) {
	s := calculator.Scenario{Salary: 60000, LeaveWeeks: 6, PaidWeeks: 6, PaidPercent: 70, EmployerTopUp: 50}
	validated, _, adjustments := calculator.Validate(s, genericWith(policy.Caps{}))

	assert.Equal(t, 70.0, validated.PaidPercent)
	assert.Equal(t, 30.0, validated.EmployerTopUp)
	require.Len(t, adjustments, 1)
	assert.Equal(t, "totalPaidPercent", adjustments[0].Field)
	assert.Equal(t, 120.0, adjustments[0].OriginalValue)
	assert.Equal(t, 100.0, adjustments[0].AdjustedValue)
}

func TestValidate_WeeklyBenefitCap(t *testing.T) {
	// GIVEN: $100k salary at 100% with a $500/week cap
	// WHEN: Validating 4 weeks of leave
	// THEN: Weekly income 1923.08 is capped to a 500 benefit with a Cap adjustment

	p := genericWith(policy.Caps{MaxWeeklyBenefit: f(500)})
	scenario, _ := calculator.Resolve(calculator.UserInputs{Salary: 100000, PaidPercent: f(100), LeaveWeeks: f(4)}, p)
	validated, _, adjustments := calculator.Validate(scenario, p)

	assert.InDelta(t, 1923.08, calculator.WeeklyIncome(validated.Salary), 0.005)
	assert.LessOrEqual(t, calculator.WeeklyBenefit(validated), 500.0)
	assert.InDelta(t, 500.0, calculator.WeeklyBenefit(validated), 1e-9)
	assert.InDelta(t, 26.0, validated.PaidPercent, 1e-9)
	assert.Equal(t, 0.0, validated.EmployerTopUp)

	var capAdj *calculator.Adjustment
	for i := range adjustments {
		if strings.Contains(adjustments[i].Reason, "Cap") {
			capAdj = &adjustments[i]
		}
	}
	require.NotNil(t, capAdj)
	assert.Equal(t, "weeklyBenefit", capAdj.Field)
	assert.InDelta(t, 1923.08, capAdj.OriginalValue, 0.005)
	assert.Equal(t, 500.0, capAdj.AdjustedValue)
}

func TestValidate_WeeklyCapAbsorbedByTopUpFirst(t *testing.T) {
	// Weekly income 2000. 60% + 30% top-up = 1800, cap 1500 = 75%.
	p := genericWith(policy.Caps{MaxWeeklyBenefit: f(1500)})
	s := calculator.Scenario{Salary: 104000, LeaveWeeks: 6, PaidWeeks: 6, PaidPercent: 60, EmployerTopUp: 30}

	validated, _, _ := calculator.Validate(s, p)

	assert.Equal(t, 60.0, validated.PaidPercent)
	assert.Equal(t, 15.0, validated.EmployerTopUp)
	assert.Equal(t, 1500.0, calculator.WeeklyBenefit(validated))
}

func TestValidate_WeeklyCapBelowBasePercentDropsTopUp(t *testing.T) {
	// Cap 1000 = 50% of 2000, below the 60% base.
	p := genericWith(policy.Caps{MaxWeeklyBenefit: f(1000)})
	s := calculator.Scenario{Salary: 104000, LeaveWeeks: 6, PaidWeeks: 6, PaidPercent: 60, EmployerTopUp: 30}

	validated, _, _ := calculator.Validate(s, p)

	assert.Equal(t, 50.0, validated.PaidPercent)
	assert.Equal(t, 0.0, validated.EmployerTopUp)
}

func TestValidate_TotalBenefitCap(t *testing.T) {
	// 1000/week for 10 weeks = 10000 against a 5000 cap: 500/week = 25%.
	p := genericWith(policy.Caps{MaxTotalBenefit: f(5000)})
	s := calculator.Scenario{Salary: 104000, LeaveWeeks: 10, PaidWeeks: 10, PaidPercent: 50}

	validated, _, adjustments := calculator.Validate(s, p)

	assert.InDelta(t, 25.0, validated.PaidPercent, 1e-9)
	assert.LessOrEqual(t, calculator.WeeklyBenefit(validated)*validated.PaidWeeks, 5000.0)
	require.Len(t, adjustments, 1)
	assert.Equal(t, "totalBenefit", adjustments[0].Field)
	assert.Equal(t, 10000.0, adjustments[0].OriginalValue)
}

func TestValidate_TotalCapReadsWeeklyCappedPercent(t *testing.T) {
	// GIVEN: Both a weekly cap (1500) and a total cap (9000 over 10 weeks)
	// WHEN: Validating 60% + 30% on a 2000/week income
	// THEN: The weekly cap leaves 60/15, then the total cap works from that
	//       state down to 900/week = 45%, dropping the top-up entirely

	p := genericWith(policy.Caps{MaxWeeklyBenefit: f(1500), MaxTotalBenefit: f(9000)})
	s := calculator.Scenario{Salary: 104000, LeaveWeeks: 10, PaidWeeks: 10, PaidPercent: 60, EmployerTopUp: 30}

	validated, _, adjustments := calculator.Validate(s, p)

	assert.Equal(t, []string{"weeklyBenefit", "totalBenefit"}, fields(adjustments))
	assert.Equal(t, 15000.0, adjustments[1].OriginalValue)
	assert.InDelta(t, 45.0, validated.PaidPercent, 1e-9)
	assert.Equal(t, 0.0, validated.EmployerTopUp)
}

func TestValidate_TotalCapSkippedWithoutPaidWeeks(t *testing.T) {
	p := genericWith(policy.Caps{MaxTotalBenefit: f(1)})
	s := calculator.Scenario{Salary: 104000, LeaveWeeks: 4, PaidWeeks: 0, PaidPercent: 60}

	_, _, adjustments := calculator.Validate(s, p)
	assert.Empty(t, adjustments)
}

// =============================================================================
// VALIDATE - Warnings
// =============================================================================

func TestValidate_EligibilityWarning(t *testing.T) {
	s := calculator.Scenario{Salary: 70000, LeaveWeeks: 8, PaidWeeks: 8, PaidPercent: 60}
	_, warnings, _ := calculator.Validate(s, policy.Default().Get("US-CA"))

	require.Len(t, warnings, 1)
	assert.Equal(t, calculator.WarningEligibility, warnings[0].Type)
	assert.Equal(t, calculator.SeverityInfo, warnings[0].Severity)
}

func TestCalculate_ZeroLeave(t *testing.T) {
	// GIVEN: Zero weeks of leave
	// THEN: A validation warning, an empty cashflow and nothing to save

	result := fixedEngine().Calculate(calculator.UserInputs{Salary: 90000, LeaveWeeks: f(0)}, "US-GENERIC")

	assert.Equal(t, 0.0, result.Breakdown.SavingsNeeded)
	assert.Empty(t, result.Breakdown.MonthlyCashflow)
	assert.Contains(t, result.Explanation.Warnings, "Leave weeks are set to 0, so no benefit is calculated.")
}

func TestValidate_ZeroLeaveWarningType(t *testing.T) {
	s := calculator.Scenario{Salary: 90000}
	_, warnings, _ := calculator.Validate(s, genericWith(policy.Caps{}))

	require.Len(t, warnings, 1)
	assert.Equal(t, calculator.WarningValidation, warnings[0].Type)
	assert.Equal(t, calculator.SeverityWarning, warnings[0].Severity)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestValidate_InvariantsHoldForExtremeInputs(t *testing.T) {
	// GIVEN: Random scenarios drawn from extreme and malformed values
	// WHEN: Validating against random cap combinations
	// THEN: Every invariant holds on the output

	rng := rand.New(rand.NewSource(42))
	pool := []float64{
		math.NaN(), math.Inf(1), math.Inf(-1), -1e12, -7, -0.5, 0, 0.25, 1, 3.5, 7,
		8, 12, 26, 52, 60, 67, 99.999, 100, 100.5, 250, 1e6, 1e12,
	}
	pick := func() float64 {
		if rng.Intn(3) == 0 {
			return rng.Float64() * 200000
		}
		return pool[rng.Intn(len(pool))]
	}
	optionalCap := func(max float64) *float64 {
		if rng.Intn(2) == 0 {
			return nil
		}
		return f(rng.Float64() * max)
	}

	for i := 0; i < 5000; i++ {
		p := policy.Default().Get("US-GENERIC")
		p.Caps = policy.Caps{
			MaxPaidWeeks:     optionalCap(20),
			MaxWeeklyBenefit: optionalCap(3000),
			MaxTotalBenefit:  optionalCap(40000),
		}
		if rng.Intn(2) == 0 {
			p.Defaults.WaitingDays = f(float64(rng.Intn(15)))
		}
		s := calculator.Scenario{
			Salary: pick(), LeaveWeeks: pick(), PaidWeeks: pick(), PaidPercent: pick(), EmployerTopUp: pick(),
		}

		v, _, _ := calculator.Validate(s, p)
		weekly := calculator.WeeklyBenefit(v)

		require.GreaterOrEqual(t, v.PaidWeeks, 0.0, "case %d: %+v", i, s)
		require.LessOrEqual(t, v.PaidWeeks, v.LeaveWeeks, "case %d: %+v", i, s)
		require.GreaterOrEqual(t, v.PaidPercent, 0.0, "case %d: %+v", i, s)
		require.LessOrEqual(t, v.PaidPercent, 100.0, "case %d: %+v", i, s)
		require.GreaterOrEqual(t, v.EmployerTopUp, 0.0, "case %d: %+v", i, s)
		require.LessOrEqual(t, v.PaidPercent+v.EmployerTopUp, 100.0, "case %d: %+v", i, s)
		if p.Caps.MaxWeeklyBenefit != nil {
			require.LessOrEqual(t, weekly, *p.Caps.MaxWeeklyBenefit, "case %d: %+v", i, s)
		}
		if p.Caps.MaxTotalBenefit != nil {
			require.LessOrEqual(t, weekly*v.PaidWeeks, *p.Caps.MaxTotalBenefit, "case %d: %+v", i, s)
		}
		if p.Caps.MaxPaidWeeks != nil {
			require.LessOrEqual(t, v.PaidWeeks, *p.Caps.MaxPaidWeeks, "case %d: %+v", i, s)
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	engine := fixedEngine()
	in := calculator.UserInputs{Salary: 123456, LeaveWeeks: f(14), EmployerTopUp: f(15)}

	first := engine.Calculate(in, "US-NY")
	second := engine.Calculate(in, "US-NY")

	assert.Equal(t, first, second)
}

func TestCalculate_MonotoneInSalary(t *testing.T) {
	// Without caps both weekly figures strictly increase; with the CA weekly
	// cap they never decrease.
	engine := fixedEngine()
	prevIncome, prevBenefit := -1.0, -1.0
	prevCappedBenefit := -1.0

	for salary := 10000.0; salary <= 300000; salary += 10000 {
		in := calculator.UserInputs{Salary: salary, LeaveWeeks: f(8), PaidPercent: f(60), EmployerTopUp: f(10)}

		b := engine.Calculate(in, "US-GENERIC").Breakdown
		assert.Greater(t, b.WeeklyIncome, prevIncome)
		assert.Greater(t, b.WeeklyBenefit, prevBenefit)
		prevIncome, prevBenefit = b.WeeklyIncome, b.WeeklyBenefit

		capped := engine.Calculate(in, "US-CA").Breakdown
		assert.GreaterOrEqual(t, capped.WeeklyBenefit, prevCappedBenefit-1e-9)
		assert.LessOrEqual(t, capped.WeeklyBenefit, 1620.0)
		prevCappedBenefit = capped.WeeklyBenefit
	}
}

func TestCalculate_UnknownJurisdictionUsesGeneric(t *testing.T) {
	result := fixedEngine().Calculate(calculator.UserInputs{Salary: 50000}, "XX-UNKNOWN")
	assert.Equal(t, policy.GenericID, result.Metadata.Jurisdiction)
	assert.Equal(t, time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC), result.Metadata.CalculatedAt)
}

func TestEngine_DefaultsWhenUnconfigured(t *testing.T) {
	var engine calculator.Engine
	result := engine.Calculate(calculator.UserInputs{Salary: 50000}, "US-NY")

	assert.Equal(t, "US-NY", result.Metadata.Jurisdiction)
	assert.False(t, result.Metadata.CalculatedAt.IsZero())
}

// =============================================================================
// CHECK INPUTS
// =============================================================================

func TestCheckInputs(t *testing.T) {
	tests := []struct {
		name  string
		in    calculator.UserInputs
		field string
	}{
		{"valid", calculator.UserInputs{Salary: 1000, LeaveWeeks: f(12)}, ""},
		{"negative percent is corrected later", calculator.UserInputs{Salary: 1000, PaidPercent: f(-5)}, ""},
		{"negative salary", calculator.UserInputs{Salary: -1}, "salary"},
		{"nan salary", calculator.UserInputs{Salary: math.NaN()}, "salary"},
		{"largest float salary", calculator.UserInputs{Salary: math.MaxFloat64, LeaveWeeks: f(520)}, "salary"},
		{"salary at bound", calculator.UserInputs{Salary: calculator.MaxSalary, LeaveWeeks: f(calculator.MaxLeaveWeeks)}, ""},
		{"inf leave", calculator.UserInputs{Salary: 1, LeaveWeeks: f(math.Inf(1))}, "leaveWeeks"},
		{"huge leave", calculator.UserInputs{Salary: 1, LeaveWeeks: f(10000)}, "leaveWeeks"},
		{"nan top-up", calculator.UserInputs{Salary: 1, EmployerTopUp: f(math.NaN())}, "employerTopUp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := calculator.CheckInputs(tt.in)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ie *calculator.InputError
			require.True(t, errors.As(err, &ie), "got %v", err)
			assert.Equal(t, tt.field, ie.Field)
			assert.True(t, calculator.IsClientError(err))
		})
	}
}
