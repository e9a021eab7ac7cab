package narration_test

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-planner/calculator"
	"github.com/warp/leave-planner/narration"
)

func f(v float64) *float64 { return &v }

func californiaInputs() calculator.UserInputs {
	return calculator.UserInputs{Salary: 70000, LeaveWeeks: f(12), PaidPercent: f(60)}
}

func californiaInput(t *testing.T) (calculator.Result, narration.Input) {
	t.Helper()
	engine := &calculator.Engine{Clock: func() time.Time {
		return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	}}
	result := engine.Calculate(californiaInputs(), "US-CA")
	return result, narration.PrepareInput(result, californiaInputs())
}

func safeNarrative() narration.Narrative {
	return narration.Narrative{
		FriendlySummary:     "Over your 12 weeks of leave, about 7 weeks are paid and the gap comes to roughly $10,500.",
		WhatDroveTheGap:     []string{"5 of your weeks are unpaid.", "Benefits replace about 60% of your $70,000 salary."},
		ThingsToDoubleCheck: []string{"Confirm you meet state eligibility rules."},
	}
}

// =============================================================================
// PREPARE
// =============================================================================

func TestPrepareInput_AllowsEveryRenderedForm(t *testing.T) {
	// GIVEN: The California calculation
	// WHEN: Preparing the rewrite input
	// THEN: Breakdown values are allowed in raw, separated and rounded forms

	result, in := californiaInput(t)

	assert.Equal(t, "US-CA", in.Jurisdiction)
	assert.Equal(t, 70000.0, in.UserInputs.Salary)
	assert.Equal(t, 12.0, in.UserInputs.LeaveWeeks)
	assert.Equal(t, 7.0, in.CalculationSummary.PaidWeeks)
	assert.Equal(t, 5.0, in.CalculationSummary.UnpaidWeeks)
	assert.Equal(t, result.Breakdown.TotalIncomeGap, in.CalculationSummary.TotalGap)

	for _, num := range []string{
		"70000", "70,000", "70,000.00",
		"12", "7", "5", "60",
		"10,500", "10500",
		"1,346.15", "1346",
		"807.69", "808",
	} {
		assert.True(t, in.AllowedNumbers.Has(num), "expected %s to be allowed", num)
	}
	assert.False(t, in.AllowedNumbers.Has("25,000"))
}

func TestPrepareInput_IncludesExplanationNumbers(t *testing.T) {
	// "8" only appears in the explanation (the default paid duration).
	_, in := californiaInput(t)
	assert.True(t, in.AllowedNumbers.Has("8"))
}

func TestPrepareInput_LeaveFallsBackToBreakdown(t *testing.T) {
	result := calculator.NewEngine(nil).Calculate(calculator.UserInputs{Salary: 60000}, "US-GENERIC")
	in := narration.PrepareInput(result, calculator.UserInputs{Salary: 60000})

	assert.Equal(t, result.Breakdown.TotalWeeks, in.UserInputs.LeaveWeeks)
}

func TestForms(t *testing.T) {
	assert.Equal(t, []string{
		"1923.076923076923", "1923.08", "1,923.08", "1923", "1,923",
	}, narration.Forms(1923.076923076923))
	assert.Equal(t, []string{"500", "500.00"}, narration.Forms(500))
	assert.Equal(t, []string{"3", "3.00"}, narration.Forms(-3))
	assert.Nil(t, narration.Forms(math.NaN()))
	assert.Nil(t, narration.Forms(math.Inf(1)))
	assert.Nil(t, narration.Forms(math.Inf(-1)))
}

func TestThousands(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1,000"},
		{"10500.5", "10,500.5"},
		{"1234567.89", "1,234,567.89"},
		{"-70000", "-70,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, narration.Thousands(tt.in), tt.in)
	}
}

// =============================================================================
// EXTRACT
// =============================================================================

func TestExtractNumbers(t *testing.T) {
	got := narration.ExtractNumbers("Save $1,234.56 over 7 weeks. Your 401k is separate. Ends at 12.")
	assert.Equal(t, []string{"1,234.56", "7", "401", "12"}, got)
}

func TestExtractNumbers_NoNumbers(t *testing.T) {
	assert.Empty(t, narration.ExtractNumbers("twelve weeks of leave"))
}

// =============================================================================
// VALIDATE
// =============================================================================

func TestValidate_AllowedNumbersAreSafe(t *testing.T) {
	_, in := californiaInput(t)

	res := narration.Validate(safeNarrative(), in)

	assert.True(t, res.Safe)
	assert.Empty(t, res.Violations)
	assert.Empty(t, res.Warnings)
}

func TestValidate_InventedNumberIsViolation(t *testing.T) {
	// GIVEN: A narrative that mentions a figure the calculation never produced
	// WHEN: Validating
	// THEN: The number is a violation and the narrative is unsafe

	_, in := californiaInput(t)
	n := safeNarrative()
	n.WhatDroveTheGap = append(n.WhatDroveTheGap, "You could save $25,000 by waiting.")

	res := narration.Validate(n, in)

	assert.False(t, res.Safe)
	assert.Equal(t, []string{"Unauthorized number: 25,000"}, res.Violations)
}

func TestValidate_RoundedNumberIsWarning(t *testing.T) {
	_, in := californiaInput(t)
	n := safeNarrative()
	n.FriendlySummary = "Your gap is close to $10,550."

	res := narration.Validate(n, in)

	assert.True(t, res.Safe)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Number 10,550 is rounded from ")
}

func TestValidate_CalculationLanguageIsWarning(t *testing.T) {
	_, in := californiaInput(t)
	n := safeNarrative()
	n.FriendlySummary = "We Calculated that 7 weeks are paid."

	res := narration.Validate(n, in)

	assert.True(t, res.Safe)
	assert.Equal(t, []string{`Contains calculation language: "calculated"`}, res.Warnings)
}

func TestValidate_Structure(t *testing.T) {
	_, in := californiaInput(t)

	res := narration.Validate(narration.Narrative{FriendlySummary: "   "}, in)

	assert.False(t, res.Safe)
	assert.Equal(t, []string{
		"Missing or invalid friendlySummary",
		"whatDroveTheGap must be an array",
		"thingsToDoubleCheck must be an array",
	}, res.Violations)
}

func TestValidate_EmptyListsAreValid(t *testing.T) {
	_, in := californiaInput(t)

	res := narration.Validate(narration.Narrative{
		FriendlySummary:     "Your leave is mostly paid.",
		WhatDroveTheGap:     []string{},
		ThingsToDoubleCheck: []string{},
	}, in)

	assert.True(t, res.Safe)
}

func TestValidate_ZeroNeverToleratesNeighbours(t *testing.T) {
	in := narration.Input{AllowedNumbers: narration.NewNumberSet("0")}

	res := narration.Validate(narration.Narrative{
		FriendlySummary:     "About 0.001 weeks.",
		WhatDroveTheGap:     []string{},
		ThingsToDoubleCheck: []string{},
	}, in)

	assert.Equal(t, []string{"Unauthorized number: 0.001"}, res.Violations)
}

func TestValidate_NilAllowedSetRejectsAllNumbers(t *testing.T) {
	res := narration.Validate(narration.Narrative{
		FriendlySummary:     "Take 4 weeks.",
		WhatDroveTheGap:     []string{},
		ThingsToDoubleCheck: []string{},
	}, narration.Input{})

	assert.False(t, res.Safe)
	assert.Equal(t, []string{"Unauthorized number: 4"}, res.Violations)
}

func TestValidate_FarNumbersAlwaysViolate(t *testing.T) {
	// Any number more than 1% from every allowed value is a violation.
	_, in := californiaInput(t)
	allowed := in.AllowedNumbers.Values()
	rng := rand.New(rand.NewSource(7))

	checked := 0
	for checked < 500 {
		candidate := float64(rng.Intn(200000))
		if nearAny(candidate, allowed) {
			continue
		}
		checked++
		num := strconv.Itoa(int(candidate))
		res := narration.Validate(narration.Narrative{
			FriendlySummary:     "A figure of " + num + " appears here.",
			WhatDroveTheGap:     []string{},
			ThingsToDoubleCheck: []string{},
		}, in)
		assert.False(t, res.Safe, num)
		assert.Contains(t, res.Violations, "Unauthorized number: "+num)
	}
}

func nearAny(v float64, allowed []string) bool {
	for _, a := range allowed {
		x, err := strconv.ParseFloat(strings.ReplaceAll(a, ",", ""), 64)
		if err != nil {
			continue
		}
		if x == v || (x != 0 && math.Abs(v-x)/math.Abs(x) < narration.RoundingTolerance) {
			return true
		}
	}
	return false
}

func TestNumberSet_Sorted(t *testing.T) {
	// GIVEN: A set filled out of order with a duplicate
	// WHEN: Listing it sorted
	// THEN: Each value appears once in lexical order, insertion order is kept by Values

	s := narration.NewNumberSet()
	s.Add("60")
	s.Add("1,923.08")
	s.Add("12")
	s.Add("60")

	assert.Equal(t, []string{"1,923.08", "12", "60"}, s.Sorted())
	assert.Equal(t, []string{"60", "1,923.08", "12"}, s.Values())
}
