package narration

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-planner/calculator"
)

// PrepareInput derives the rewrite request and its allowed numbers from a
// finished calculation.
//
// Allowed numbers are the user's salary and leave, every breakdown total,
// the weekly figures, the coverage percent, any percentages the user gave,
// and every number already printed in the structured explanation. Each value
// is rendered in all its equivalent forms (see Forms).
func PrepareInput(result calculator.Result, inputs calculator.UserInputs) Input {
	b := result.Breakdown
	leaveWeeks := b.TotalWeeks
	if inputs.LeaveWeeks != nil {
		leaveWeeks = *inputs.LeaveWeeks
	}

	allowed := NewNumberSet()
	values := []float64{
		inputs.Salary,
		leaveWeeks,
		b.TotalWeeks,
		b.PaidWeeks,
		b.UnpaidWeeks,
		b.TotalIncomeGap,
		b.SavingsNeeded,
		b.WeeklyBenefit,
		b.WeeklyIncome,
		float64(calculator.CoveragePercent(b)),
	}
	if inputs.PaidPercent != nil {
		values = append(values, *inputs.PaidPercent)
	}
	if inputs.EmployerTopUp != nil {
		values = append(values, *inputs.EmployerTopUp)
	}
	for _, v := range values {
		for _, form := range Forms(v) {
			allowed.Add(form)
		}
	}
	for _, num := range ExtractNumbers(explanationText(result.Explanation)) {
		allowed.Add(num)
	}

	return Input{
		Jurisdiction: result.Metadata.Jurisdiction,
		UserInputs: InputSummary{
			Salary:     inputs.Salary,
			LeaveWeeks: leaveWeeks,
		},
		CalculationSummary: CalculationSummary{
			TotalGap:    b.TotalIncomeGap,
			PaidWeeks:   b.PaidWeeks,
			UnpaidWeeks: b.UnpaidWeeks,
		},
		StructuredExplanation: result.Explanation,
		AllowedNumbers:        allowed,
	}
}

// Forms renders |v| the ways a narrative may legitimately print it:
// raw ("1923.0769230769231"), cents ("1923.08", "1,923.08", "500.00"),
// and whole ("1923", "1,923"). Signs are dropped; extraction never sees them.
func Forms(v float64) []string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	v = math.Abs(v)
	d := decimal.NewFromFloat(v)
	cents := d.Round(2)
	whole := d.Round(0)

	forms := []string{
		calculator.FormatNumber(v),
		cents.String(),
		cents.StringFixed(2),
		Thousands(cents.String()),
		Thousands(cents.StringFixed(2)),
		whole.String(),
		Thousands(whole.String()),
	}

	seen := make(map[string]bool, len(forms))
	out := forms[:0]
	for _, f := range forms {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// Thousands inserts comma separators into the integer part of a plain
// decimal string: "10500.5" -> "10,500.5".
func Thousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}

func explanationText(e calculator.StructuredExplanation) string {
	parts := []string{e.Summary}
	parts = append(parts, e.Assumptions...)
	parts = append(parts, e.CapsApplied...)
	parts = append(parts, e.Warnings...)
	parts = append(parts, e.ThingsToDoubleCheck...)
	return strings.Join(parts, "\n")
}

func formatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatPlain(v)
	}
	return decimal.NewFromFloat(v).Round(2).String()
}

func formatPlain(v float64) string {
	return calculator.FormatNumber(v)
}
