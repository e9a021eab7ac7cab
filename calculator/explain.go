package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Explain renders the pipeline records into a StructuredExplanation.
// It is pure formatting: no number here is computed that the breakdown
// does not already contain, except the rounded coverage percent.
func Explain(b LeaveBreakdown, assumptions []Assumption, warnings []Warning, adjustments []Adjustment) StructuredExplanation {
	summary := fmt.Sprintf("You planned %s weeks of leave with %s paid weeks at about %d%% of weekly income.",
		FormatNumber(b.TotalWeeks), FormatNumber(b.PaidWeeks), CoveragePercent(b))

	assumptionNotes := make([]string, 0, len(assumptions))
	for _, a := range assumptions {
		assumptionNotes = append(assumptionNotes, fmt.Sprintf("%s: %s (%s)", a.Field, FormatNumber(a.Value), a.Reason))
	}

	capsApplied := []string{}
	for _, adj := range adjustments {
		if !strings.Contains(strings.ToLower(adj.Reason), "cap") {
			continue
		}
		capsApplied = append(capsApplied, fmt.Sprintf("%s: %s → %s (%s)",
			adj.Field, FormatNumber(adj.OriginalValue), FormatNumber(adj.AdjustedValue), adj.Reason))
	}

	warningNotes := make([]string, 0, len(warnings))
	hasEligibility := false
	for _, w := range warnings {
		warningNotes = append(warningNotes, w.Message)
		if w.Type == WarningEligibility {
			hasEligibility = true
		}
	}

	var checks []string
	if hasEligibility {
		checks = append(checks, "Confirm you meet state eligibility rules (tenure or hours worked).")
	}
	if len(assumptions) > 0 {
		checks = append(checks, "Review any defaults applied to ensure they match your situation.")
	}
	if b.UnpaidWeeks > 0 {
		checks = append(checks, fmt.Sprintf("Plan for %s unpaid weeks in your budget.", FormatNumber(b.UnpaidWeeks)))
	}
	if len(checks) == 0 {
		checks = append(checks, "Verify your employer policy matches the assumed benefit rate.")
	}

	return StructuredExplanation{
		Summary:             summary,
		Assumptions:         assumptionNotes,
		CapsApplied:         capsApplied,
		Warnings:            warningNotes,
		ThingsToDoubleCheck: checks,
	}
}

// CoveragePercent is the share of weekly income the benefit replaces,
// rounded to the nearest integer. Zero income covers 0%.
func CoveragePercent(b LeaveBreakdown) int {
	if b.WeeklyIncome == 0 {
		return 0
	}
	return int(math.Round(b.WeeklyBenefit / b.WeeklyIncome * 100))
}

// FormatNumber renders v in its shortest exact decimal form ("8", "26.5").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
