package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// WeeksPerMonth is the fixed calendar-month chunk used by the projection.
const WeeksPerMonth = 4.33

// epsilon guards the month walk against float residue.
const epsilon = 1e-9

// Project walks the leave in 4.33-week months, paying paid weeks first.
//
// The scenario must already be validated. A non-finite or negative leave
// duration yields an empty cashflow rather than an endless walk.
func Project(s Scenario) LeaveBreakdown {
	totalWeeks := s.LeaveWeeks
	if math.IsNaN(totalWeeks) || math.IsInf(totalWeeks, 0) || totalWeeks < 0 {
		totalWeeks = 0
	}
	paidWeeks := math.Max(0, math.Min(s.PaidWeeks, totalWeeks))
	unpaidWeeks := math.Max(0, totalWeeks-paidWeeks)
	weeklyIncome := WeeklyIncome(s.Salary)
	weeklyBenefit := WeeklyBenefit(s)

	cashflow := []MonthlyProjection{}
	remaining := totalWeeks
	paidRemaining := paidWeeks
	for month := 1; remaining > epsilon; month++ {
		weeks := math.Min(WeeksPerMonth, remaining)
		paidThisMonth := math.Max(0, math.Min(weeks, paidRemaining))
		income := weeklyIncome * weeks
		benefit := weeklyBenefit * paidThisMonth

		cashflow = append(cashflow, MonthlyProjection{
			MonthIndex: month,
			Weeks:      round2(weeks),
			Income:     income,
			Benefit:    benefit,
			Gap:        income - benefit,
		})

		remaining -= weeks
		paidRemaining -= paidThisMonth
	}

	totalIncomeGap := weeklyIncome*totalWeeks - weeklyBenefit*paidWeeks

	return LeaveBreakdown{
		TotalWeeks:      totalWeeks,
		PaidWeeks:       paidWeeks,
		UnpaidWeeks:     unpaidWeeks,
		WeeklyIncome:    weeklyIncome,
		WeeklyBenefit:   weeklyBenefit,
		MonthlyCashflow: cashflow,
		TotalIncomeGap:  totalIncomeGap,
		SavingsNeeded:   math.Max(0, totalIncomeGap),
	}
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
