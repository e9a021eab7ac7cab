package calculator

import (
	"math"

	"github.com/warp/leave-planner/policy"
)

// Resolve fills unset inputs from the policy defaults. Every substitution is
// recorded as an Assumption, in field order: leave weeks, paid percent,
// employer top-up, paid weeks.
//
// Paid weeks are never user-supplied: they are the policy's default paid
// duration, limited to the requested leave.
func Resolve(inputs UserInputs, p policy.Config) (Scenario, []Assumption) {
	var assumptions []Assumption

	leaveWeeks := p.Defaults.PaidWeeks
	if inputs.LeaveWeeks != nil {
		leaveWeeks = *inputs.LeaveWeeks
	} else {
		assumptions = append(assumptions, Assumption{
			Field:  "leaveWeeks",
			Value:  leaveWeeks,
			Reason: "Used the policy default for paid leave weeks.",
		})
	}

	paidPercent := p.Defaults.PaidPercent
	if inputs.PaidPercent != nil {
		paidPercent = *inputs.PaidPercent
	} else {
		assumptions = append(assumptions, Assumption{
			Field:  "paidPercent",
			Value:  paidPercent,
			Reason: "Used the policy default benefit percentage.",
		})
	}

	employerTopUp := 0.0
	if inputs.EmployerTopUp != nil {
		employerTopUp = *inputs.EmployerTopUp
	} else {
		assumptions = append(assumptions, Assumption{
			Field:  "employerTopUp",
			Value:  employerTopUp,
			Reason: "Assumed no employer top-up was provided.",
		})
	}

	paidWeeks := math.Min(p.Defaults.PaidWeeks, leaveWeeks)
	if leaveWeeks > paidWeeks {
		assumptions = append(assumptions, Assumption{
			Field:  "paidWeeks",
			Value:  paidWeeks,
			Reason: "Paid weeks are capped by the policy default paid duration.",
		})
	}

	return Scenario{
		Salary:        inputs.Salary,
		LeaveWeeks:    leaveWeeks,
		PaidWeeks:     paidWeeks,
		PaidPercent:   paidPercent,
		EmployerTopUp: employerTopUp,
		StartDate:     inputs.StartDate,
	}, assumptions
}
