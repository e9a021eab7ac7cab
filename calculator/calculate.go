package calculator

import (
	"time"

	"github.com/warp/leave-planner/policy"
)

// Engine composes the pipeline against a policy registry.
type Engine struct {
	Policies *policy.Registry

	// Clock stamps Metadata.CalculatedAt. Defaults to time.Now in UTC.
	Clock func() time.Time
}

// NewEngine creates an engine with the system clock.
func NewEngine(policies *policy.Registry) *Engine {
	return &Engine{Policies: policies}
}

// Calculate runs Resolve, Validate, Project and Explain for one jurisdiction.
// Unknown jurisdictions use the generic policy and report its id.
func (e *Engine) Calculate(inputs UserInputs, jurisdictionID string) Result {
	p := e.policies().Get(jurisdictionID)

	scenario, assumptions := Resolve(inputs, p)
	validated, warnings, adjustments := Validate(scenario, p)
	breakdown := Project(validated)
	explanation := Explain(breakdown, assumptions, warnings, adjustments)

	return Result{
		Breakdown:   breakdown,
		Explanation: explanation,
		Metadata: Metadata{
			Jurisdiction: p.JurisdictionID,
			CalculatedAt: e.now(),
		},
	}
}

func (e *Engine) policies() *policy.Registry {
	if e.Policies == nil {
		return policy.Default()
	}
	return e.Policies
}

func (e *Engine) now() time.Time {
	if e.Clock == nil {
		return time.Now().UTC()
	}
	return e.Clock()
}
