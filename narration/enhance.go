package narration

import (
	"context"
	"log"
	"strings"

	"github.com/warp/leave-planner/calculator"
)

// Enhancer runs prepare, rewrite, and validate for one calculation. The
// calculation is already complete; a narration failure never touches it.
type Enhancer struct {
	Rewriter Rewriter
	Enabled  bool
}

// ValidationFailed is the error reported when a rewrite is discarded.
const ValidationFailed = "Safety validation failed"

// Enhance returns nil when narration is disabled.
func (e *Enhancer) Enhance(ctx context.Context, result calculator.Result, inputs calculator.UserInputs) *Result {
	if e == nil || !e.Enabled || e.Rewriter == nil {
		return nil
	}

	in := PrepareInput(result, inputs)
	narrative, err := e.Rewriter.Rewrite(ctx, in)
	if err != nil {
		log.Printf("[Narration] Rewrite failed for %s: %v", in.Jurisdiction, err)
		return &Result{Success: false, Error: err.Error()}
	}

	check := Validate(narrative, in)
	if !check.Safe {
		log.Printf("[Narration] Discarded rewrite for %s: %s", in.Jurisdiction, strings.Join(check.Violations, "; "))
		return &Result{Success: false, Error: ValidationFailed, ValidationIssues: check.Violations}
	}
	if len(check.Warnings) > 0 {
		log.Printf("[Narration] Accepted rewrite for %s with %d warning(s)", in.Jurisdiction, len(check.Warnings))
	}

	return &Result{Success: true, Narration: &narrative, ValidationIssues: check.Warnings}
}

// RewriterFunc adapts a function to the Rewriter interface.
type RewriterFunc func(ctx context.Context, in Input) (Narrative, error)

func (f RewriterFunc) Rewrite(ctx context.Context, in Input) (Narrative, error) {
	return f(ctx, in)
}
