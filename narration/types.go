/*
Package narration guards natural-language rewrites of a calculation.

PURPOSE:
  A structured explanation is accurate but dry. A language model can rewrite
  it into friendlier prose, but a model can also invent numbers or redo the
  math. This package prepares the rewrite request, calls the rewriter, and
  certifies the result before anyone sees it.

SAFETY CONTRACT:
  A narrative is safe when every number in it was already present in the
  calculation output. Rounded variants (within 1%) are tolerated and reported
  as warnings. Calculation language ("computed", "adds up to", ...) is
  reported as a warning: the narrative should rephrase, never re-derive.

KNOWN LIMITS:
  Number extraction is a lexical scan, not a language parser.
  - False negatives: spelled-out numbers ("twelve weeks") are not seen, and a
    large number written without separators only matches its raw form.
  - False positives: an allowed value can coincidentally match an invented
    number within 1%, and digits inside words ("401k") are extracted.
  Treat Validate as a tripwire; the structured explanation stays the source
  of truth.

FLOW:
  input := narration.PrepareInput(result, inputs)
  narrative, err := rewriter.Rewrite(ctx, input)
  check := narration.Validate(narrative, input)
  if !check.Safe {
    // discard narrative, show structured explanation
  }

SEE ALSO:
  - prepare.go: Which numbers are allowed, in which textual forms
  - validate.go: The safety check
  - client.go: Chat-completion rewriter
  - enhance.go: The full flow with failure handling
*/
package narration

import (
	"sort"

	"github.com/warp/leave-planner/calculator"
)

// Narrative is the rewriter's output.
type Narrative struct {
	FriendlySummary     string   `json:"friendlySummary"`
	WhatDroveTheGap     []string `json:"whatDroveTheGap"`
	ThingsToDoubleCheck []string `json:"thingsToDoubleCheck"`
}

// Input is everything the rewriter may see, plus the allowed number set.
type Input struct {
	Jurisdiction          string                           `json:"jurisdiction"`
	UserInputs            InputSummary                     `json:"userInputs"`
	CalculationSummary    CalculationSummary               `json:"calculationSummary"`
	StructuredExplanation calculator.StructuredExplanation `json:"structuredExplanation"`
	AllowedNumbers        *NumberSet                       `json:"-"`
}

type InputSummary struct {
	Salary     float64 `json:"salary"`
	LeaveWeeks float64 `json:"leaveWeeks"`
}

type CalculationSummary struct {
	TotalGap    float64 `json:"totalGap"`
	PaidWeeks   float64 `json:"paidWeeks"`
	UnpaidWeeks float64 `json:"unpaidWeeks"`
}

// ValidationResult is the outcome of Validate. Warnings never affect Safe.
type ValidationResult struct {
	Safe       bool     `json:"safe"`
	Violations []string `json:"violations"`
	Warnings   []string `json:"warnings"`
}

// Result is what the boundary reports about narration for one calculation.
type Result struct {
	Success          bool       `json:"success"`
	Narration        *Narrative `json:"narration,omitempty"`
	Error            string     `json:"error,omitempty"`
	ValidationIssues []string   `json:"validationIssues,omitempty"`
}

// =============================================================================
// NUMBER SET - Insertion-ordered set of permitted number strings
// =============================================================================

// NumberSet keeps insertion order so rounding warnings name the same
// allowed value on every run.
type NumberSet struct {
	order []string
	index map[string]struct{}
}

func NewNumberSet(values ...string) *NumberSet {
	s := &NumberSet{index: make(map[string]struct{})}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

func (s *NumberSet) Add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *NumberSet) Has(v string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Values returns the set in insertion order.
func (s *NumberSet) Values() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *NumberSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Sorted returns the set sorted lexically, for display.
func (s *NumberSet) Sorted() []string {
	out := s.Values()
	sort.Strings(out)
	return out
}
