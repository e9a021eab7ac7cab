/*
errors.go - Boundary input errors

PURPOSE:
  The pipeline itself never fails: out-of-range values are clamped and
  recorded as Adjustments. What can fail is the shape of caller input at the
  boundary (HTTP, CLI), before it ever reaches Resolve. CheckInputs is that
  gate; callers report the offending field back to the user.

ERROR CATEGORIES:
  1. ErrInvalidInput - malformed or non-finite caller input (client error)

USAGE:
  if err := calculator.CheckInputs(in); err != nil {
      var ie *calculator.InputError
      if errors.As(err, &ie) {
          // respond 400 with ie.Field
      }
  }
*/
package calculator

import (
	"errors"
	"fmt"
	"math"
)

// MaxLeaveWeeks bounds the projection length accepted at the boundary.
const MaxLeaveWeeks = 520

// MaxSalary bounds the annual salary accepted at the boundary. Together with
// MaxLeaveWeeks it keeps every projected amount finite.
const MaxSalary = 100_000_000

// ErrInvalidInput is returned when caller input is malformed.
var ErrInvalidInput = errors.New("invalid input")

// InputError identifies the offending input field.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// CheckInputs validates the shape of caller input. Range problems that the
// cap cascade can correct (negative percentages, paid weeks above leave) are
// not errors here.
func CheckInputs(in UserInputs) error {
	if !finite(in.Salary) {
		return &InputError{Field: "salary", Message: "must be a finite number"}
	}
	if in.Salary < 0 {
		return &InputError{Field: "salary", Message: "must not be negative"}
	}
	if in.Salary > MaxSalary {
		return &InputError{Field: "salary", Message: fmt.Sprintf("must not exceed %d", MaxSalary)}
	}

	optional := []struct {
		field string
		value *float64
	}{
		{"leaveWeeks", in.LeaveWeeks},
		{"paidPercent", in.PaidPercent},
		{"employerTopUp", in.EmployerTopUp},
	}
	for _, o := range optional {
		if o.value != nil && !finite(*o.value) {
			return &InputError{Field: o.field, Message: "must be a finite number"}
		}
	}
	if in.LeaveWeeks != nil && *in.LeaveWeeks > MaxLeaveWeeks {
		return &InputError{Field: "leaveWeeks", Message: fmt.Sprintf("must not exceed %d", MaxLeaveWeeks)}
	}
	return nil
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
