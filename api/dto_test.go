package api

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCents(t *testing.T) {
	// GIVEN: Finite and non-finite amounts
	// WHEN: Rounding them for the wire
	// THEN: Finite amounts round to cents, non-finite ones become 0

	assert.Equal(t, 1923.08, cents(1923.076923))
	assert.Equal(t, -3.5, cents(-3.5))
	assert.NotPanics(t, func() { cents(math.Inf(1)) })
	assert.Equal(t, 0.0, cents(math.Inf(1)))
	assert.Equal(t, 0.0, cents(math.Inf(-1)))
	assert.Equal(t, 0.0, cents(math.NaN()))
}
