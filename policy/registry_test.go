package policy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-planner/policy"
)

func TestDefault_ContainsBuiltinJurisdictions(t *testing.T) {
	reg := policy.Default()

	ids := []string{}
	for _, c := range reg.List() {
		ids = append(ids, c.JurisdictionID)
	}
	assert.Equal(t, []string{"US-GENERIC", "US-CA", "US-NY"}, ids)
}

func TestGet_CaliforniaValues(t *testing.T) {
	ca := policy.Default().Get("US-CA")

	assert.Equal(t, "California (CA)", ca.DisplayName)
	assert.Equal(t, 8.0, ca.Defaults.PaidWeeks)
	assert.Equal(t, 60.0, ca.Defaults.PaidPercent)
	require.NotNil(t, ca.Defaults.WaitingDays)
	assert.Equal(t, 7.0, *ca.Defaults.WaitingDays)
	assert.Equal(t, 1.0, ca.WaitingWeeks())
	require.NotNil(t, ca.Caps.MaxWeeklyBenefit)
	assert.Equal(t, 1620.0, *ca.Caps.MaxWeeklyBenefit)
	assert.Nil(t, ca.Caps.MaxTotalBenefit)
	assert.True(t, ca.HasEligibilityRequirements())
}

func TestGet_UnknownFallsBackToGeneric(t *testing.T) {
	// GIVEN: A jurisdiction id that is not in the table
	// WHEN: Looking it up
	// THEN: The generic policy is returned, never an error

	got := policy.Default().Get("ZZ-NOWHERE")
	assert.Equal(t, policy.GenericID, got.JurisdictionID)

	_, ok := policy.Default().Lookup("ZZ-NOWHERE")
	assert.False(t, ok)
}

func TestHasEligibilityRequirements_ZeroMeansNone(t *testing.T) {
	// NY lists requirements of 0, which do not count.
	ny := policy.Default().Get("US-NY")
	assert.False(t, ny.HasEligibilityRequirements())

	generic := policy.Default().Get("US-GENERIC")
	assert.False(t, generic.HasEligibilityRequirements())
	assert.Equal(t, 0.0, generic.WaitingWeeks())
}

func TestList_ReturnsCopy(t *testing.T) {
	reg := policy.Default()
	list := reg.List()
	list[0].DisplayName = "mutated"

	assert.Equal(t, "United States (Generic)", reg.Get("US-GENERIC").DisplayName)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "missing generic",
			yaml: `
- jurisdiction_id: US-CA
  defaults: {paid_weeks: 8, paid_percent: 60}
`,
			want: policy.ErrMissingGeneric,
		},
		{
			name: "duplicate id",
			yaml: `
- jurisdiction_id: US-GENERIC
  defaults: {paid_weeks: 6, paid_percent: 60}
- jurisdiction_id: US-GENERIC
  defaults: {paid_weeks: 6, paid_percent: 60}
`,
			want: policy.ErrDuplicatePolicy,
		},
		{
			name: "percent over 100",
			yaml: `
- jurisdiction_id: US-GENERIC
  defaults: {paid_weeks: 6, paid_percent: 120}
`,
			want: policy.ErrInvalidPolicy,
		},
		{
			name: "negative cap",
			yaml: `
- jurisdiction_id: US-GENERIC
  defaults: {paid_weeks: 6, paid_percent: 60}
  caps: {max_weekly_benefit: -1}
`,
			want: policy.ErrInvalidPolicy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := policy.Load([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLoad_FieldErrorNamesField(t *testing.T) {
	_, err := policy.Load([]byte(`
- jurisdiction_id: US-GENERIC
  defaults: {paid_weeks: 6, paid_percent: 60}
  caps: {max_total_benefit: -5}
`))

	var fe *policy.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "caps.max_total_benefit", fe.Field)
}

func TestLoad_CustomTable(t *testing.T) {
	reg, err := policy.Load([]byte(`
- jurisdiction_id: US-GENERIC
  display_name: Generic
  currency: USD
  defaults: {paid_weeks: 6, paid_percent: 60}
- jurisdiction_id: US-WA
  display_name: Washington (WA)
  currency: USD
  defaults: {paid_weeks: 12, paid_percent: 90}
  caps: {max_weekly_benefit: 1456, max_total_benefit: 17000}
`))
	require.NoError(t, err)

	wa := reg.Get("US-WA")
	require.NotNil(t, wa.Caps.MaxTotalBenefit)
	assert.Equal(t, 17000.0, *wa.Caps.MaxTotalBenefit)
	assert.Len(t, reg.List(), 2)
}
