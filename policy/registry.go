package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed policies.yaml
var builtinTable []byte

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidPolicy is returned when a table entry has out-of-range values.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrDuplicatePolicy is returned when two entries share a jurisdiction id.
	ErrDuplicatePolicy = errors.New("duplicate jurisdiction id")

	// ErrMissingGeneric is returned when the table has no fallback policy.
	ErrMissingGeneric = errors.New("policy table has no " + GenericID + " entry")
)

// FieldError identifies the offending entry and field of a policy table.
type FieldError struct {
	JurisdictionID string
	Field          string
	Message        string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("policy %q: %s: %s", e.JurisdictionID, e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrInvalidPolicy }

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is a read-only jurisdiction table. Safe for concurrent use since
// it is never mutated after construction.
type Registry struct {
	ordered []Config
	byID    map[string]int
}

var defaultRegistry = mustLoad(builtinTable)

// Default returns the registry built from the embedded table.
func Default() *Registry { return defaultRegistry }

// Load parses a YAML policy table (a list of Config entries) and validates it.
func Load(data []byte) (*Registry, error) {
	var configs []Config
	if err := yaml.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse policy table: %w", err)
	}
	return New(configs)
}

// LoadFile reads and parses a policy table from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy table: %w", err)
	}
	return Load(data)
}

// New builds a registry from configs, preserving their order.
func New(configs []Config) (*Registry, error) {
	r := &Registry{
		ordered: make([]Config, 0, len(configs)),
		byID:    make(map[string]int, len(configs)),
	}
	for _, c := range configs {
		if err := validate(c); err != nil {
			return nil, err
		}
		if _, dup := r.byID[c.JurisdictionID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePolicy, c.JurisdictionID)
		}
		r.byID[c.JurisdictionID] = len(r.ordered)
		r.ordered = append(r.ordered, c)
	}
	if _, ok := r.byID[GenericID]; !ok {
		return nil, ErrMissingGeneric
	}
	return r, nil
}

// Get returns the policy for id, or the generic policy for unknown ids.
func (r *Registry) Get(id string) Config {
	if i, ok := r.byID[id]; ok {
		return r.ordered[i]
	}
	return r.ordered[r.byID[GenericID]]
}

// Lookup is Get without the fallback.
func (r *Registry) Lookup(id string) (Config, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Config{}, false
	}
	return r.ordered[i], true
}

// List returns all policies in table order.
func (r *Registry) List() []Config {
	out := make([]Config, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func mustLoad(data []byte) *Registry {
	r, err := Load(data)
	if err != nil {
		panic(err)
	}
	return r
}

type optionalField struct {
	field string
	value *float64
}

func validate(c Config) error {
	fail := func(field, msg string) error {
		return &FieldError{JurisdictionID: c.JurisdictionID, Field: field, Message: msg}
	}

	if c.JurisdictionID == "" {
		return fail("jurisdiction_id", "must not be empty")
	}
	if !nonNegative(c.Defaults.PaidWeeks) {
		return fail("defaults.paid_weeks", "must be a non-negative number")
	}
	if !nonNegative(c.Defaults.PaidPercent) || c.Defaults.PaidPercent > 100 {
		return fail("defaults.paid_percent", "must be between 0 and 100")
	}

	optional := []optionalField{
		{"defaults.waiting_days", c.Defaults.WaitingDays},
		{"caps.max_paid_weeks", c.Caps.MaxPaidWeeks},
		{"caps.max_weekly_benefit", c.Caps.MaxWeeklyBenefit},
		{"caps.max_total_benefit", c.Caps.MaxTotalBenefit},
	}
	if c.Eligibility != nil {
		optional = append(optional,
			optionalField{"eligibility.min_tenure_months", c.Eligibility.MinTenureMonths},
			optionalField{"eligibility.min_hours_worked", c.Eligibility.MinHoursWorked},
		)
	}
	for _, o := range optional {
		if o.value != nil && !nonNegative(*o.value) {
			return fail(o.field, "must be a non-negative number")
		}
	}
	return nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
