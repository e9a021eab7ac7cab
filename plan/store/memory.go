// Package store provides in-memory plan and price storage.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/leave-planner/babycost"
	"github.com/warp/leave-planner/plan"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	plans  map[uuid.UUID]plan.Plan
	order  []uuid.UUID
	prices map[string]babycost.ProductPrice
}

func NewMemory() *Memory {
	return &Memory{
		plans:  make(map[uuid.UUID]plan.Plan),
		prices: make(map[string]babycost.ProductPrice),
	}
}

// Save adds a plan. Write-once.
func (m *Memory) Save(_ context.Context, p plan.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.plans[p.ID]; ok {
		return plan.ErrDuplicatePlan
	}
	m.plans[p.ID] = clonePlan(p)
	m.order = append(m.order, p.ID)
	return nil
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (plan.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plans[id]
	if !ok {
		return plan.Plan{}, plan.ErrPlanNotFound
	}
	return clonePlan(p), nil
}

// List returns up to limit plans, newest first. limit <= 0 returns all.
func (m *Memory) List(_ context.Context, limit int) ([]plan.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]plan.Plan, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		result = append(result, clonePlan(m.plans[m.order[i]]))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// =============================================================================
// PRICES
// =============================================================================

func (m *Memory) LatestPrices(_ context.Context) ([]babycost.ProductPrice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]babycost.ProductPrice, 0, len(m.prices))
	for _, p := range m.prices {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result, nil
}

// SavePrice replaces the stored price for the category.
func (m *Memory) SavePrice(_ context.Context, p babycost.ProductPrice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[p.Category] = p
	return nil
}

func clonePlan(p plan.Plan) plan.Plan {
	if p.Expenses != nil {
		expenses := make(map[string]float64, len(p.Expenses))
		for k, v := range p.Expenses {
			expenses[k] = v
		}
		p.Expenses = expenses
	}
	if p.Childcare != nil {
		c := *p.Childcare
		p.Childcare = &c
	}
	return p
}
