/*
handlers.go - HTTP API handlers for the leave planner

PURPOSE:
  Exposes the income-gap calculator, the narration safety check, the baby
  cost estimate and saved plans via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Policies:
    GET    /api/policies               List jurisdiction policies
    GET    /api/policies/{id}          Get one policy (unknown -> generic)

  Calculation:
    POST   /api/calculate              Income gap, optionally narrated

  Narration:
    POST   /api/narration              Rewrite and certify a narrative
    POST   /api/narration/check        Certify a narrative written elsewhere

  Baby costs:
    GET    /api/baby-costs             Supply estimate for a leave
    POST   /api/baby-costs/prices      Record a product pack price

  Plans:
    GET    /api/plans                  List saved plans, newest first
    POST   /api/plans                  Save a calculation with its budget
    GET    /api/plans/{id}             Get a saved plan

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Engine: Calculation pipeline over the policy registry
  - Narration: Rewrite + validation (nil or disabled = off)
  - Estimator: Baby supply pricing
  - Store: Plans and product prices

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (calculator, narration, babycost, plan)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (field names the offender)
  - 404: Plan not found
  - 502: The narrative rewriter failed
  - 503: Narration is not enabled
  - 500: Internal errors

  A narrative that fails the safety check is not an HTTP error. It is
  reported as success=false with the violations, and the calculation it
  belongs to is unaffected.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public,
  including the price upsert.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/leave-planner/babycost"
	"github.com/warp/leave-planner/calculator"
	"github.com/warp/leave-planner/narration"
	"github.com/warp/leave-planner/plan"
	"github.com/warp/leave-planner/policy"
)

// maxPlanList caps GET /api/plans.
const maxPlanList = 100

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the handlers need.
type Store interface {
	plan.Store
	babycost.PriceStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Policies  *policy.Registry
	Engine    *calculator.Engine
	Narration *narration.Enhancer
	Estimator *babycost.Estimator

	// Clock stamps plans and default price fetch times.
	Clock func() time.Time
}

// NewHandler creates a handler over the given store and policy registry.
// Narration starts disabled; set Handler.Narration to turn it on.
func NewHandler(store Store, policies *policy.Registry) *Handler {
	if policies == nil {
		policies = policy.Default()
	}
	return &Handler{
		Store:     store,
		Policies:  policies,
		Engine:    calculator.NewEngine(policies),
		Estimator: babycost.NewEstimator(store),
	}
}

func (h *Handler) now() time.Time {
	if h.Clock == nil {
		return time.Now().UTC()
	}
	return h.Clock()
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns all policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	configs := h.Policies.List()
	dtos := make([]PolicyDTO, len(configs))
	for i, c := range configs {
		dtos[i] = toPolicyDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPolicy returns a single policy. Unknown ids get the generic policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, toPolicyDTO(h.Policies.Get(id)))
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate runs the income-gap pipeline and, when asked, narrates it.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !h.checkCalculation(w, req.Jurisdiction, req.Inputs) {
		return
	}

	result := h.Engine.Calculate(req.Inputs, req.Jurisdiction)

	var narrated *narration.Result
	if req.IncludeNarration {
		narrated = h.Narration.Enhance(r.Context(), result, req.Inputs)
	}

	writeJSON(w, http.StatusOK, toCalculateResponse(result, narrated))
}

// checkCalculation writes a 400 and returns false for malformed input.
func (h *Handler) checkCalculation(w http.ResponseWriter, jurisdiction string, inputs calculator.UserInputs) bool {
	if jurisdiction == "" {
		writeFieldError(w, "jurisdiction", "jurisdiction is required")
		return false
	}
	if err := calculator.CheckInputs(inputs); err != nil {
		var inputErr *calculator.InputError
		if errors.As(err, &inputErr) {
			writeFieldError(w, "inputs."+inputErr.Field, inputErr.Error())
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid inputs", err)
		return false
	}
	return true
}

// =============================================================================
// NARRATION HANDLERS
// =============================================================================

// Narrate rewrites a calculation's explanation and certifies the result.
func (h *Handler) Narrate(w http.ResponseWriter, r *http.Request) {
	if h.Narration == nil || !h.Narration.Enabled || h.Narration.Rewriter == nil {
		writeError(w, http.StatusServiceUnavailable, "Narration is not enabled", nil)
		return
	}

	var req NarrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !h.checkCalculation(w, req.Jurisdiction, req.Inputs) {
		return
	}

	result := h.Engine.Calculate(req.Inputs, req.Jurisdiction)
	narrated := h.Narration.Enhance(r.Context(), result, req.Inputs)

	status := http.StatusOK
	if !narrated.Success && narrated.Error != narration.ValidationFailed {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, narrated)
}

// CheckNarration validates a caller-supplied narrative against the
// numbers of the calculation it claims to describe.
func (h *Handler) CheckNarration(w http.ResponseWriter, r *http.Request) {
	var req NarrationCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !h.checkCalculation(w, req.Jurisdiction, req.Inputs) {
		return
	}

	result := h.Engine.Calculate(req.Inputs, req.Jurisdiction)
	in := narration.PrepareInput(result, req.Inputs)
	writeJSON(w, http.StatusOK, narration.Validate(req.Narrative, in))
}

// =============================================================================
// BABY COST HANDLERS
// =============================================================================

// BabyCosts prices the supply basket for a leave.
func (h *Handler) BabyCosts(w http.ResponseWriter, r *http.Request) {
	jurisdiction := r.URL.Query().Get("jurisdiction")
	if jurisdiction == "" {
		jurisdiction = policy.GenericID
	}

	weeks, err := strconv.Atoi(r.URL.Query().Get("leaveWeeks"))
	if err != nil || weeks <= 0 {
		writeFieldError(w, "leaveWeeks", "leaveWeeks must be a positive integer")
		return
	}
	if weeks > calculator.MaxLeaveWeeks {
		writeFieldError(w, "leaveWeeks", fmt.Sprintf("leaveWeeks must not exceed %d", calculator.MaxLeaveWeeks))
		return
	}

	est, err := h.Estimator.Estimate(r.Context(), jurisdiction, float64(weeks))
	if err != nil {
		if errors.Is(err, babycost.ErrInvalidLeaveWeeks) {
			writeFieldError(w, "leaveWeeks", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to estimate baby costs", err)
		return
	}

	writeJSON(w, http.StatusOK, est)
}

// SavePrice records the latest pack price for a basket product.
func (h *Handler) SavePrice(w http.ResponseWriter, r *http.Request) {
	var req SavePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, ok := babycost.LookupProduct(req.Category); !ok {
		writeFieldError(w, "category", fmt.Sprintf("unknown product category %q", req.Category))
		return
	}
	if !req.PriceUSD.Valid || !req.PriceUSD.Decimal.IsPositive() {
		writeFieldError(w, "priceUsd", "priceUsd must be a positive number")
		return
	}

	price := babycost.ProductPrice{
		Category:  req.Category,
		PriceUSD:  req.PriceUSD,
		SourceURL: req.SourceURL,
		FetchedAt: h.now(),
	}
	if req.FetchedAt != nil {
		price.FetchedAt = req.FetchedAt.UTC()
	}

	if err := h.Store.SavePrice(r.Context(), price); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save price", err)
		return
	}

	log.Printf("[BabyCosts] Recorded %s price %s", price.Category, price.PriceUSD.Decimal.StringFixed(2))
	writeJSON(w, http.StatusCreated, price)
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// CreatePlan calculates and saves a plan with its budget.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !h.checkCalculation(w, req.Jurisdiction, req.Inputs) {
		return
	}

	result := h.Engine.Calculate(req.Inputs, req.Jurisdiction)
	p := plan.New(req.Jurisdiction, req.Inputs, result, h.now())
	p.CurrentSavings = req.CurrentSavings
	if req.Expenses != nil {
		p.Expenses = req.Expenses
	}
	p.Childcare = req.Childcare

	if err := p.Validate(); err != nil {
		var fieldErr *plan.FieldError
		if errors.As(err, &fieldErr) {
			writeFieldError(w, fieldErr.Field, fieldErr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
		return
	}

	if err := h.Store.Save(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPlanDTO(p))
}

// GetPlan returns a saved plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan ID", err)
		return
	}

	p, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if plan.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Plan not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get plan", err)
		return
	}

	writeJSON(w, http.StatusOK, toPlanDTO(p))
}

// ListPlans returns saved plans, newest first. ?limit caps the count.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	limit := maxPlanList
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeFieldError(w, "limit", "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	plans, err := h.Store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toPlanDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeFieldError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Field: field})
}
