/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists saved plans and the latest fetched baby product prices.

INTERFACES IMPLEMENTED:
  plan.Store:           Saved plans (write-once)
  babycost.PriceStore:  Latest price per product category (upsert)

KEY TABLES:
  plans:               One row per saved plan; inputs and result as JSON
  baby_product_prices: One row per category; price as decimal TEXT

WRITE-ONCE PLANS:
  - No UPDATE statements on plans
  - A changed plan is saved as a new plan

CONCURRENCY:
  Uses sync.RWMutex for thread-safety around the single SQLite writer.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - plan/plan.go: Plan and Store
  - plan/store/memory.go: In-memory implementation for testing
  - babycost/refresh.go: Writes prices through SavePrice
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/warp/leave-planner/babycost"
	"github.com/warp/leave-planner/plan"
)

// timeLayout has fixed-width fractions so TEXT ordering is time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements plan.Store and babycost.PriceStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Saved plans (write-once)
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		jurisdiction TEXT NOT NULL,
		inputs_json TEXT NOT NULL,
		result_json TEXT NOT NULL,
		current_savings REAL NOT NULL DEFAULT 0,
		expenses_json TEXT NOT NULL DEFAULT '{}',
		childcare_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_created_at
		ON plans(created_at DESC);

	-- Latest pack price per product category
	CREATE TABLE IF NOT EXISTS baby_product_prices (
		category TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		query TEXT NOT NULL,
		price_usd TEXT,
		source_url TEXT,
		unit_count TEXT NOT NULL,
		units_per_month TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PLAN STORE (plan.Store interface)
// =============================================================================

// Save inserts a plan. An existing ID returns plan.ErrDuplicatePlan.
func (s *Store) Save(ctx context.Context, p plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputsJSON, err := json.Marshal(p.Inputs)
	if err != nil {
		return fmt.Errorf("failed to encode plan inputs: %w", err)
	}
	resultJSON, err := json.Marshal(p.Result)
	if err != nil {
		return fmt.Errorf("failed to encode plan result: %w", err)
	}
	expenses := p.Expenses
	if expenses == nil {
		expenses = map[string]float64{}
	}
	expensesJSON, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("failed to encode plan expenses: %w", err)
	}
	var childcareJSON sql.NullString
	if p.Childcare != nil {
		raw, err := json.Marshal(p.Childcare)
		if err != nil {
			return fmt.Errorf("failed to encode plan childcare: %w", err)
		}
		childcareJSON = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO plans
		(id, jurisdiction, inputs_json, result_json, current_savings, expenses_json, childcare_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		p.ID.String(),
		p.Jurisdiction,
		string(inputsJSON),
		string(resultJSON),
		p.CurrentSavings,
		string(expensesJSON),
		childcareJSON,
		p.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return plan.ErrDuplicatePlan
		}
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// Get loads a plan by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, jurisdiction, inputs_json, result_json, current_savings, expenses_json, childcare_json, created_at
		FROM plans
		WHERE id = ?
	`

	p, err := scanPlan(s.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return plan.Plan{}, plan.ErrPlanNotFound
	}
	return p, err
}

// List returns up to limit plans, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, jurisdiction, inputs_json, result_json, current_savings, expenses_json, childcare_json, created_at
		FROM plans
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var result []plan.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (plan.Plan, error) {
	var (
		p                                     plan.Plan
		id, inputsJSON, resultJSON, createdAt string
		expensesJSON                          string
		childcareJSON                         sql.NullString
	)
	if err := row.Scan(&id, &p.Jurisdiction, &inputsJSON, &resultJSON, &p.CurrentSavings, &expensesJSON, &childcareJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return plan.Plan{}, err
		}
		return plan.Plan{}, fmt.Errorf("failed to scan plan: %w", err)
	}

	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return plan.Plan{}, fmt.Errorf("invalid plan id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(inputsJSON), &p.Inputs); err != nil {
		return plan.Plan{}, fmt.Errorf("failed to decode plan inputs: %w", err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &p.Result); err != nil {
		return plan.Plan{}, fmt.Errorf("failed to decode plan result: %w", err)
	}
	if err := json.Unmarshal([]byte(expensesJSON), &p.Expenses); err != nil {
		return plan.Plan{}, fmt.Errorf("failed to decode plan expenses: %w", err)
	}
	if childcareJSON.Valid {
		p.Childcare = &plan.Childcare{}
		if err := json.Unmarshal([]byte(childcareJSON.String), p.Childcare); err != nil {
			return plan.Plan{}, fmt.Errorf("failed to decode plan childcare: %w", err)
		}
	}
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return plan.Plan{}, fmt.Errorf("invalid plan created_at %q: %w", createdAt, err)
	}
	return p, nil
}

// =============================================================================
// PRICE STORE (babycost.PriceStore interface)
// =============================================================================

// SavePrice upserts the latest price of a basket product.
func (s *Store) SavePrice(ctx context.Context, price babycost.ProductPrice) error {
	product, ok := babycost.LookupProduct(price.Category)
	if !ok {
		return fmt.Errorf("%w: %s", babycost.ErrUnknownProduct, price.Category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO baby_product_prices
		(category, label, query, price_usd, source_url, unit_count, units_per_month, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET
			price_usd = excluded.price_usd,
			source_url = excluded.source_url,
			fetched_at = excluded.fetched_at
	`

	_, err := s.db.ExecContext(ctx, query,
		product.Category,
		product.Label,
		product.Query,
		price.PriceUSD,
		nullString(price.SourceURL),
		product.UnitCount.String(),
		product.UnitsPerMonth.String(),
		price.FetchedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s price: %w", price.Category, err)
	}
	return nil
}

// LatestPrices returns the stored price of every category.
func (s *Store) LatestPrices(ctx context.Context) ([]babycost.ProductPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, price_usd, source_url, fetched_at
		FROM baby_product_prices
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var result []babycost.ProductPrice
	for rows.Next() {
		var (
			p         babycost.ProductPrice
			sourceURL sql.NullString
			fetchedAt string
		)
		if err := rows.Scan(&p.Category, &p.PriceUSD, &sourceURL, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		p.SourceURL = sourceURL.String
		if p.FetchedAt, err = time.Parse(timeLayout, fetchedAt); err != nil {
			return nil, fmt.Errorf("invalid fetched_at %q: %w", fetchedAt, err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
