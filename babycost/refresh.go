/*
refresh.go - Background price refresh

PURPOSE:
  Keeps the stored pack prices no older than FreshFor. Once per check
  interval the refresher looks at the stored prices and, when any category
  is missing or stale, fetches every product again.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Checks once immediately on Start
  - Only found prices are stored; a failed or empty lookup keeps the
    category stale so the next check retries it
  - Fetches run concurrently, a few at a time

USAGE:
  refresher := NewRefresher(store, fetcher)
  refresher.Start()
  // ... later
  refresher.Stop()
*/
package babycost

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// PriceFetcher looks up the current pack price of one product. A lookup
// that finds no price returns a ProductPrice with an invalid PriceUSD.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, p Product) (ProductPrice, error)
}

// PriceStore persists fetched prices.
type PriceStore interface {
	PriceSource
	SavePrice(ctx context.Context, price ProductPrice) error
}

const maxConcurrentFetches = 3

// Refresher periodically refreshes stale prices.
type Refresher struct {
	Store         PriceStore
	Fetcher       PriceFetcher
	CheckInterval time.Duration
	Enabled       bool
	Clock         func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRefresher creates a refresher that checks once a day.
func NewRefresher(store PriceStore, fetcher PriceFetcher) *Refresher {
	return &Refresher{
		Store:         store,
		Fetcher:       fetcher,
		CheckInterval: 24 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the background loop.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.Enabled || r.Fetcher == nil {
		log.Println("[BabyCosts] Price refresh disabled, not starting")
		return
	}
	if r.ticker != nil {
		return
	}

	r.ticker = time.NewTicker(r.CheckInterval)
	r.stop = make(chan struct{})
	r.wg.Add(1)

	go r.run()

	log.Printf("[BabyCosts] Price refresh started with check interval: %v", r.CheckInterval)
}

// Stop stops the loop and waits for an in-flight refresh to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ticker != nil {
		r.ticker.Stop()
		close(r.stop)
		r.wg.Wait()
		r.ticker = nil
		log.Println("[BabyCosts] Price refresh stopped")
	}
}

func (r *Refresher) run() {
	defer r.wg.Done()

	r.check()

	for {
		select {
		case <-r.ticker.C:
			r.check()
		case <-r.stop:
			return
		}
	}
}

func (r *Refresher) check() {
	ctx := context.Background()
	refreshed, err := r.RefreshIfStale(ctx)
	if err != nil {
		log.Printf("[BabyCosts] Refresh check failed: %v", err)
		return
	}
	if !refreshed {
		log.Println("[BabyCosts] Prices are fresh, skipping refresh")
	}
}

// =============================================================================
// REFRESH
// =============================================================================

// NeedsRefresh reports whether any product has no stored price or one
// fetched at least FreshFor ago.
func (r *Refresher) NeedsRefresh(ctx context.Context) (bool, error) {
	prices, err := r.Store.LatestPrices(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load prices: %w", err)
	}
	fetched := make(map[string]time.Time, len(prices))
	for _, p := range prices {
		fetched[p.Category] = p.FetchedAt
	}
	now := r.now()
	for _, p := range products {
		at, ok := fetched[p.Category]
		if !ok || now.Sub(at) >= FreshFor {
			return true, nil
		}
	}
	return false, nil
}

// RefreshIfStale refreshes when NeedsRefresh says so.
func (r *Refresher) RefreshIfStale(ctx context.Context) (bool, error) {
	needed, err := r.NeedsRefresh(ctx)
	if err != nil || !needed {
		return false, err
	}
	return true, r.Refresh(ctx)
}

// Refresh fetches every product and stores the found prices with one shared
// fetch time. Individual fetch failures are logged and skipped. A canceled
// context aborts the refresh before anything is stored.
func (r *Refresher) Refresh(ctx context.Context) error {
	log.Println("[BabyCosts] Starting price refresh...")

	results := make([]ProductPrice, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, p := range products {
		g.Go(func() error {
			price, err := r.Fetcher.FetchPrice(gctx, p)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Printf("[BabyCosts] Price search failed for %q: %v", p.Category, err)
				return nil
			}
			price.Category = p.Category
			results[i] = price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("price refresh aborted: %w", err)
	}

	now := r.now()
	stored := 0
	for _, price := range results {
		if !price.PriceUSD.Valid {
			continue
		}
		stored++
		price.FetchedAt = now
		if err := r.Store.SavePrice(ctx, price); err != nil {
			return fmt.Errorf("failed to save %s price: %w", price.Category, err)
		}
	}

	log.Printf("[BabyCosts] Price refresh complete: %d of %d prices found", stored, len(products))
	return nil
}

func (r *Refresher) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock()
}
