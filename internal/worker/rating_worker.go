package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
)

const (
	// Debounce window - collect events for same product within this duration
	debounceWindow = 1 * time.Second

	// Retry configuration
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond

	attemptTimeout = 5 * time.Second
)

// Refresher recomputes the stored rating of one product
type Refresher interface {
	Refresh(ctx context.Context, productID string) error
}

// RatingWorker consumes review events and refreshes product ratings,
// coalescing bursts of events for the same product into one refresh
type RatingWorker struct {
	refresher Refresher
	logger    *logger.Logger

	debounce time.Duration
	backoff  time.Duration

	mu             sync.Mutex
	pendingUpdates map[string]*pendingUpdate
	shutdownCh     chan struct{}
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
}

type pendingUpdate struct {
	productID string
	timestamp time.Time
	timer     *time.Timer
}

// NewRatingWorker creates a new rating worker
func NewRatingWorker(refresher Refresher, log *logger.Logger) *RatingWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &RatingWorker{
		refresher:      refresher,
		logger:         log,
		debounce:       debounceWindow,
		backoff:        initialBackoff,
		pendingUpdates: make(map[string]*pendingUpdate),
		shutdownCh:     make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// HandleEvent decodes a review event and schedules a rating refresh for its
// product. Every event type affects the rating.
func (w *RatingWorker) HandleEvent(_ context.Context, data []byte) error {
	var event domain.ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal review event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.ProductID == "" {
		return fmt.Errorf("%w: event %s has no product id", domain.ErrInvalidInput, event.EventID)
	}

	w.logger.WithFields(map[string]any{
		"event_id":   event.EventID,
		"type":       event.EventType,
		"product_id": event.ProductID,
		"timestamp":  event.Timestamp,
	}).Info("Received review event")

	w.scheduleUpdate(event.ProductID, event.Timestamp)

	return nil
}

// scheduleUpdate arms or re-arms the debounce timer of a product.
// Every armed timer holds one WaitGroup slot, released either by
// processUpdate or by whoever stops the timer before it fires.
func (w *RatingWorker) scheduleUpdate(productID string, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	if existing, found := w.pendingUpdates[productID]; found {
		if timestamp.Before(existing.timestamp) {
			w.logger.WithFields(map[string]any{
				"product_id":  productID,
				"existing_ts": existing.timestamp,
				"event_ts":    timestamp,
			}).Debug("Ignoring stale event")
			return
		}

		if existing.timer.Stop() {
			w.wg.Done()
		}
		w.logger.With("product_id", productID).Debug("Debouncing: resetting timer for product")
	}

	update := &pendingUpdate{
		productID: productID,
		timestamp: timestamp,
	}
	w.wg.Add(1)
	update.timer = time.AfterFunc(w.debounce, func() {
		w.processUpdate(update)
	})
	w.pendingUpdates[productID] = update
}

// processUpdate refreshes the rating with exponential backoff between attempts
func (w *RatingWorker) processUpdate(update *pendingUpdate) {
	defer w.wg.Done()

	productID := update.productID

	w.mu.Lock()
	if w.pendingUpdates[productID] == update {
		delete(w.pendingUpdates, productID)
	}
	w.mu.Unlock()

	w.logger.With("product_id", productID).Info("Processing rating update")

	var lastErr error
	backoff := w.backoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]any{
				"product_id": productID,
				"attempt":    attempt + 1,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying rating update")

			select {
			case <-time.After(backoff):
			case <-w.ctx.Done():
				w.logger.Info("Worker context cancelled, aborting retry")
				return
			}

			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(w.ctx, attemptTimeout)
		err := w.refresher.Refresh(ctx, productID)
		cancel()

		if err == nil {
			return
		}

		lastErr = err
		w.logger.WithFields(map[string]any{
			"product_id": productID,
			"attempt":    attempt + 1,
		}).Error("Failed to update rating", err)
	}

	w.logger.WithFields(map[string]any{
		"product_id":  productID,
		"max_retries": maxRetries,
	}).Error("Rating update failed after all retries", lastErr)
}

// Shutdown stops accepting events, cancels pending timers and waits for
// in-flight refreshes until ctx expires
func (w *RatingWorker) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down rating worker...")

	close(w.shutdownCh)
	w.cancel()

	w.mu.Lock()
	pendingCount := len(w.pendingUpdates)
	for _, update := range w.pendingUpdates {
		if update.timer.Stop() {
			w.wg.Done()
		}
	}
	w.pendingUpdates = make(map[string]*pendingUpdate)
	w.mu.Unlock()

	w.logger.With("cancelled_updates", pendingCount).Info("Cancelled pending updates")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight updates completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// GetPendingCount returns the number of products waiting for a refresh
func (w *RatingWorker) GetPendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pendingUpdates)
}
