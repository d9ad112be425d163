package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
)

// countingRefresher records refreshes per product and fails the first
// failures calls
type countingRefresher struct {
	mu       sync.Mutex
	calls    map[string]int
	failures int
}

func newCountingRefresher(failures int) *countingRefresher {
	return &countingRefresher{calls: make(map[string]int), failures: failures}
}

func (r *countingRefresher) Refresh(_ context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[productID]++
	if r.failures > 0 {
		r.failures--
		return errors.New("database unavailable")
	}
	return nil
}

func (r *countingRefresher) count(productID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[productID]
}

func setupTestWorker(refresher Refresher) *RatingWorker {
	w := NewRatingWorker(refresher, logger.New("test"))
	w.debounce = 50 * time.Millisecond
	w.backoff = 5 * time.Millisecond
	return w
}

func eventData(t *testing.T, eventType, productID string, ts time.Time) []byte {
	t.Helper()
	data, err := json.Marshal(domain.ReviewEvent{
		EventID:   "e-" + productID,
		EventType: eventType,
		ProductID: productID,
		Timestamp: ts,
	})
	require.NoError(t, err)
	return data
}

func TestRatingWorker_HandleEvent_Success(t *testing.T) {
	refresher := newCountingRefresher(0)
	worker := setupTestWorker(refresher)

	err := worker.HandleEvent(context.Background(), eventData(t, domain.EventReviewCreated, "7", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 1, worker.GetPendingCount())

	assert.Eventually(t, func() bool { return refresher.count("7") == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, worker.GetPendingCount())
	require.NoError(t, worker.Shutdown(context.Background()))
}

func TestRatingWorker_HandleEvent_InvalidPayload(t *testing.T) {
	worker := setupTestWorker(newCountingRefresher(0))

	err := worker.HandleEvent(context.Background(), []byte(`{invalid json}`))
	assert.ErrorContains(t, err, "unmarshal")

	err = worker.HandleEvent(context.Background(), []byte(`{"event_type":"review.created"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, worker.GetPendingCount())
}

func TestRatingWorker_Debouncing_MultipleEvents(t *testing.T) {
	refresher := newCountingRefresher(0)
	worker := setupTestWorker(refresher)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, worker.HandleEvent(ctx, eventData(t, domain.EventReviewUpdated, "7", now.Add(time.Duration(i)*time.Millisecond))))
	}
	assert.Equal(t, 1, worker.GetPendingCount())

	require.NoError(t, worker.HandleEvent(ctx, eventData(t, domain.EventReviewCreated, "8", now)))
	assert.Equal(t, 2, worker.GetPendingCount())

	require.Eventually(t, func() bool {
		return refresher.count("7") == 1 && refresher.count("8") == 1
	}, time.Second, 10*time.Millisecond)

	// nothing else fires once the window has passed
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, refresher.count("7"))
	require.NoError(t, worker.Shutdown(ctx))
}

func TestRatingWorker_IgnoresStaleEvents(t *testing.T) {
	refresher := newCountingRefresher(0)
	worker := setupTestWorker(refresher)
	worker.debounce = time.Hour
	now := time.Now()

	require.NoError(t, worker.HandleEvent(context.Background(), eventData(t, domain.EventReviewUpdated, "7", now)))
	require.NoError(t, worker.HandleEvent(context.Background(), eventData(t, domain.EventReviewCreated, "7", now.Add(-time.Minute))))

	worker.mu.Lock()
	assert.Equal(t, now.UnixNano(), worker.pendingUpdates["7"].timestamp.UnixNano())
	worker.mu.Unlock()

	require.NoError(t, worker.Shutdown(context.Background()))
}

func TestRatingWorker_RetriesFailedRefresh(t *testing.T) {
	refresher := newCountingRefresher(2)
	worker := setupTestWorker(refresher)

	require.NoError(t, worker.HandleEvent(context.Background(), eventData(t, domain.EventReviewDeleted, "7", time.Now())))

	assert.Eventually(t, func() bool { return refresher.count("7") == maxRetries }, time.Second, 10*time.Millisecond)
	require.NoError(t, worker.Shutdown(context.Background()))
}

func TestRatingWorker_GivesUpAfterMaxRetries(t *testing.T) {
	refresher := newCountingRefresher(10)
	worker := setupTestWorker(refresher)

	require.NoError(t, worker.HandleEvent(context.Background(), eventData(t, domain.EventReviewDeleted, "7", time.Now())))

	require.Eventually(t, func() bool { return refresher.count("7") == maxRetries }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, maxRetries, refresher.count("7"))
	require.NoError(t, worker.Shutdown(context.Background()))
}

func TestRatingWorker_Shutdown_CancelsPendingUpdates(t *testing.T) {
	refresher := newCountingRefresher(0)
	worker := setupTestWorker(refresher)
	worker.debounce = time.Hour

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, worker.HandleEvent(context.Background(), eventData(t, domain.EventReviewCreated, id, time.Now())))
	}
	assert.Equal(t, 3, worker.GetPendingCount())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, worker.Shutdown(ctx))

	assert.Equal(t, 0, worker.GetPendingCount())
	assert.Equal(t, 0, refresher.count("1"))
}

func TestRatingWorker_IgnoresEventsAfterShutdown(t *testing.T) {
	worker := setupTestWorker(newCountingRefresher(0))
	require.NoError(t, worker.Shutdown(context.Background()))

	require.NoError(t, worker.HandleEvent(context.Background(), eventData(t, domain.EventReviewCreated, "7", time.Now())))
	assert.Equal(t, 0, worker.GetPendingCount())
}
