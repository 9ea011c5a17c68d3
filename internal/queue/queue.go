// Package queue schedules background metadata refreshes so synchronous
// request paths can return stale-but-available data immediately.
package queue

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultBatchSize  = 5
	defaultDrainDelay = 2 * time.Second
	defaultMaxRetries = 3
)

// Refresher performs one refresh attempt for a show URL.
type Refresher interface {
	RefreshShow(ctx context.Context, url string) error
}

// Item is one pending refresh. At most one item exists per URL.
type Item struct {
	URL      string
	Priority int
	Retries  int
}

// Queue is a priority work queue with a single drain loop. Enqueue is
// safe from any goroutine; only one drain runs at a time.
type Queue struct {
	mu    sync.Mutex
	items []*Item
	index map[string]*Item
	wake  chan struct{}

	draining  atomic.Bool
	refresher Refresher
	log       *slog.Logger

	batchSize  int
	drainDelay time.Duration
	maxRetries int
}

// Option configures a Queue.
type Option func(*Queue)

// WithBatchSize sets how many items one batch attempts concurrently.
func WithBatchSize(n int) Option {
	return func(q *Queue) {
		q.batchSize = n
	}
}

// WithDrainDelay sets the pause between batches. This throttles the
// aggregate refresh rate against the portal.
func WithDrainDelay(d time.Duration) Option {
	return func(q *Queue) {
		q.drainDelay = d
	}
}

// WithMaxRetries sets the per-item retry ceiling.
func WithMaxRetries(n int) Option {
	return func(q *Queue) {
		q.maxRetries = n
	}
}

// New creates a refresh queue. Run must be started for items to drain.
func New(refresher Refresher, log *slog.Logger, opts ...Option) *Queue {
	q := &Queue{
		index:      make(map[string]*Item),
		wake:       make(chan struct{}, 1),
		refresher:  refresher,
		log:        log.With("component", "queue"),
		batchSize:  defaultBatchSize,
		drainDelay: defaultDrainDelay,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds a URL at the given priority. Re-enqueueing a queued URL
// raises its priority to the maximum of old and new, never duplicating
// the entry.
func (q *Queue) Enqueue(url string, priority int) {
	q.mu.Lock()
	if existing, ok := q.index[url]; ok {
		if priority > existing.Priority {
			existing.Priority = priority
			q.sortLocked()
		}
		q.mu.Unlock()
		return
	}

	item := &Item{URL: url, Priority: priority}
	q.index[url] = item
	q.items = append(q.items, item)
	q.sortLocked()
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Run drains the queue whenever items arrive, until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	q.log.Info("refresh queue started", "batch_size", q.batchSize, "drain_delay", q.drainDelay)
	for {
		select {
		case <-ctx.Done():
			q.log.Info("refresh queue stopped")
			return
		case <-q.wake:
			q.drain(ctx)
		}
	}
}

// drain processes batches until the queue empties. Re-entrant calls
// while a drain is running are no-ops.
func (q *Queue) drain(ctx context.Context) {
	if !q.draining.CompareAndSwap(false, true) {
		return
	}
	defer q.draining.Store(false)

	for {
		batch := q.take(q.batchSize)
		if len(batch) == 0 {
			return
		}

		var wg sync.WaitGroup
		for _, item := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q.process(ctx, item)
			}()
		}
		wg.Wait()

		if q.Len() == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(q.drainDelay):
		}
	}
}

// process runs one refresh attempt. Failures increment the item's retry
// counter and requeue it at the tail; an item is dropped only once it has
// exceeded the ceiling, so it gets the initial attempt plus maxRetries
// retries. Refresh is opportunistic, so nothing is surfaced to callers.
func (q *Queue) process(ctx context.Context, item *Item) {
	err := q.refresher.RefreshShow(ctx, item.URL)
	if err == nil {
		refreshSuccesses.Inc()
		q.log.Debug("refresh succeeded", "url", item.URL)
		return
	}

	refreshFailures.Inc()
	item.Retries++
	if item.Retries > q.maxRetries {
		q.log.Warn("refresh dropped after retries", "url", item.URL, "retries", item.Retries, "error", err)
		return
	}

	q.log.Debug("refresh failed, requeued", "url", item.URL, "retries", item.Retries, "error", err)
	q.requeueTail(item)
}

// take removes up to n items from the head of the queue.
func (q *Queue) take(n int) []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.items) {
		n = len(q.items)
	}
	batch := q.items[:n]
	q.items = append([]*Item(nil), q.items[n:]...)
	for _, item := range batch {
		delete(q.index, item.URL)
	}
	return batch
}

// requeueTail puts a failed item back at the very tail, behind items of
// every priority.
func (q *Queue) requeueTail(item *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.index[item.URL]; ok {
		return
	}
	q.index[item.URL] = item
	q.items = append(q.items, item)
}

// sortLocked keeps the queue ordered by descending priority. The sort is
// stable so equal-priority items keep arrival order.
func (q *Queue) sortLocked() {
	sort.SliceStable(q.items, func(a, b int) bool {
		return q.items[a].Priority > q.items[b].Priority
	})
}
