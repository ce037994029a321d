package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
)

// Publisher ships a batch of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector buffers events and publishes them in batches from a single
// goroutine. Track never blocks: when the buffer is full the event is
// dropped and counted.
type Collector struct {
	publisher     Publisher
	aggregator    *Aggregator
	eventCh       chan SearchEvent
	batchSize     int
	flushInterval time.Duration
	dropped       atomic.Int64
	onDrop        func()
	logger        *slog.Logger
	done          chan struct{}

	mu     sync.RWMutex
	closed bool
}

type Option func(*Collector)

// WithAggregator records every tracked event in agg as well.
func WithAggregator(agg *Aggregator) Option {
	return func(c *Collector) { c.aggregator = agg }
}

// WithBatching overrides the default batch size and flush interval.
func WithBatching(size int, interval time.Duration) Option {
	return func(c *Collector) {
		if size > 0 {
			c.batchSize = size
		}
		if interval > 0 {
			c.flushInterval = interval
		}
	}
}

// WithDropHook is called for each dropped event, e.g. to bump a metric.
func WithDropHook(fn func()) Option {
	return func(c *Collector) { c.onDrop = fn }
}

// NewCollector creates a collector. publisher may be nil, in which case
// events only reach the aggregator.
func NewCollector(publisher Publisher, bufferSize int, opts ...Option) *Collector {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	c := &Collector{
		publisher:     publisher,
		eventCh:       make(chan SearchEvent, bufferSize),
		batchSize:     100,
		flushInterval: time.Second,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the publishing loop. It must be called once before Close.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"publishing", c.publisher != nil,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 || c.publisher == nil {
			batch = batch[:0]
			return
		}
		if err := c.publisher.PublishBatch(ctx, batch); err != nil {
			c.logger.Error("failed to publish analytics batch", "events", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev, ok := <-c.eventCh:
			if !ok {
				finalCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				flush(finalCtx)
				cancel()
				return
			}
			batch = append(batch, kafka.Event{Key: ev.Mode, Value: ev})
			if len(batch) >= c.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.drain(&batch)
			flush(finalCtx)
			cancel()
			return
		}
	}
}

func (c *Collector) drain(batch *[]kafka.Event) {
	for {
		select {
		case ev, ok := <-c.eventCh:
			if !ok {
				return
			}
			*batch = append(*batch, kafka.Event{Key: ev.Mode, Value: ev})
		default:
			return
		}
	}
}

// Track records an event. Events tracked after Close are dropped.
func (c *Collector) Track(ev SearchEvent) {
	if c.aggregator != nil {
		c.aggregator.Record(ev)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.drop()
		return
	}
	select {
	case c.eventCh <- ev:
	default:
		c.drop()
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

func (c *Collector) drop() {
	c.dropped.Add(1)
	if c.onDrop != nil {
		c.onDrop()
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting events, publishes what is buffered and waits for
// the loop to exit.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}
