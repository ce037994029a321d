package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
}

func (p *recordingPublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, append([]kafka.Event(nil), events...))
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func TestCollectorPublishesInBatches(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 100, WithBatching(2, time.Hour))
	c.Start(context.Background())

	for i := 0; i < 5; i++ {
		c.Track(SearchEvent{Mode: "ranked", Query: "q"})
	}
	c.Close()

	assert.Equal(t, 5, pub.count())
	require.NotEmpty(t, pub.batches)
	assert.Len(t, pub.batches[0], 2)
	assert.Equal(t, "ranked", pub.batches[0][0].Key)
}

func TestCollectorFlushesOnInterval(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewCollector(pub, 10, WithBatching(100, 10*time.Millisecond))
	c.Start(context.Background())
	defer c.Close()

	c.Track(SearchEvent{Mode: "boolean", Query: "a"})
	assert.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCollectorDropsWhenFull(t *testing.T) {
	drops := 0
	c := NewCollector(nil, 1, WithDropHook(func() { drops++ }))
	// Not started: the buffer fills after one event.
	c.Track(SearchEvent{Query: "a"})
	c.Track(SearchEvent{Query: "b"})
	c.Track(SearchEvent{Query: "c"})
	assert.Equal(t, int64(2), c.Dropped())
	assert.Equal(t, 2, drops)
}

func TestCollectorFeedsAggregator(t *testing.T) {
	agg := NewAggregator()
	c := NewCollector(nil, 10, WithAggregator(agg))
	c.Start(context.Background())
	c.Track(SearchEvent{Mode: "ranked", Query: "go", TotalHits: 3})
	c.Track(SearchEvent{Mode: "boolean", Query: "rust", TotalHits: 0, CacheHit: true})
	c.Close()

	s := agg.Stats()
	assert.Equal(t, int64(2), s.TotalSearches)
	assert.Equal(t, int64(1), s.SearchesByMode["ranked"])
	assert.Equal(t, int64(1), s.CacheHits)
	assert.Equal(t, int64(1), s.ZeroResultCount)
	assert.Equal(t, []QueryCount{{Query: "rust", Count: 1}}, s.ZeroResultQueries)
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator()
	for i := 1; i <= 100; i++ {
		agg.Record(SearchEvent{Mode: "ranked", Query: "popular", LatencyMs: int64(i), TotalHits: 1})
	}
	agg.Record(SearchEvent{Mode: "ranked", Query: "rare", LatencyMs: 1, TotalHits: 1})

	s := agg.Stats()
	assert.Equal(t, int64(101), s.TotalSearches)
	assert.Equal(t, int64(51), s.P50LatencyMs)
	assert.Equal(t, int64(100), s.P99LatencyMs)
	assert.Equal(t, QueryCount{Query: "popular", Count: 100}, s.TopQueries[0])
	assert.Len(t, s.TopQueries, 2)
}

func TestAggregatorBoundsLatencySamples(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < maxLatencySamples+10; i++ {
		agg.Record(SearchEvent{LatencyMs: 1})
	}
	assert.Len(t, agg.latencies, maxLatencySamples)
}

func TestTrackAfterCloseIsDropped(t *testing.T) {
	c := NewCollector(nil, 10)
	c.Start(context.Background())
	c.Close()
	c.Track(SearchEvent{Query: "late"})
	assert.Equal(t, int64(1), c.Dropped())
}
