package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore mimics the redis client, including redis.Nil on a miss.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  time.Duration
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttl = ttl
	return nil
}

func (m *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

type identity struct{}

func (identity) Stem(w string) string { return w }

func result(hits int) *executor.Result {
	return &executor.Result{
		Query:     "go",
		Mode:      "ranked",
		TotalHits: hits,
		Results:   []executor.Hit{{Rank: 1, DocID: 4, URL: "http://go", Score: 1.5}},
	}
}

func TestGetOrCompute(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, nil)
	req := executor.Request{Query: "go", Mode: "ranked", Limit: 10}

	calls := 0
	compute := func() (*executor.Result, error) {
		calls++
		return result(1), nil
	}

	got, hit, err := c.GetOrCompute(context.Background(), req, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, result(1), got)

	got, hit, err = c.GetOrCompute(context.Background(), req, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, result(1), got)

	assert.Equal(t, 1, calls)
	assert.Equal(t, time.Minute, store.ttl)
	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestGetOrComputeError(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, nil)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), executor.Request{Query: "x"}, func() (*executor.Result, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.data)
}

func TestGetOrComputeCollapsesConcurrentMisses(t *testing.T) {
	c := New(newMemStore(), time.Minute, nil)
	req := executor.Request{Query: "go"}

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*executor.Result, error) {
		calls.Add(1)
		<-release
		return result(1), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.GetOrCompute(context.Background(), req, compute)
			assert.NoError(t, err)
		}()
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, nil)
	req := executor.Request{Query: "go"}
	store.data[BuildKey(req)] = []byte("{not json")

	_, ok := c.Get(context.Background(), req)
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, nil)
	c.Set(context.Background(), executor.Request{Query: "a"}, result(1))
	c.Set(context.Background(), executor.Request{Query: "b"}, result(2))
	store.data["other"] = []byte("keep")

	n, err := c.Invalidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Len(t, store.data, 1)
}

func TestBuildKey(t *testing.T) {
	base := executor.Request{Query: "cat  & dog", Mode: "boolean", Limit: 10}
	same := executor.Request{Query: " cat &\tdog ", Mode: "boolean", Limit: 10}
	assert.Equal(t, BuildKey(base), BuildKey(same))
	assert.Regexp(t, `^search:[0-9a-f]{32}$`, BuildKey(base))

	for _, other := range []executor.Request{
		{Query: "cat & dog", Mode: "ranked", Limit: 10},
		{Query: "cat & dog", Mode: "boolean", Limit: 5},
		{Query: "cat & dog", Mode: "boolean", Limit: 10, Filter: "x"},
		{Query: "cat | dog", Mode: "boolean", Limit: 10},
		{Query: "Cat & dog", Mode: "boolean", Limit: 10},
	} {
		assert.NotEqual(t, BuildKey(base), BuildKey(other), other)
	}
}

func TestBuildKeyKeepsOperatorSpelling(t *testing.T) {
	union := executor.Request{Query: "кот или пёс", Mode: "boolean", Limit: 10}
	words := executor.Request{Query: "кот Или пёс", Mode: "boolean", Limit: 10}
	assert.NotEqual(t, BuildKey(union), BuildKey(words))

	filtered := executor.Request{Query: "кот", Mode: "hybrid", Filter: "не пёс", Limit: 10}
	wordFilter := executor.Request{Query: "кот", Mode: "hybrid", Filter: "Не пёс", Limit: 10}
	assert.NotEqual(t, BuildKey(filtered), BuildKey(wordFilter))
}

func TestMixedCaseOperatorIsNotServedFromCache(t *testing.T) {
	idx := index.NewBooleanIndex(0)
	idx.AddTerm("кот", 0)
	idx.AddTerm("пёс", 2)
	idx.SetTotalDocs(3)
	exec := executor.New(parser.New(identity{}), nil, config.SearchConfig{},
		executor.WithBooleanIndex(idx), executor.WithDefaultMode("boolean"))
	c := New(newMemStore(), time.Minute, nil)

	ids := func(q string) []uint32 {
		req := executor.Request{Query: q, Mode: "boolean", Limit: 10}
		res, _, err := c.GetOrCompute(context.Background(), req, func() (*executor.Result, error) {
			return exec.Execute(context.Background(), req)
		})
		require.NoError(t, err)
		out := make([]uint32, len(res.Results))
		for i, h := range res.Results {
			out[i] = h.DocID
		}
		return out
	}
	assert.Equal(t, []uint32{0, 2}, ids("кот или пёс"))
	assert.Equal(t, []uint32{2}, ids("кот Или пёс"))
}
