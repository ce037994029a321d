// Package hashmap provides a separately chained hash table used for the term
// dictionaries and score accumulators of the search engine.
//
// The table never shrinks and has no delete operation. Buckets double whenever
// inserting a new key would push the load factor above 0.75; every existing
// entry is then reinserted through the regular insert path.
package hashmap

import (
	"hash/maphash"
	"iter"

	"github.com/cespare/xxhash/v2"
)

// DefaultBuckets is the bucket count used when New is given a non-positive size.
const DefaultBuckets = 1009

const maxLoadFactor = 0.75

// Hasher maps a key to a 64-bit hash. Equal keys must hash equally.
type Hasher[K comparable] func(K) uint64

type node[K comparable, V any] struct {
	key   K
	value V
}

// Map is a hash table from K to V. It is not safe for concurrent use.
type Map[K comparable, V any] struct {
	buckets [][]*node[K, V]
	count   int
	hash    Hasher[K]
}

// New creates a Map with the given hasher and initial bucket count.
func New[K comparable, V any](hash Hasher[K], buckets int) *Map[K, V] {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}
	return &Map[K, V]{
		buckets: make([][]*node[K, V], buckets),
		hash:    hash,
	}
}

// NewString creates a Map keyed by strings.
func NewString[V any](buckets int) *Map[string, V] {
	return New[string, V](StringHasher, buckets)
}

// NewUint32 creates a Map keyed by uint32 values such as document ids.
func NewUint32[V any](buckets int) *Map[uint32, V] {
	return New[uint32, V](Uint32Hasher, buckets)
}

// StringHasher hashes strings with xxhash.
func StringHasher(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Uint32Hasher spreads small sequential integers across the 64-bit space
// (splitmix64 finalizer).
func Uint32Hasher(k uint32) uint64 {
	x := uint64(k) + 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// ComparableHasher returns a seeded hasher for any comparable key type.
func ComparableHasher[K comparable]() Hasher[K] {
	seed := maphash.MakeSeed()
	return func(k K) uint64 {
		return maphash.Comparable(seed, k)
	}
}

// Insert stores value under key, replacing the value of an existing entry.
func (m *Map[K, V]) Insert(key K, value V) {
	m.insertNode(&node[K, V]{key: key, value: value})
}

func (m *Map[K, V]) insertNode(n *node[K, V]) {
	idx := m.bucketFor(n.key)
	for _, existing := range m.buckets[idx] {
		if existing.key == n.key {
			existing.value = n.value
			return
		}
	}
	if float64(m.count+1) > maxLoadFactor*float64(len(m.buckets)) {
		m.rehash()
		idx = m.bucketFor(n.key)
	}
	m.buckets[idx] = append(m.buckets[idx], n)
	m.count++
}

// rehash doubles the bucket array and reinserts every node. The nodes
// themselves are reused, so pointers handed out by Get stay valid.
func (m *Map[K, V]) rehash() {
	old := m.buckets
	m.buckets = make([][]*node[K, V], len(old)*2)
	m.count = 0
	for _, chain := range old {
		for _, n := range chain {
			m.insertNode(n)
		}
	}
}

// Get returns a pointer to the value stored under key, or nil when the key
// is absent. The pointer may be used to update the value in place.
func (m *Map[K, V]) Get(key K) *V {
	for _, n := range m.buckets[m.bucketFor(key)] {
		if n.key == key {
			return &n.value
		}
	}
	return nil
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	return m.Get(key) != nil
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return m.count
}

// All yields every entry in bucket order. The order is unspecified but stable
// for an unmodified map.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, chain := range m.buckets {
			for _, n := range chain {
				if !yield(n.key, n.value) {
					return
				}
			}
		}
	}
}

// Clear removes every entry but keeps the current bucket count.
func (m *Map[K, V]) Clear() {
	for i := range m.buckets {
		m.buckets[i] = nil
	}
	m.count = 0
}

func (m *Map[K, V]) bucketFor(key K) int {
	return int(m.hash(key) % uint64(len(m.buckets)))
}
