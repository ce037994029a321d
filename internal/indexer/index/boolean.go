package index

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/hashmap"
)

// BooleanIndex maps terms to sorted, unique document id sets.
type BooleanIndex struct {
	terms     *hashmap.Map[string, []uint32]
	totalDocs uint64
	buckets   int
}

func NewBooleanIndex(buckets int) *BooleanIndex {
	return &BooleanIndex{
		terms:   hashmap.NewString[[]uint32](buckets),
		buckets: buckets,
	}
}

// AddTerm appends docID to the term's set unless it equals the last id
// appended. Ids must arrive grouped by document in ascending order.
func (b *BooleanIndex) AddTerm(term string, docID uint32) {
	ids := b.terms.Get(term)
	if ids == nil {
		b.terms.Insert(term, []uint32{docID})
		return
	}
	if n := len(*ids); n > 0 && (*ids)[n-1] == docID {
		return
	}
	*ids = append(*ids, docID)
}

// DocIDs returns the sorted ids of the documents containing term, or nil.
func (b *BooleanIndex) DocIDs(term string) []uint32 {
	ids := b.terms.Get(term)
	if ids == nil {
		return nil
	}
	return *ids
}

func (b *BooleanIndex) TotalDocs() uint64 { return b.totalDocs }

func (b *BooleanIndex) SetTotalDocs(n uint64) { b.totalDocs = n }

func (b *BooleanIndex) Len() int { return b.terms.Len() }

// Save writes the uncompressed layout:
//
//	totalDocs u64, termCount u64, {termLen u64, term, docCount u64, docID u32*}*
func (b *BooleanIndex) Save(path string) error {
	w, err := segment.Create(path)
	if err != nil {
		return err
	}
	w.Uint64(b.totalDocs)
	w.Uint64(uint64(b.terms.Len()))
	for term, ids := range b.terms.All() {
		w.String(term)
		w.Uint64(uint64(len(ids)))
		for _, id := range ids {
			w.Uint32(id)
		}
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("saving boolean index: %w", err)
	}
	return nil
}

// Load replaces the contents of the index with the file at path. On error
// the index is left empty.
func (b *BooleanIndex) Load(path string) error {
	b.terms = hashmap.NewString[[]uint32](b.buckets)
	b.totalDocs = 0

	r, err := segment.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	terms := hashmap.NewString[[]uint32](b.buckets)
	totalDocs := r.Uint64()
	count := r.Uint64()
	if !r.Fits(count, 16) {
		return fmt.Errorf("loading boolean index: %w", r.Err())
	}
	for i := uint64(0); i < count && r.Err() == nil; i++ {
		term := r.String()
		n := r.Uint64()
		if !r.Fits(n, 4) {
			break
		}
		ids := make([]uint32, n)
		for j := range ids {
			ids[j] = r.Uint32()
		}
		if r.Err() != nil {
			break
		}
		terms.Insert(term, ids)
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("loading boolean index: %w", err)
	}
	b.terms = terms
	b.totalDocs = totalDocs
	return nil
}
