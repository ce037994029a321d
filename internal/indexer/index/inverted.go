// Package index holds the in-memory term dictionaries of the search engine:
// the compressed inverted index used for ranked retrieval, the uncompressed
// boolean index used for set algebra, and the document URL table.
//
// None of the types here lock. An index is built by a single ingestion loop
// and treated as read-only once loaded.
package index

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/hashmap"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/varbyte"
)

// InvertedIndex maps terms to posting lists with term frequencies.
type InvertedIndex struct {
	terms     *hashmap.Map[string, PostingList]
	totalDocs uint64
	buckets   int
}

// NewInvertedIndex creates an empty index. buckets <= 0 selects the default
// initial dictionary size.
func NewInvertedIndex(buckets int) *InvertedIndex {
	return &InvertedIndex{
		terms:   hashmap.NewString[PostingList](buckets),
		buckets: buckets,
	}
}

// AddTerm records one occurrence of term in docID. All occurrences for a
// document must be added before moving on to the next document; otherwise
// the document ends up with several postings for the same term.
func (x *InvertedIndex) AddTerm(term string, docID uint32) {
	pl := x.terms.Get(term)
	if pl == nil {
		x.terms.Insert(term, PostingList{{DocID: docID, TermFrequency: 1}})
		return
	}
	if n := len(*pl); n > 0 && (*pl)[n-1].DocID == docID {
		(*pl)[n-1].TermFrequency++
		return
	}
	*pl = append(*pl, Posting{DocID: docID, TermFrequency: 1})
}

// IncrementDocCount counts one more ingested document.
func (x *InvertedIndex) IncrementDocCount() {
	x.totalDocs++
}

// Postings returns the posting list for term, or nil if the term is unknown.
// The returned slice belongs to the index and must not be modified.
func (x *InvertedIndex) Postings(term string) PostingList {
	pl := x.terms.Get(term)
	if pl == nil {
		return nil
	}
	return *pl
}

// DocIDs returns the ids of the documents containing term.
func (x *InvertedIndex) DocIDs(term string) []uint32 {
	return x.Postings(term).DocIDs()
}

func (x *InvertedIndex) TotalDocs() uint64 { return x.totalDocs }

func (x *InvertedIndex) SetTotalDocs(n uint64) { x.totalDocs = n }

// Len returns the vocabulary size.
func (x *InvertedIndex) Len() int { return x.terms.Len() }

// Save writes the index to path. Doc ids are delta encoded and both the
// delta and frequency streams are var-byte compressed:
//
//	totalDocs u64, termCount u64,
//	{termLen u64, term, deltaLen u64, freqLen u64, deltas, freqs}*
func (x *InvertedIndex) Save(path string) error {
	w, err := segment.Create(path)
	if err != nil {
		return err
	}
	w.Uint64(x.totalDocs)
	w.Uint64(uint64(x.terms.Len()))

	var deltas, freqs []byte
	for term, pl := range x.terms.All() {
		deltas, freqs = encodePostings(pl, deltas[:0], freqs[:0])
		w.String(term)
		w.Uint64(uint64(len(deltas)))
		w.Uint64(uint64(len(freqs)))
		w.Raw(deltas)
		w.Raw(freqs)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("saving inverted index: %w", err)
	}
	return nil
}

func encodePostings(pl PostingList, deltas, freqs []byte) ([]byte, []byte) {
	var prev uint32
	for _, p := range pl {
		deltas = varbyte.Append(deltas, p.DocID-prev)
		freqs = varbyte.Append(freqs, p.TermFrequency)
		prev = p.DocID
	}
	return deltas, freqs
}

// Load replaces the contents of the index with the file at path. On error
// the index is left empty.
func (x *InvertedIndex) Load(path string) error {
	x.terms = hashmap.NewString[PostingList](x.buckets)
	x.totalDocs = 0

	r, err := segment.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	terms := hashmap.NewString[PostingList](x.buckets)
	totalDocs := r.Uint64()
	count := r.Uint64()
	// Smallest possible entry: three length fields.
	if !r.Fits(count, 24) {
		return fmt.Errorf("loading inverted index: %w", r.Err())
	}
	for i := uint64(0); i < count && r.Err() == nil; i++ {
		term := r.String()
		deltaLen := r.Uint64()
		freqLen := r.Uint64()
		deltas := r.Raw(deltaLen)
		freqs := r.Raw(freqLen)
		if r.Err() != nil {
			break
		}
		terms.Insert(term, decodePostings(deltas, freqs))
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("loading inverted index: %w", err)
	}
	x.terms = terms
	x.totalDocs = totalDocs
	return nil
}

// decodePostings walks both streams in lockstep, bounded by the delta block.
func decodePostings(deltas, freqs []byte) PostingList {
	pl := make(PostingList, 0, len(deltas))
	var dp, fp int
	var docID uint32
	for dp < len(deltas) {
		docID += varbyte.Decode(deltas, &dp)
		pl = append(pl, Posting{DocID: docID, TermFrequency: varbyte.Decode(freqs, &fp)})
	}
	return pl
}

// FrequencyStats returns every term with its collection frequency, ranked
// by frequency descending. Ties keep dictionary traversal order.
func (x *InvertedIndex) FrequencyStats() []TermStat {
	stats := make([]TermStat, 0, x.terms.Len())
	for term, pl := range x.terms.All() {
		stats = append(stats, TermStat{Term: term, Frequency: pl.CollectionFrequency()})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Frequency > stats[j].Frequency
	})
	for i := range stats {
		stats[i].Rank = i + 1
	}
	return stats
}

// WriteFrequencyStats writes the ranked term frequencies as CSV with the
// header Rank,Term,Frequency.
func (x *InvertedIndex) WriteFrequencyStats(out io.Writer) error {
	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"Rank", "Term", "Frequency"}); err != nil {
		return err
	}
	for _, s := range x.FrequencyStats() {
		row := []string{strconv.Itoa(s.Rank), s.Term, strconv.FormatUint(s.Frequency, 10)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFrequencyStats writes the frequency CSV to path.
func (x *InvertedIndex) ExportFrequencyStats(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating frequency stats file: %w", err)
	}
	if err := x.WriteFrequencyStats(f); err != nil {
		f.Close()
		return fmt.Errorf("writing frequency stats: %w", err)
	}
	return f.Close()
}

// ExportToBooleanIndex writes the index in the uncompressed boolean layout,
// dropping term frequencies. The result can be read with BooleanIndex.Load.
func (x *InvertedIndex) ExportToBooleanIndex(path string) error {
	w, err := segment.Create(path)
	if err != nil {
		return err
	}
	w.Uint64(x.totalDocs)
	w.Uint64(uint64(x.terms.Len()))
	for term, pl := range x.terms.All() {
		w.String(term)
		w.Uint64(uint64(len(pl)))
		for _, p := range pl {
			w.Uint32(p.DocID)
		}
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("exporting boolean index: %w", err)
	}
	return nil
}

// ToBooleanIndex builds the boolean index in memory.
func (x *InvertedIndex) ToBooleanIndex() *BooleanIndex {
	b := NewBooleanIndex(x.buckets)
	b.totalDocs = x.totalDocs
	for term, pl := range x.terms.All() {
		b.terms.Insert(term, pl.DocIDs())
	}
	return b
}
