package index

// Posting records that a term occurs TermFrequency times in document DocID.
type Posting struct {
	DocID         uint32
	TermFrequency uint32
}

// PostingList is ordered by strictly increasing DocID.
type PostingList []Posting

// DocIDs returns the document ids of the list in order.
func (pl PostingList) DocIDs() []uint32 {
	ids := make([]uint32, len(pl))
	for i, p := range pl {
		ids[i] = p.DocID
	}
	return ids
}

// CollectionFrequency is the sum of the term frequencies in the list.
func (pl PostingList) CollectionFrequency() uint64 {
	var total uint64
	for _, p := range pl {
		total += uint64(p.TermFrequency)
	}
	return total
}

// TermStat is one row of the frequency export.
type TermStat struct {
	Rank      int
	Term      string
	Frequency uint64
}
