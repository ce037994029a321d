package index

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/segment"
)

// URLTable maps dense document ids to source URLs.
type URLTable struct {
	urls []string
}

func NewURLTable() *URLTable {
	return &URLTable{}
}

// Set records the URL for id, growing the table as needed.
func (t *URLTable) Set(id uint32, url string) {
	if int(id) >= len(t.urls) {
		grown := make([]string, int(id)+1)
		copy(grown, t.urls)
		t.urls = grown
	}
	t.urls[id] = url
}

// Get returns the URL for id and whether the id is in range.
func (t *URLTable) Get(id uint32) (string, bool) {
	if int(id) >= len(t.urls) {
		return "", false
	}
	return t.urls[id], true
}

func (t *URLTable) Len() int { return len(t.urls) }

// Save writes urlCount u64 followed by length-prefixed URLs in id order.
func (t *URLTable) Save(path string) error {
	w, err := segment.Create(path)
	if err != nil {
		return err
	}
	w.Uint64(uint64(len(t.urls)))
	for _, u := range t.urls {
		w.String(u)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("saving url table: %w", err)
	}
	return nil
}

// Load replaces the table with the file at path. On error the table is empty.
func (t *URLTable) Load(path string) error {
	t.urls = nil
	r, err := segment.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	count := r.Uint64()
	if !r.Fits(count, 8) {
		return fmt.Errorf("loading url table: %w", r.Err())
	}
	urls := make([]string, 0, count)
	for i := uint64(0); i < count && r.Err() == nil; i++ {
		urls = append(urls, r.String())
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("loading url table: %w", err)
	}
	t.urls = urls
	return nil
}
