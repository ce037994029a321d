package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

const maxLineBytes = 64 << 20

type filePage struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// File reads JSON Lines, one {"url","html"} object per line. Blank lines are
// skipped and do not consume an id.
type File struct {
	f *os.File
}

func NewFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &File{f: f}, nil
}

func (s *File) Each(ctx context.Context, fn func(ingestion.Document) error) error {
	if _, err := s.f.Seek(0, 0); err != nil {
		return fmt.Errorf("rewinding %s: %w", s.f.Name(), err)
	}
	scanner := bufio.NewScanner(s.f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var ids counter
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		var page filePage
		if err := json.Unmarshal(raw, &page); err != nil {
			return fmt.Errorf("%w: %s line %d: %v", apperrors.ErrInvalidInput, s.f.Name(), line, err)
		}
		id, err := ids.take()
		if err != nil {
			return err
		}
		if err := fn(ingestion.Document{ID: id, URL: page.URL, HTML: page.HTML}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", s.f.Name(), err)
	}
	return nil
}

func (s *File) Close() error {
	return s.f.Close()
}
