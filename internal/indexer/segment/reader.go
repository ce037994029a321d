package segment

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
)

// Reader decodes fields written by Writer. Like Writer it keeps the first
// error; Err reports it once the caller has finished reading.
type Reader struct {
	file      *os.File
	buf       *bufio.Reader
	path      string
	size      int64
	remaining int64
	scratch   [8]byte
	err       error
}

// Open opens path for reading. A missing file yields an error wrapping
// ErrIndexNotFound.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("opening %s: %w", path, apperrors.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &Reader{
		file:      f,
		buf:       bufio.NewReaderSize(f, 64*1024),
		path:      path,
		size:      info.Size(),
		remaining: info.Size(),
	}, nil
}

// Uint64 reads an 8-byte little-endian field.
func (r *Reader) Uint64() uint64 {
	if !r.read(r.scratch[:8]) {
		return 0
	}
	return binary.LittleEndian.Uint64(r.scratch[:8])
}

// Uint32 reads a 4-byte little-endian field.
func (r *Reader) Uint32() uint32 {
	if !r.read(r.scratch[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.scratch[:4])
}

// Raw reads exactly n bytes.
func (r *Reader) Raw(n uint64) []byte {
	if !r.fits(n) {
		return nil
	}
	b := make([]byte, n)
	if !r.read(b) {
		return nil
	}
	return b
}

// String reads an 8-byte length and that many bytes.
func (r *Reader) String() string {
	n := r.Uint64()
	return string(r.Raw(n))
}

// Fits reports whether count items of itemSize bytes could still be read.
// It lets callers reject absurd counts before allocating for them.
func (r *Reader) Fits(count, itemSize uint64) bool {
	if itemSize != 0 && count > uint64(r.remaining)/itemSize {
		r.fail()
		return false
	}
	return r.err == nil
}

func (r *Reader) fits(n uint64) bool {
	if r.err != nil {
		return false
	}
	if n > uint64(r.remaining) {
		r.fail()
		return false
	}
	return true
}

func (r *Reader) read(b []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.buf, b)
	r.remaining -= int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			r.fail()
		} else {
			r.err = fmt.Errorf("reading %s: %w", r.path, err)
		}
		return false
	}
	return true
}

func (r *Reader) fail() {
	if r.err == nil {
		r.err = fmt.Errorf("%s truncated at byte %d: %w", r.path, r.size-r.remaining, apperrors.ErrCorruptIndex)
	}
}

// Err returns the first error encountered while reading.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int64 {
	return r.remaining
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
