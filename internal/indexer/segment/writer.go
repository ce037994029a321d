// Package segment provides the binary framing shared by every index file:
// little-endian fixed-width fields, length-prefixed byte strings and an
// atomic tmp-file-then-rename commit.
//
// All length and count fields are 8 bytes wide; document ids are 4 bytes.
package segment

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// Writer streams fields into <path>.tmp. Errors are sticky: after the first
// failure every call is a no-op and Commit reports the error.
type Writer struct {
	file    *os.File
	buf     *bufio.Writer
	path    string
	tmpPath string
	scratch [8]byte
	written int64
	err     error
}

// Create opens a temporary file next to path, creating parent directories.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("creating temp file %s: %w", tmpPath, err)
	}
	return &Writer{
		file:    f,
		buf:     bufio.NewWriterSize(f, 64*1024),
		path:    path,
		tmpPath: tmpPath,
	}, nil
}

// Uint64 writes an 8-byte little-endian field.
func (w *Writer) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.scratch[:], v)
	w.write(w.scratch[:8])
}

// Uint32 writes a 4-byte little-endian field.
func (w *Writer) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.scratch[:4], v)
	w.write(w.scratch[:4])
}

// Raw writes b without a length prefix.
func (w *Writer) Raw(b []byte) {
	w.write(b)
}

// String writes an 8-byte length followed by the bytes of s.
func (w *Writer) String(s string) {
	w.Uint64(uint64(len(s)))
	if w.err != nil {
		return
	}
	n, err := w.buf.WriteString(s)
	w.written += int64(n)
	w.err = err
}

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.buf.Write(b)
	w.written += int64(n)
	w.err = err
}

// Size returns the number of bytes written so far.
func (w *Writer) Size() int64 {
	return w.written
}

// Commit flushes and syncs the temporary file, then renames it over the
// destination. On failure the temporary file is removed.
func (w *Writer) Commit() error {
	if w.err == nil {
		w.err = w.buf.Flush()
	}
	if w.err == nil {
		w.err = w.file.Sync()
	}
	closeErr := w.file.Close()
	if w.err == nil {
		w.err = closeErr
	}
	if w.err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("writing %s: %w", w.path, w.err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("renaming %s: %w", w.tmpPath, err)
	}
	return nil
}

// Abort discards the temporary file. Safe to call after Commit.
func (w *Writer) Abort() {
	w.file.Close()
	os.Remove(w.tmpPath)
}
