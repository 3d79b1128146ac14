// Package store implements the fixed-layout, memory-mapped record file the
// cache engine writes back to. Every record is W bytes of decimal text,
// right-padded with spaces, followed by a newline; the file holds exactly
// MaxLines records and never changes size after construction.
//
// The mmap itself is done with the stdlib syscall package: no third-party
// mmap library appears anywhere in the retrieved reference pack (the one
// hit, other_examples/priyanshu360-Hermyx's disk cache, uses the same raw
// syscall.Mmap/Munmap this package does). The durable flush after each
// write uses golang.org/x/sys/unix.Msync — see DESIGN.md.
package store

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/nullpilot/linecache/codec"
	"golang.org/x/sys/unix"
)

// Store is a fixed-size, line-addressed record file mapped into memory.
// Reads take a shared lock; writes take an exclusive lock, matching
// spec.md §4.1's multi-reader/single-writer contract.
type Store[V any] struct {
	mu     sync.RWMutex
	file   *os.File
	data   []byte
	width  int
	codec  codec.Codec[V]
	closed bool
}

// Open creates (or truncates and re-initialises) the backing file to hold
// exactly maxLines records of width bytes each, then memory-maps it
// read/write. The file always has exactly maxLines*(width+1) bytes; byte
// offset(i)+width is always '\n'.
func Open[V any](path string, maxLines, width int, c codec.Codec[V]) (*Store[V], error) {
	if maxLines <= 0 || width <= 0 {
		return nil, fmt.Errorf("store: maxLines and width must be positive")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", path, err)
	}

	size := int64(maxLines) * int64(width+1)
	blank := make([]byte, width+1)
	for i := range blank {
		blank[i] = ' '
	}
	blank[width] = '\n'
	for i := 0; i < maxLines; i++ {
		if _, err := f.Write(blank); err != nil {
			f.Close()
			return nil, fmt.Errorf("store: initialise %s: %w", path, err)
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, fmt.Errorf("store: initialise %s: %w", path, err)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: mmap %s: %w", path, err)
	}

	return &Store[V]{file: f, data: data, width: width, codec: c}, nil
}

// Read decodes the record at line i (1-based). A blank or unparsable field
// decodes to the codec's zero value by convention; per-record parse
// failures are never surfaced.
func (s *Store[V]) Read(i int) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero V
	if s.closed {
		return zero, fmt.Errorf("store: unmapped")
	}
	off, err := s.offset(i)
	if err != nil {
		return zero, err
	}
	field := string(s.data[off : off+s.width])
	return s.codec.Decode(field), nil
}

// Write renders v as decimal text via the codec and writes it into the
// W-byte field at line i, left-aligned. Digits, sign, and decimal point are
// copied verbatim; every other position (including truncated overflow) is
// overwritten with space. The terminating newline is never touched. After
// writing, the mapped region is flushed to disk (best-effort durability;
// spec.md's non-goals exclude fsync-grade crash consistency).
func (s *Store[V]) Write(i int, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store: unmapped")
	}
	off, err := s.offset(i)
	if err != nil {
		return err
	}

	text := s.codec.Encode(v)
	field := s.data[off : off+s.width]
	for j := 0; j < s.width; j++ {
		if j < len(text) && isValueRune(text[j]) {
			field[j] = text[j]
		} else {
			field[j] = ' '
		}
	}

	return unix.Msync(s.data, unix.MS_SYNC)
}

// Size returns the length in bytes of the memory-mapped record file.
func (s *Store[V]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close unmaps the file and closes the descriptor. Calls after the first
// are no-ops that return nil.
func (s *Store[V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	merr := syscall.Munmap(s.data)
	cerr := s.file.Close()
	if merr != nil {
		return merr
	}
	return cerr
}

func (s *Store[V]) offset(i int) (int, error) {
	if i < 1 {
		return 0, fmt.Errorf("store: line %d out of range", i)
	}
	off := (i - 1) * (s.width + 1)
	if off+s.width > len(s.data) {
		return 0, fmt.Errorf("store: line %d out of range", i)
	}
	return off, nil
}

func isValueRune(b byte) bool {
	return (b >= '0' && b <= '9') || b == '-' || b == '.'
}
