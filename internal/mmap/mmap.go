package mmap

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
)

// Advice is an access pattern hint for a mapped range.
type Advice int

const (
	AdviceNormal Advice = iota
	AdviceSequential
	AdviceRandom
	AdviceWillNeed
)

var (
	// ErrClosed is returned for operations on a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrRange is returned for a range outside the mapping.
	ErrRange = errors.New("mmap: range out of bounds")
)

// Mapping is a read-only memory-mapped file.
type Mapping struct {
	data   []byte
	closed atomic.Bool
}

// Open maps the file at path. An empty file yields an empty mapping.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return &Mapping{}, nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("mmap: %s: size %d does not fit in memory", path, size)
	}

	data, err := osMap(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap: %s: %w", path, err)
	}
	return &Mapping{data: data}, nil
}

// Bytes returns the mapped file, or nil after Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Len returns the size of the mapping in bytes.
func (m *Mapping) Len() int { return len(m.data) }

// Advise applies a hint to the whole mapping.
func (m *Mapping) Advise(a Advice) error {
	return m.AdviseRange(0, len(m.data), a)
}

// AdviseRange applies a hint to data[off:off+n]. The range is widened to
// page boundaries.
func (m *Mapping) AdviseRange(off, n int, a Advice) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if off < 0 || n < 0 || off+n > len(m.data) {
		return ErrRange
	}
	if n == 0 {
		return nil
	}
	start := off &^ (os.Getpagesize() - 1)
	return osAdvise(m.data[start:off+n], a)
}

// Close unmaps the file. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.data == nil {
		return nil
	}
	return osUnmap(m.data)
}
