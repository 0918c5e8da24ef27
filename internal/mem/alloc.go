package mem

import (
	"unsafe"
)

// Alignment is the byte alignment of every buffer returned by this package.
const Alignment = 64

// AllocAligned allocates a zeroed byte slice of the given size with 64-byte
// alignment. It returns nil for size <= 0.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	offset := int((Alignment - (addr & (Alignment - 1))) & (Alignment - 1))

	return buf[offset : offset+size : offset+size]
}

// IsAligned reports whether b starts on a 64-byte boundary.
func IsAligned(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))%Alignment == 0 //nolint:gosec // address inspection only
}

// Slots is an append-only buffer of fixed-stride slots.
//
// Each appended value is copied to the start of a fresh slot; the rest of
// the slot stays zero. The buffer grows by doubling and stays aligned.
type Slots struct {
	stride int
	n      int
	buf    []byte
}

// NewSlots returns an empty slot buffer with room for capacity slots.
func NewSlots(stride, capacity int) *Slots {
	s := &Slots{stride: stride}
	if capacity > 0 && stride > 0 {
		s.buf = AllocAligned(stride * capacity)
	}
	return s
}

// Append copies v into a new slot. len(v) must not exceed the stride.
func (s *Slots) Append(v []byte) {
	need := (s.n + 1) * s.stride
	if need > len(s.buf) {
		s.grow(need)
	}
	copy(s.buf[s.n*s.stride:need], v)
	s.n++
}

func (s *Slots) grow(need int) {
	size := max(2*len(s.buf), need, 16*s.stride)
	next := AllocAligned(size)
	copy(next, s.buf[:s.n*s.stride])
	s.buf = next
}

// Len returns the number of slots.
func (s *Slots) Len() int { return s.n }

// Bytes returns the used part of the buffer. The slice aliases the buffer
// until the next Append.
func (s *Slots) Bytes() []byte {
	if s.buf == nil {
		return nil
	}
	end := s.n * s.stride
	return s.buf[:end:end]
}
