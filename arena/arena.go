package arena

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"

	"github.com/hupe1980/fpsim/metadata"
	"github.com/hupe1980/fpsim/popcount"
)

// Record is one (id, fingerprint) pair.
type Record struct {
	ID          string
	Fingerprint []byte
}

// Arena is a fixed-stride columnar collection of fingerprints.
//
// An Arena is read-only after construction and safe for concurrent use.
type Arena struct {
	meta      metadata.Metadata
	alignment int
	stride    int
	class     popcount.AlignmentClass

	storage []byte   // len(ids) * stride bytes
	ids     []string // one per slot
	index   []int    // popcount index, nil when unsorted

	parent *Arena // set for views created by Slice
	start  int    // first slot in parent

	closer io.Closer

	idOnce sync.Once
	idMap  map[string]int
}

// Len returns the number of fingerprints.
func (a *Arena) Len() int { return len(a.ids) }

// Metadata returns the arena's metadata.
func (a *Arena) Metadata() metadata.Metadata { return a.meta.Clone() }

// NumBytes returns the fingerprint size in bytes.
func (a *Arena) NumBytes() int { return a.meta.NumBytes }

// NumBits returns the fingerprint size in bits.
func (a *Arena) NumBits() int { return a.meta.NumBits }

// Alignment returns the slot alignment in bytes.
func (a *Arena) Alignment() int { return a.alignment }

// Stride returns the slot size in bytes.
func (a *Arena) Stride() int { return a.stride }

// Class returns the alignment class of the arena's storage.
func (a *Arena) Class() popcount.AlignmentClass { return a.class }

// Storage returns the raw slot buffer. It must not be modified.
func (a *Arena) Storage() []byte { return a.storage }

// Slot returns the full stride-length slot i, padding included.
func (a *Arena) Slot(i int) []byte {
	off := i * a.stride
	return a.storage[off : off+a.stride : off+a.stride]
}

// Fingerprint returns a view of fingerprint i without padding.
func (a *Arena) Fingerprint(i int) []byte {
	off := i * a.stride
	end := off + a.meta.NumBytes
	return a.storage[off:end:end]
}

// ID returns the identifier of slot i.
func (a *Arena) ID(i int) string { return a.ids[i] }

// IDs returns the identifiers in slot order. The slice must not be modified.
func (a *Arena) IDs() []string { return a.ids }

// Popcount returns the number of set bits of fingerprint i.
func (a *Arena) Popcount(i int) int {
	return popcount.Popcount(a.Fingerprint(i))
}

// HasPopcountIndex reports whether the arena is popcount-sorted.
func (a *Arena) HasPopcountIndex() bool { return a.index != nil }

// PopcountIndex returns the popcount index, or nil. Slots
// [index[p], index[p+1]) hold exactly the fingerprints with popcount p, and
// index[NumBits()+1] == Len(). The slice must not be modified.
func (a *Arena) PopcountIndex() []int { return a.index }

// Parent returns the arena a view was sliced from, or nil.
func (a *Arena) Parent() *Arena { return a.parent }

// Start returns the first slot of a view within its parent.
func (a *Arena) Start() int { return a.start }

// IndexOf returns the first slot with the given id.
func (a *Arena) IndexOf(id string) (int, bool) {
	a.idOnce.Do(func() {
		a.idMap = make(map[string]int, len(a.ids))
		for i, s := range a.ids {
			if _, ok := a.idMap[s]; !ok {
				a.idMap[s] = i
			}
		}
	})
	i, ok := a.idMap[id]
	return i, ok
}

// Records iterates the arena's (id, fingerprint) pairs in slot order. The
// fingerprints are views into the arena.
func (a *Arena) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for i := range a.ids {
			if !yield(Record{ID: a.ids[i], Fingerprint: a.Fingerprint(i)}, nil) {
				return
			}
		}
	}
}

// Close releases the memory mapping behind an arena opened from a file.
// Views must not be used after their parent is closed. Closing a view or an
// in-memory arena is a no-op.
func (a *Arena) Close() error {
	if a.parent != nil || a.closer == nil {
		return nil
	}
	c := a.closer
	a.closer = nil
	return c.Close()
}

// Slice returns a zero-copy view of slots [start, end). The view shares
// storage with a and carries a rebased popcount index.
func (a *Arena) Slice(start, end int) (*Arena, error) {
	if start < 0 || end > a.Len() || start > end {
		return nil, ErrInvalidRange
	}

	root, base := a, 0
	if a.parent != nil {
		root, base = a.parent, a.start
	}

	v := &Arena{
		meta:      a.meta,
		alignment: a.alignment,
		stride:    a.stride,
		class:     a.class,
		storage:   a.storage[start*a.stride : end*a.stride : end*a.stride],
		ids:       a.ids[start:end:end],
		parent:    root,
		start:     base + start,
	}
	if a.index != nil {
		v.index = make([]int, len(a.index))
		for p, off := range a.index {
			v.index[p] = min(max(off, start), end) - start
		}
	}
	return v, nil
}

// Verify checks every slot in one pass: bytes beyond num_bytes and bits
// beyond num_bits must be zero, and with a popcount index each slot must lie
// in the bucket of its own popcount.
func (a *Arena) Verify() error {
	nb := a.meta.NumBytes
	var padMask byte
	if r := a.meta.NumBits % 8; r != 0 {
		padMask = ^byte(0) << r
	}

	p := 0
	for i := range a.Len() {
		off := i * a.stride
		slot := a.storage[off : off+a.stride]
		if slices.ContainsFunc(slot[nb:], func(b byte) bool { return b != 0 }) {
			return fmt.Errorf("%w: slot %d has bytes set beyond num_bytes", ErrInvalidLayout, i)
		}
		if nb > 0 && slot[nb-1]&padMask != 0 {
			return fmt.Errorf("%w: slot %d", ErrPaddingBits, i)
		}
		if a.index == nil {
			continue
		}
		for a.index[p+1] <= i {
			p++
		}
		if c := popcount.Popcount(slot[:nb]); c != p {
			return fmt.Errorf("%w: slot %d has popcount %d but lies in bucket %d", ErrInvalidLayout, i, c, p)
		}
	}
	return nil
}

// FromStorage assembles an arena around existing buffers, for example a
// memory-mapped file. storage must hold len(ids) slots of stride bytes and
// index, when not nil, must be a valid popcount index for it. Only the shape
// of the index is checked here; Verify checks the slots against it. closer,
// when not nil, is closed by Close.
func FromStorage(meta metadata.Metadata, alignment int, storage []byte, ids []string, index []int, closer io.Closer) (*Arena, error) {
	meta = meta.Normalize()
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateAlignment(alignment); err != nil {
		return nil, err
	}
	stride := strideFor(meta.NumBytes, alignment)
	if len(storage) != len(ids)*stride {
		return nil, ErrInvalidLayout
	}
	if index != nil {
		if len(index) != meta.NumBits+2 || index[0] != 0 || index[len(index)-1] != len(ids) || !slices.IsSorted(index) {
			return nil, ErrInvalidLayout
		}
	}
	return &Arena{
		meta:      meta,
		alignment: alignment,
		stride:    stride,
		class:     popcount.ClassOf(alignment, stride),
		storage:   storage,
		ids:       ids,
		index:     index,
		closer:    closer,
	}, nil
}
