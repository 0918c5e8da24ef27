package arena

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/fpsim/internal/mem"
	"github.com/hupe1980/fpsim/popcount"
)

// ReorderByPopcount returns a copy of a with slots in non-decreasing popcount
// order and a popcount index. Slots with equal popcount keep their relative
// order. An arena that already has an index is returned unchanged.
func ReorderByPopcount(a *Arena) *Arena {
	if a.index != nil {
		return a
	}

	n := a.Len()
	numBits := a.meta.NumBits
	pcs := make([]int, n)

	// counts[p+1] = slots with popcount p; after the prefix sum counts[p] is
	// the first destination slot of popcount p.
	counts := make([]int, numBits+2)
	for i := range n {
		p := popcount.Popcount(a.Fingerprint(i))
		pcs[i] = p
		counts[p+1]++
	}
	for p := 1; p < len(counts); p++ {
		counts[p] += counts[p-1]
	}

	index := make([]int, numBits+2)
	copy(index, counts[:numBits+1])
	index[numBits+1] = n

	sorted := &Arena{
		meta:      a.meta.Clone(),
		alignment: a.alignment,
		stride:    a.stride,
		class:     a.class,
		index:     index,
	}
	if slices.IsSorted(pcs) {
		// Already in order: share the immutable buffers.
		sorted.storage, sorted.ids = a.storage, a.ids
		return sorted
	}

	storage := allocStorage(n, a.stride)
	ids := make([]string, n)
	for i := range n {
		dst := counts[pcs[i]]
		counts[pcs[i]]++
		copy(storage[dst*a.stride:(dst+1)*a.stride], a.Slot(i))
		ids[dst] = a.ids[i]
	}
	sorted.storage, sorted.ids = storage, ids
	return sorted
}

// Copy returns a new arena that owns a copy of the selected slots, in
// increasing slot order. A nil bitmap selects every slot. The copy of a
// popcount-sorted arena stays sorted; reorder sorts an unsorted one.
func (a *Arena) Copy(indices *roaring.Bitmap, reorder bool) (*Arena, error) {
	n := a.Len()
	if indices != nil && !indices.IsEmpty() && int(indices.Maximum()) >= n {
		return nil, fmt.Errorf("%w: slot %d of %d", ErrInvalidRange, indices.Maximum(), n)
	}

	var slots []int
	if indices == nil {
		slots = make([]int, n)
		for i := range slots {
			slots[i] = i
		}
	} else {
		slots = make([]int, 0, indices.GetCardinality())
		it := indices.Iterator()
		for it.HasNext() {
			slots = append(slots, int(it.Next()))
		}
	}

	storage := allocStorage(len(slots), a.stride)
	ids := make([]string, len(slots))
	for dst, src := range slots {
		copy(storage[dst*a.stride:(dst+1)*a.stride], a.Slot(src))
		ids[dst] = a.ids[src]
	}

	c := &Arena{
		meta:      a.meta.Clone(),
		alignment: a.alignment,
		stride:    a.stride,
		class:     a.class,
		storage:   storage,
		ids:       ids,
	}
	if reorder || a.index != nil {
		// The selection keeps slot order, so a sorted source yields a sorted
		// copy and only the index is rebuilt.
		return ReorderByPopcount(c), nil
	}
	return c, nil
}

func allocStorage(n, stride int) []byte {
	if b := mem.AllocAligned(n * stride); b != nil {
		return b
	}
	return []byte{}
}
