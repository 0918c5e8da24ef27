package search

import (
	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/popcount"
	"github.com/hupe1980/fpsim/tanimoto"
)

// target is a search-time view of a target arena with kernels resolved.
type target struct {
	a       *arena.Arena
	k       popcount.Kernels
	storage []byte
	stride  int
	numBits int
	n       int

	index []int // popcount index, nil on the slow path
	pcs   []int // per-slot popcounts, slow path only
}

func (s *Searcher) target(a *arena.Arena) *target {
	t := &target{
		a:       a,
		k:       s.pc.Kernels(a.Class()),
		storage: a.Storage(),
		stride:  a.Stride(),
		numBits: a.NumBits(),
		n:       a.Len(),
		index:   a.PopcountIndex(),
	}
	if t.index == nil {
		t.pcs = make([]int, t.n)
		for i := range t.pcs {
			t.pcs[i] = t.k.Popcount(t.slot(i))
		}
	}
	return t
}

func (t *target) slot(i int) []byte {
	off := i * t.stride
	return t.storage[off : off+t.stride : off+t.stride]
}

// load copies a query fingerprint into a stride-length scratch buffer so the
// kernels see the same length for both operands, and returns its popcount.
func (t *target) load(scratch, fp []byte) int {
	n := copy(scratch, fp)
	clear(scratch[n:])
	return t.k.Popcount(scratch)
}

func (t *target) scratch() []byte {
	return make([]byte, t.stride)
}

// buckets calls fn for each popcount bucket that can reach threshold against
// a query of popcount q, with the bucket's popcount and slot range. On the
// slow path fn is called once with p < 0 for the whole arena.
func (t *target) buckets(q int, threshold float64, fn func(p, lo, hi int)) {
	if t.index == nil {
		fn(-1, 0, t.n)
		return
	}
	lo, hi, ok := tanimoto.Window(q, t.numBits, threshold)
	if !ok {
		return
	}
	for p := lo; p <= hi; p++ {
		if start, end := t.index[p], t.index[p+1]; start < end {
			fn(p, start, end)
		}
	}
}

// popcountOf returns the popcount of slot i, given its bucket popcount p
// (p < 0 on the slow path).
func (t *target) popcountOf(i, p int) int {
	if p >= 0 {
		return p
	}
	return t.pcs[i]
}

// hit reports whether slot j, of popcount bucket p, reaches threshold.
func (t *target) hit(query []byte, q, j, p int, threshold float64) bool {
	c := t.k.Intersect(query, t.slot(j))
	return tanimoto.Score(c, q, t.popcountOf(j, p)) >= threshold
}
