package search

import (
	"cmp"
	"slices"
)

// hit is a heap entry. seq orders entries with equal scores: among equal
// scores the later insert is the worse one.
type hit struct {
	slot  int
	score float64
	seq   uint64
}

// topK is a bounded min-heap keeping the k best hits. The root is the worst
// kept hit. It does not implement container/heap to avoid interface calls.
type topK struct {
	k     int
	seq   uint64
	items []hit
}

func newTopK(k int) *topK {
	return &topK{k: k, items: make([]hit, 0, min(k, 64))}
}

func (q *topK) reset(k int) {
	q.k = k
	q.seq = 0
	q.items = q.items[:0]
}

func (q *topK) len() int { return len(q.items) }

func (q *topK) full() bool { return len(q.items) >= q.k }

// min returns the score of the worst kept hit. Only valid when len() > 0.
func (q *topK) min() float64 { return q.items[0].score }

// push offers a hit. When full, it replaces the root only if it scores
// strictly higher, so ties never displace earlier hits.
func (q *topK) push(slot int, score float64) {
	if q.k == 0 {
		return
	}
	h := hit{slot: slot, score: score, seq: q.seq}
	q.seq++
	if len(q.items) < q.k {
		q.items = append(q.items, h)
		q.siftUp(len(q.items) - 1)
		return
	}
	if score > q.items[0].score {
		q.items[0] = h
		q.siftDown(0)
	}
}

// merge offers every hit kept by o, in o's insertion order.
func (q *topK) merge(o *topK) {
	items := slices.Clone(o.items)
	slices.SortFunc(items, func(a, b hit) int { return cmp.Compare(a.seq, b.seq) })
	for _, h := range items {
		q.push(h.slot, h.score)
	}
}

// worse reports whether item i ranks below item j.
func (q *topK) worse(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.score != b.score {
		return a.score < b.score
	}
	return a.seq > b.seq
}

func (q *topK) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.worse(i, parent) {
			break
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

func (q *topK) siftDown(i int) {
	n := len(q.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && q.worse(right, left) {
			child = right
		}
		if !q.worse(child, i) {
			break
		}
		q.items[i], q.items[child] = q.items[child], q.items[i]
		i = child
	}
}

// drain returns the kept hits best first and empties the heap.
func (q *topK) drain() ([]int, []float64) {
	slices.SortFunc(q.items, func(a, b hit) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	slots := make([]int, len(q.items))
	scores := make([]float64, len(q.items))
	for i, h := range q.items {
		slots[i] = h.slot
		scores[i] = h.score
	}
	q.items = q.items[:0]
	return slots, scores
}
