package results

import (
	"fmt"
	"iter"
	"slices"
	"sort"
)

// Hit is one matched target.
type Hit struct {
	Index int     // target slot
	ID    string  // target id, empty when ids are unavailable
	Score float64 // Tanimoto score in [0, 1]
}

// rowData points into the shared arrays until the row is cleared.
type rowData struct {
	indices []int
	scores  []float64
}

// SearchResults holds the hits of every query row.
//
// Rows are stored back-to-back in shared index and score arrays. Every row
// owns the region [offsets[i], offsets[i+1]) and sorts in place within it;
// Clear detaches a row without touching its neighbours.
//
// Rows may be mutated by one goroutine at a time. Concurrent reads are safe.
type SearchResults struct {
	rows      []rowData
	targetIDs []string
	queryIDs  []string
}

// New packs per-row hits into a SearchResults. indices[i] and scores[i] must
// have equal length. targetIDs and queryIDs are optional.
func New(indices [][]int, scores [][]float64, targetIDs, queryIDs []string) *SearchResults {
	total := 0
	for _, row := range indices {
		total += len(row)
	}
	flatIdx := make([]int, 0, total)
	flatScores := make([]float64, 0, total)

	r := &SearchResults{
		rows:      make([]rowData, len(indices)),
		targetIDs: targetIDs,
		queryIDs:  queryIDs,
	}
	for i := range indices {
		lo := len(flatIdx)
		flatIdx = append(flatIdx, indices[i]...)
		flatScores = append(flatScores, scores[i][:len(indices[i])]...)
		hi := len(flatIdx)
		r.rows[i] = rowData{indices: flatIdx[lo:hi:hi], scores: flatScores[lo:hi:hi]}
	}
	return r
}

// FromCSR wraps existing CSR arrays without copying them. offsets must have
// one entry per row plus one, start at 0, be non-decreasing and end at
// len(indices) == len(scores).
func FromCSR(offsets []int, indices []int, scores []float64, targetIDs, queryIDs []string) (*SearchResults, error) {
	if len(offsets) == 0 || offsets[0] != 0 || len(indices) != len(scores) ||
		offsets[len(offsets)-1] != len(indices) || !slices.IsSorted(offsets) {
		return nil, ErrInvalidCSR
	}
	if queryIDs != nil && len(queryIDs) != len(offsets)-1 {
		return nil, fmt.Errorf("%w: %d query ids for %d rows", ErrInvalidCSR, len(queryIDs), len(offsets)-1)
	}
	r := &SearchResults{
		rows:      make([]rowData, len(offsets)-1),
		targetIDs: targetIDs,
		queryIDs:  queryIDs,
	}
	for i := range r.rows {
		lo, hi := offsets[i], offsets[i+1]
		r.rows[i] = rowData{indices: indices[lo:hi:hi], scores: scores[lo:hi:hi]}
	}
	return r, nil
}

// Len returns the number of query rows.
func (r *SearchResults) Len() int { return len(r.rows) }

// Row returns a handle for row i.
func (r *SearchResults) Row(i int) Row { return Row{r: r, i: i} }

// Rows iterates the row handles.
func (r *SearchResults) Rows() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i := range r.rows {
			if !yield(i, Row{r: r, i: i}) {
				return
			}
		}
	}
}

// All iterates every hit as (row, hit) in row order.
func (r *SearchResults) All() iter.Seq2[int, Hit] {
	return func(yield func(int, Hit) bool) {
		for i := range r.rows {
			for h := range r.Row(i).Hits() {
				if !yield(i, h) {
					return
				}
			}
		}
	}
}

// TotalHits returns the number of hits over all rows.
func (r *SearchResults) TotalHits() int {
	n := 0
	for _, row := range r.rows {
		n += len(row.indices)
	}
	return n
}

// Counts returns the number of hits of every row.
func (r *SearchResults) Counts() []int {
	out := make([]int, len(r.rows))
	for i, row := range r.rows {
		out[i] = len(row.indices)
	}
	return out
}

// TargetIDs returns the target identifiers, or nil.
func (r *SearchResults) TargetIDs() []string { return r.targetIDs }

// QueryIDs returns the query identifiers, or nil.
func (r *SearchResults) QueryIDs() []string { return r.queryIDs }

// Reorder arranges every row.
func (r *SearchResults) Reorder(o Order) error {
	if err := r.checkOrder(o); err != nil {
		return err
	}
	for i := range r.rows {
		r.reorderRow(i, o)
	}
	return nil
}

// Clear empties every row.
func (r *SearchResults) Clear() {
	for i := range r.rows {
		r.rows[i] = rowData{}
	}
}

// CSR returns compacted offsets, indices and scores reflecting the current
// row contents and order.
func (r *SearchResults) CSR() (offsets []int, indices []int, scores []float64) {
	total := r.TotalHits()
	offsets = make([]int, len(r.rows)+1)
	indices = make([]int, 0, total)
	scores = make([]float64, 0, total)
	for i, row := range r.rows {
		indices = append(indices, row.indices...)
		scores = append(scores, row.scores...)
		offsets[i+1] = len(indices)
	}
	return offsets, indices, scores
}

func (r *SearchResults) String() string {
	return fmt.Sprintf("SearchResults(rows=%d, hits=%d)", len(r.rows), r.TotalHits())
}

func (r *SearchResults) checkOrder(o Order) error {
	if int(o) >= len(orderNames) {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, o)
	}
	if o.needsIDs() && r.targetIDs == nil {
		return ErrNoTargetIDs
	}
	return nil
}

func (r *SearchResults) reorderRow(i int, o Order) {
	row := r.rows[i]
	n := len(row.indices)
	if n < 2 {
		return
	}
	switch o {
	case MoveClosestFirst:
		best := 0
		for j := 1; j < n; j++ {
			if row.scores[j] > row.scores[best] {
				best = j
			}
		}
		if best > 0 {
			idx, sc := row.indices[best], row.scores[best]
			copy(row.indices[1:best+1], row.indices[:best])
			copy(row.scores[1:best+1], row.scores[:best])
			row.indices[0], row.scores[0] = idx, sc
		}
	case Reverse:
		slices.Reverse(row.indices)
		slices.Reverse(row.scores)
	default:
		sort.Sort(&rowSorter{row: row, ids: r.targetIDs, less: lessFor(o)})
	}
}

type rowSorter struct {
	row  rowData
	ids  []string
	less func(s *rowSorter, a, b int) bool
}

func (s *rowSorter) Len() int           { return len(s.row.indices) }
func (s *rowSorter) Less(a, b int) bool { return s.less(s, a, b) }
func (s *rowSorter) Swap(a, b int) {
	s.row.indices[a], s.row.indices[b] = s.row.indices[b], s.row.indices[a]
	s.row.scores[a], s.row.scores[b] = s.row.scores[b], s.row.scores[a]
}

// lessFor returns a strict total order, so sort.Sort is deterministic.
func lessFor(o Order) func(s *rowSorter, a, b int) bool {
	switch o {
	case IncreasingScore:
		return func(s *rowSorter, a, b int) bool {
			sa, sb := s.row.scores[a], s.row.scores[b]
			if sa != sb {
				return sa < sb
			}
			return s.row.indices[a] < s.row.indices[b]
		}
	case IncreasingIndex:
		return func(s *rowSorter, a, b int) bool {
			return s.row.indices[a] < s.row.indices[b]
		}
	case DecreasingIndex:
		return func(s *rowSorter, a, b int) bool {
			return s.row.indices[a] > s.row.indices[b]
		}
	case IncreasingID:
		return func(s *rowSorter, a, b int) bool {
			ia, ib := s.ids[s.row.indices[a]], s.ids[s.row.indices[b]]
			if ia != ib {
				return ia < ib
			}
			return s.row.indices[a] < s.row.indices[b]
		}
	case DecreasingID:
		return func(s *rowSorter, a, b int) bool {
			ia, ib := s.ids[s.row.indices[a]], s.ids[s.row.indices[b]]
			if ia != ib {
				return ia > ib
			}
			return s.row.indices[a] < s.row.indices[b]
		}
	default:
		return func(s *rowSorter, a, b int) bool {
			sa, sb := s.row.scores[a], s.row.scores[b]
			if sa != sb {
				return sa > sb
			}
			return s.row.indices[a] < s.row.indices[b]
		}
	}
}
