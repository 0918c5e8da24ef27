package results

import (
	"iter"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/fpsim/internal/conv"
)

// Row is a handle to one query row of a SearchResults.
type Row struct {
	r *SearchResults
	i int
}

// Len returns the number of hits.
func (w Row) Len() int { return len(w.r.rows[w.i].indices) }

// QueryID returns the query identifier, or "" when unknown.
func (w Row) QueryID() string {
	if w.r.queryIDs == nil {
		return ""
	}
	return w.r.queryIDs[w.i]
}

// Indices returns a copy of the target slots.
func (w Row) Indices() []int { return slices.Clone(w.r.rows[w.i].indices) }

// Scores returns a copy of the scores.
func (w Row) Scores() []float64 { return slices.Clone(w.r.rows[w.i].scores) }

// IndicesAndScores returns copies of the target slots and scores.
func (w Row) IndicesAndScores() ([]int, []float64) {
	return w.Indices(), w.Scores()
}

// IDs returns the target identifiers of the hits.
func (w Row) IDs() ([]string, error) {
	if w.r.targetIDs == nil {
		return nil, ErrNoTargetIDs
	}
	row := w.r.rows[w.i]
	out := make([]string, len(row.indices))
	for j, idx := range row.indices {
		out[j] = w.r.targetIDs[idx]
	}
	return out, nil
}

// IDsAndScores returns the target identifiers and scores of the hits.
func (w Row) IDsAndScores() ([]string, []float64, error) {
	ids, err := w.IDs()
	if err != nil {
		return nil, nil, err
	}
	return ids, w.Scores(), nil
}

// Hits iterates the hits in the row's current order.
func (w Row) Hits() iter.Seq[Hit] {
	return func(yield func(Hit) bool) {
		row := w.r.rows[w.i]
		for j, idx := range row.indices {
			h := Hit{Index: idx, Score: row.scores[j]}
			if w.r.targetIDs != nil {
				h.ID = w.r.targetIDs[idx]
			}
			if !yield(h) {
				return
			}
		}
	}
}

// Reorder arranges the row's hits.
func (w Row) Reorder(o Order) error {
	if err := w.r.checkOrder(o); err != nil {
		return err
	}
	w.r.reorderRow(w.i, o)
	return nil
}

// Clear empties the row. Other rows are untouched.
func (w Row) Clear() {
	w.r.rows[w.i] = rowData{}
}

// Bitmap returns the target slots as a roaring bitmap.
func (w Row) Bitmap() (*roaring.Bitmap, error) {
	bm := roaring.New()
	for _, idx := range w.r.rows[w.i].indices {
		v, err := conv.IntToUint32(idx)
		if err != nil {
			return nil, err
		}
		bm.Add(v)
	}
	return bm, nil
}
