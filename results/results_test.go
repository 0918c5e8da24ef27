package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *SearchResults {
	return New(
		[][]int{{3, 0, 2, 1}, {}, {4, 1}},
		[][]float64{{0.5, 0.9, 0.5, 0.7}, {}, {0.2, 0.8}},
		[]string{"d", "b", "a", "c", "e"},
		[]string{"q0", "q1", "q2"},
	)
}

func TestNewAndAccessors(t *testing.T) {
	r := sample()
	require.Equal(t, 3, r.Len())
	assert.Equal(t, 6, r.TotalHits())
	assert.Equal(t, []int{4, 0, 2}, r.Counts())

	row := r.Row(0)
	assert.Equal(t, 4, row.Len())
	assert.Equal(t, "q0", row.QueryID())
	idx, scores := row.IndicesAndScores()
	assert.Equal(t, []int{3, 0, 2, 1}, idx)
	assert.Equal(t, []float64{0.5, 0.9, 0.5, 0.7}, scores)

	ids, scores, err := row.IDsAndScores()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "a", "b"}, ids)
	assert.Equal(t, []float64{0.5, 0.9, 0.5, 0.7}, scores)

	assert.Equal(t, 0, r.Row(1).Len())
	assert.Equal(t, "SearchResults(rows=3, hits=6)", r.String())
}

func TestIDsRequireTargetIDs(t *testing.T) {
	r := New([][]int{{0}}, [][]float64{{1}}, nil, nil)

	_, err := r.Row(0).IDs()
	assert.ErrorIs(t, err, ErrNoTargetIDs)
	_, _, err = r.Row(0).IDsAndScores()
	assert.ErrorIs(t, err, ErrNoTargetIDs)
	assert.ErrorIs(t, r.Reorder(IncreasingID), ErrNoTargetIDs)
	assert.Equal(t, "", r.Row(0).QueryID())
}

func TestReorderModes(t *testing.T) {
	tests := []struct {
		order   Order
		indices []int
		scores  []float64
	}{
		{DecreasingScore, []int{0, 1, 2, 3}, []float64{0.9, 0.7, 0.5, 0.5}},
		{IncreasingScore, []int{2, 3, 1, 0}, []float64{0.5, 0.5, 0.7, 0.9}},
		{IncreasingIndex, []int{0, 1, 2, 3}, []float64{0.9, 0.7, 0.5, 0.5}},
		{DecreasingIndex, []int{3, 2, 1, 0}, []float64{0.5, 0.5, 0.7, 0.9}},
		// ids: 0=d 1=b 2=a 3=c
		{IncreasingID, []int{2, 1, 3, 0}, []float64{0.5, 0.7, 0.5, 0.9}},
		{DecreasingID, []int{0, 3, 1, 2}, []float64{0.9, 0.5, 0.7, 0.5}},
		{MoveClosestFirst, []int{0, 3, 2, 1}, []float64{0.9, 0.5, 0.5, 0.7}},
		{Reverse, []int{1, 2, 0, 3}, []float64{0.7, 0.5, 0.9, 0.5}},
	}

	for _, tc := range tests {
		t.Run(tc.order.String(), func(t *testing.T) {
			r := sample()
			require.NoError(t, r.Row(0).Reorder(tc.order))
			idx, scores := r.Row(0).IndicesAndScores()
			assert.Equal(t, tc.indices, idx)
			assert.Equal(t, tc.scores, scores)

			// Neighbouring rows keep their order.
			assert.Equal(t, []int{4, 1}, r.Row(2).Indices())
		})
	}
}

func TestReorderAll(t *testing.T) {
	r := sample()
	require.NoError(t, r.Reorder(DecreasingScore))
	assert.Equal(t, []int{0, 1, 2, 3}, r.Row(0).Indices())
	assert.Equal(t, []int{1, 4}, r.Row(2).Indices())
}

func TestUnknownOrder(t *testing.T) {
	_, err := ParseOrder("sideways")
	assert.ErrorIs(t, err, ErrUnknownOrder)

	r := sample()
	assert.ErrorIs(t, r.Reorder(Order(42)), ErrUnknownOrder)
	assert.ErrorIs(t, r.Row(0).Reorder(Order(42)), ErrUnknownOrder)
}

func TestParseOrder(t *testing.T) {
	for o := DecreasingScore; o <= Reverse; o++ {
		parsed, err := ParseOrder(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}
	o, err := ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, DecreasingScore, o)
}

func TestClearRow(t *testing.T) {
	r := sample()
	r.Row(0).Clear()
	assert.Equal(t, 0, r.Row(0).Len())
	assert.Equal(t, []int{4, 1}, r.Row(2).Indices())

	offsets, indices, scores := r.CSR()
	assert.Equal(t, []int{0, 0, 0, 2}, offsets)
	assert.Equal(t, []int{4, 1}, indices)
	assert.Equal(t, []float64{0.2, 0.8}, scores)

	r.Clear()
	assert.Equal(t, 0, r.TotalHits())
}

func TestCSRRoundTrip(t *testing.T) {
	offsets, indices, scores := sample().CSR()
	assert.Equal(t, []int{0, 4, 4, 6}, offsets)

	r, err := FromCSR(offsets, indices, scores, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{4, 1}, r.Row(2).Indices())

	_, err = FromCSR([]int{0, 3}, indices, scores, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidCSR)
	_, err = FromCSR([]int{0, 4, 4, 6}, indices, scores, nil, []string{"x"})
	assert.ErrorIs(t, err, ErrInvalidCSR)
}

func TestAllAndHits(t *testing.T) {
	r := sample()
	var rows []int
	var hits []Hit
	for i, h := range r.All() {
		rows = append(rows, i)
		hits = append(hits, h)
	}
	assert.Equal(t, []int{0, 0, 0, 0, 2, 2}, rows)
	assert.Equal(t, Hit{Index: 3, ID: "c", Score: 0.5}, hits[0])
	assert.Equal(t, Hit{Index: 1, ID: "b", Score: 0.8}, hits[5])
}

func TestRowBitmap(t *testing.T) {
	bm, err := sample().Row(0).Bitmap()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 3}, bm.ToArray())
}
