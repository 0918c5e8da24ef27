//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	for _, v := range []int{0, 123, math.MaxInt32, math.MaxUint32} {
		got, err := IntToUint32(v)
		require.NoError(t, err)
		assert.Equal(t, uint64(v), uint64(got))
	}
	for _, v := range []int{-1, math.MaxUint32 + 1} {
		_, err := IntToUint32(v)
		assert.ErrorIs(t, err, ErrOverflow, "%d", v)
	}
}

func TestIntToUint64(t *testing.T) {
	got, err := IntToUint64(math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxInt), got)

	_, err = IntToUint64(-1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestUint64ToInt(t *testing.T) {
	got, err := Uint64ToInt(uint64(math.MaxInt))
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, got)

	_, err = Uint64ToInt(uint64(math.MaxInt) + 1)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Contains(t, err.Error(), "does not fit in int")
}

func TestUint32ToInt(t *testing.T) {
	// Every uint32 fits in a 64-bit int.
	got, err := Uint32ToInt(math.MaxUint32)
	require.NoError(t, err)
	assert.Equal(t, int(math.MaxUint32), got)
}
