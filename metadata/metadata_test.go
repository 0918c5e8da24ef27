package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Metadata{}.Validate())
	assert.NoError(t, Metadata{NumBits: 166, NumBytes: 21}.Validate())
	assert.NoError(t, Metadata{NumBits: 166}.Validate())
	assert.ErrorIs(t, Metadata{NumBits: 166, NumBytes: 20}.Validate(), ErrInvalid)
	assert.ErrorIs(t, Metadata{NumBits: -1}.Validate(), ErrInvalid)
}

func TestNormalizeAndWithSize(t *testing.T) {
	assert.Equal(t, 21, Metadata{NumBits: 166}.Normalize().NumBytes)

	m := Metadata{}.WithSize(4)
	assert.Equal(t, 32, m.NumBits)
	assert.Equal(t, 4, m.NumBytes)

	m = Metadata{NumBits: 30}.WithSize(4)
	assert.Equal(t, 30, m.NumBits)
}

func TestCheckCompatible(t *testing.T) {
	t.Run("NumBitsMismatch", func(t *testing.T) {
		_, err := CheckCompatible(Metadata{NumBits: 166}, Metadata{NumBits: 881})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIncompatible))

		var me *MismatchError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, "num_bits", me.Field)
		assert.Equal(t, 166, me.Query)
		assert.Equal(t, 881, me.Target)
	})

	t.Run("FallsBackToNumBytes", func(t *testing.T) {
		_, err := CheckCompatible(Metadata{NumBytes: 4}, Metadata{NumBits: 32, NumBytes: 8})
		var me *MismatchError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, "num_bytes", me.Field)

		_, err = CheckCompatible(Metadata{NumBytes: 4}, Metadata{NumBits: 32, NumBytes: 4})
		assert.NoError(t, err)
	})

	t.Run("UnknownIsCompatible", func(t *testing.T) {
		_, err := CheckCompatible(Metadata{}, Metadata{NumBits: 2048})
		assert.NoError(t, err)
	})

	t.Run("Warnings", func(t *testing.T) {
		q := Metadata{NumBits: 166, Type: "RDKit-MACCS166/2", Software: "RDKit/2024"}
		tg := Metadata{NumBits: 166, Type: "OpenBabel-MACCS/2", Software: "RDKit/2024", Aromaticity: "openeye"}
		warnings, err := CheckCompatible(q, tg)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t, "type", warnings[0].Field)
		assert.Contains(t, warnings[0].String(), "OpenBabel-MACCS/2")
	})
}
