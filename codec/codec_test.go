package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fpsim/metadata"
)

func TestCodecsInteroperate(t *testing.T) {
	m := metadata.Metadata{
		NumBits:  166,
		Type:     "RDKit-MACCS166/2",
		Software: "RDKit/2024.03.1",
		Sources:  []string{"chembl_34.sdf.gz"},
		Date:     "2024-05-01T12:00:00",
	}

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			t.Run(enc.Name()+"->"+dec.Name(), func(t *testing.T) {
				data, err := enc.Marshal(m)
				require.NoError(t, err)

				var got metadata.Metadata
				require.NoError(t, dec.Unmarshal(data, &got))
				assert.Equal(t, m, got)
			})
		}
	}
}

func TestByName(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}, Default} {
		got, ok := ByName(c.Name())
		require.True(t, ok)
		assert.Equal(t, c.Name(), got.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestEncodeDecode(t *testing.T) {
	m := metadata.Metadata{NumBits: 881, Type: "CACTVS-E_SCREEN/1.0 extended=2"}

	block, err := Encode(JSON{}, m)
	require.NoError(t, err)
	name, payload, err := Peek(block)
	require.NoError(t, err)
	assert.Equal(t, "json", name)
	assert.Equal(t, byte(4), block[0])
	assert.Equal(t, block[5:], payload)

	var got metadata.Metadata
	name, err = Decode(block, &got)
	require.NoError(t, err)
	assert.Equal(t, "json", name)
	assert.Equal(t, m, got)

	t.Run("Unknown", func(t *testing.T) {
		block := append([]byte{7}, "msgpack{}"...)
		name, err := Decode(block, &got)
		assert.ErrorIs(t, err, ErrUnknown)
		assert.Equal(t, "msgpack", name)
	})

	t.Run("Truncated", func(t *testing.T) {
		for _, block := range [][]byte{nil, {5, 'j', 's'}} {
			_, err := Decode(block, &got)
			assert.ErrorIs(t, err, ErrTruncated)
		}
	})

	t.Run("BadPayload", func(t *testing.T) {
		block := append([]byte{7}, "go-json{"...)
		_, err := Decode(block, &got)
		assert.Error(t, err)
	})
}

func BenchmarkMarshalMetadata(b *testing.B) {
	m := metadata.Metadata{NumBits: 2048, Type: "Morgan2/2048", Software: "RDKit"}
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b.Run(c.Name(), func(b *testing.B) {
			for b.Loop() {
				_, _ = c.Marshal(m)
			}
		})
	}
}
