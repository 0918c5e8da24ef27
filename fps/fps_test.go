package fps

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/blobstore"
	"github.com/hupe1980/fpsim/metadata"
	"github.com/hupe1980/fpsim/testutil"
)

func sampleRecords(n, numBytes int) []arena.Record {
	rng := testutil.NewRNG(42)
	ids := testutil.IDs("mol", n)
	records := make([]arena.Record, n)
	for i, fp := range rng.Fingerprints(n, numBytes) {
		records[i] = arena.Record{ID: ids[i], Fingerprint: fp}
	}
	return records
}

func collect(t *testing.T, r *Reader) []arena.Record {
	t.Helper()
	var out []arena.Record
	for rec, err := range r.Records() {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	meta := metadata.Metadata{
		NumBits:  32,
		Type:     "RDKit-Morgan/1 radius=2",
		Software: "RDKit/2024.03",
		Sources:  []string{"a.smi", "b.smi"},
		Date:     "2026-10-15T00:00:00",
	}
	records := sampleRecords(25, 4)

	for _, c := range []Compression{None, Gzip, Zstd, LZ4} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, meta, WithCompression(c))
			require.NoError(t, err)
			for _, rec := range records {
				require.NoError(t, w.Write(rec))
			}
			require.NoError(t, w.Close())
			assert.Equal(t, len(records), w.Count())

			r, err := NewReader(&buf)
			require.NoError(t, err)
			defer r.Close()

			got := r.Metadata()
			assert.Equal(t, 32, got.NumBits)
			assert.Equal(t, 4, got.NumBytes)
			assert.Equal(t, meta.Type, got.Type)
			assert.Equal(t, meta.Software, got.Software)
			assert.Equal(t, meta.Sources, got.Sources)
			assert.Equal(t, meta.Date, got.Date)
			assert.Empty(t, r.Warnings())
			assert.Equal(t, records, collect(t, r))
		})
	}
}

func TestWriterHeader(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, metadata.Metadata{NumBits: 16, Type: "T", Sources: []string{"s"}})
	require.NoError(t, err)
	require.NoError(t, w.Write(arena.Record{ID: "x", Fingerprint: []byte{0x0f, 0xa0}}))
	require.NoError(t, w.Close())

	assert.Equal(t, "#FPS1\n#num_bits=16\n#type=T\n#source=s\n0fa0\tx\n", buf.String())
}

func TestWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, metadata.Metadata{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Equal(t, "#FPS1\n", buf.String())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Empty(t, collect(t, r))
}

func TestWriterErrors(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, metadata.Metadata{NumBits: 16})
	require.NoError(t, err)

	assert.ErrorIs(t, w.Write(arena.Record{ID: "a\tb", Fingerprint: []byte{0, 0}}), ErrInvalidID)

	err = w.Write(arena.Record{ID: "a", Fingerprint: []byte{0}})
	var le *arena.RecordLengthError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 2, le.Want)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Write(arena.Record{ID: "a", Fingerprint: []byte{0, 0}}), os.ErrClosed)

	_, err = NewWriter(&buf, metadata.Metadata{NumBits: 16, NumBytes: 3})
	assert.ErrorIs(t, err, metadata.ErrInvalid)
}

func TestReaderNumBitsFromFirstRecord(t *testing.T) {
	r, err := NewReader(strings.NewReader("#FPS1\n#type=x\n00ff\ta\r\n0100\tb\n"))
	require.NoError(t, err)
	assert.Zero(t, r.Metadata().NumBytes)

	records := collect(t, r)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, []byte{0x01, 0x00}, records[1].Fingerprint)
	assert.Equal(t, 16, r.Metadata().NumBits)
	assert.Equal(t, 2, r.Metadata().NumBytes)
}

func TestReaderHeaderless(t *testing.T) {
	r, err := NewReader(strings.NewReader("ff\tonly\n"))
	require.NoError(t, err)
	records := collect(t, r)
	require.Len(t, records, 1)
	assert.Equal(t, "only", records[0].ID)
}

func TestReaderWarnings(t *testing.T) {
	r, err := NewReader(strings.NewReader("#FPS1\n#num_bits=8\n#color=blue\n#noequals\nff\ta\n"))
	require.NoError(t, err)
	warnings := r.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, HeaderWarning{Line: 3, Key: "color", Value: "blue"}, warnings[0])
	assert.Equal(t, "noequals", warnings[1].Key)
	assert.Contains(t, warnings[0].String(), "color")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"BadMagic", "#FPS2\nff\ta\n", 1},
		{"BadNumBits", "#FPS1\n#num_bits=zero\n", 2},
		{"NegativeNumBits", "#FPS1\n#num_bits=-8\n", 2},
		{"MissingTab", "#FPS1\n#num_bits=8\nff a\n", 3},
		{"WrongLength", "#FPS1\n#num_bits=16\nffff\ta\nff\tb\n", 4},
		{"OddLength", "#FPS1\nfff\ta\n", 2},
		{"BadHex", "#FPS1\n#num_bits=8\nzz\ta\n", 3},
		{"Empty", "#FPS1\n\tid\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := readAll(tt.input)
			require.ErrorIs(t, err, ErrSyntax)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func readAll(input string) error {
	r, err := NewReader(strings.NewReader(input))
	if err != nil {
		return err
	}
	defer r.Close()
	for _, err := range r.Records() {
		if err != nil {
			return err
		}
	}
	return nil
}

func TestRecordsOnce(t *testing.T) {
	r, err := NewReader(strings.NewReader("#FPS1\nff\ta\n"))
	require.NoError(t, err)
	collect(t, r)
	for _, err := range r.Records() {
		assert.ErrorIs(t, err, arena.ErrSourceConsumed)
	}
}

func TestArenas(t *testing.T) {
	records := sampleRecords(23, 21)
	for i := range records {
		records[i].Fingerprint[20] &= 0x3f // 166 bits
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, metadata.Metadata{NumBits: 166, Type: "MACCS"})
	require.NoError(t, err)
	require.NoError(t, w.WriteAll(arena.FromSlice(records)))
	require.NoError(t, w.Close())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.False(t, r.HasPopcountIndex())

	var sizes []int
	for a, err := range r.Arenas(10) {
		require.NoError(t, err)
		assert.Equal(t, 166, a.NumBits())
		assert.Equal(t, "MACCS", a.Metadata().Type)
		sizes = append(sizes, a.Len())
	}
	assert.Equal(t, []int{10, 10, 3}, sizes)
}

func TestPaddingBits(t *testing.T) {
	r, err := NewReader(strings.NewReader("#FPS1\n#num_bits=6\n40\ta\n"))
	require.NoError(t, err)
	_, err = arena.Load(r.Records(), arena.WithMetadata(r.Metadata()))
	assert.ErrorIs(t, err, arena.ErrPaddingBits)
}

func TestFiles(t *testing.T) {
	records := sampleRecords(12, 8)
	dir := t.TempDir()

	for _, name := range []string{"plain.fps", "x.fps.gz", "x.fps.zst", "x.fps.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			w, err := Create(path, metadata.Metadata{NumBits: 64})
			require.NoError(t, err)
			require.NoError(t, w.WriteAll(arena.FromSlice(records)))
			require.NoError(t, w.Close())

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, name == "plain.fps", bytes.HasPrefix(raw, []byte(magic)))

			r, err := Open(path)
			require.NoError(t, err)
			assert.Equal(t, records, collect(t, r))
			require.NoError(t, r.Close())
		})
	}

	t.Run("Missing", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "missing.fps"))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestOpenBlob(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, metadata.Metadata{NumBits: 16}, WithCompression(Zstd))
	require.NoError(t, err)
	require.NoError(t, w.Write(arena.Record{ID: "a", Fingerprint: []byte{1, 2}}))
	require.NoError(t, w.Close())
	require.NoError(t, store.Put(ctx, "q.fps.zst", buf.Bytes()))

	b, err := store.Open(ctx, "q.fps.zst")
	require.NoError(t, err)
	r, err := OpenBlob(ctx, b)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []arena.Record{{ID: "a", Fingerprint: []byte{1, 2}}}, collect(t, r))
}
