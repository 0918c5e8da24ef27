package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.fpb")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpenClose(t *testing.T) {
	content := []byte("#FPS1\ndeadbeef\tid\n")
	m, err := Open(writeFile(t, content))
	require.NoError(t, err)

	assert.Equal(t, len(content), m.Len())
	assert.Equal(t, content, m.Bytes())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AdviceRandom), ErrClosed)
}

func TestEmptyFile(t *testing.T) {
	m, err := Open(writeFile(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Zero(t, m.Len())
	assert.Empty(t, m.Bytes())
	require.NoError(t, m.Advise(AdviceSequential))
}

func TestMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.fpb"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAdviseRange(t *testing.T) {
	data := make([]byte, 3*os.Getpagesize()+100)
	for i := range data {
		data[i] = byte(i)
	}
	m, err := Open(writeFile(t, data))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, data, m.Bytes())
	require.NoError(t, m.Advise(AdviceRandom))
	require.NoError(t, m.AdviseRange(100, 200, AdviceWillNeed))
	require.NoError(t, m.AdviseRange(os.Getpagesize()+64, 2*os.Getpagesize(), AdviceSequential))
	require.NoError(t, m.AdviseRange(len(data), 0, AdviceNormal))

	assert.ErrorIs(t, m.AdviseRange(-1, 10, AdviceNormal), ErrRange)
	assert.ErrorIs(t, m.AdviseRange(len(data)-10, 11, AdviceNormal), ErrRange)
}
