package hash

import (
	"hash/crc32"
	"io"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// Writer passes writes through to an underlying writer and keeps a running
// CRC32C of the bytes that were accepted.
type Writer struct {
	w   io.Writer
	crc uint32
	n   int64
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (cw *Writer) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.crc = crc32.Update(cw.crc, castagnoli, p[:n])
	cw.n += int64(n)
	return n, err
}

// Sum32 returns the checksum of everything written since the last Reset.
func (cw *Writer) Sum32() uint32 { return cw.crc }

// Len returns the number of bytes written since the last Reset.
func (cw *Writer) Len() int64 { return cw.n }

// Reset starts a new checksum without touching the underlying writer.
func (cw *Writer) Reset() {
	cw.crc = 0
	cw.n = 0
}
