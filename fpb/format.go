package fpb

import (
	"errors"
	"fmt"
)

const (
	// Version is the format version this package writes.
	Version uint32 = 1

	fileHeaderSize  = 16
	chunkHeaderSize = 12
	chunkTrailer    = 4
	arenaHeaderSize = 16
)

var magic = [8]byte{'F', 'P', 'B', '1', '\r', '\n', 0x1a, '\n'}

type tag [4]byte

var (
	tagMeta     = tag{'M', 'E', 'T', 'A'}
	tagArena    = tag{'A', 'R', 'E', 'N'}
	tagPopcount = tag{'P', 'O', 'P', 'C'}
	tagIDs      = tag{'F', 'P', 'I', 'D'}
	tagEnd      = tag{'F', 'E', 'N', 'D'}
)

func (t tag) String() string { return string(t[:]) }

// fileHeader is the fixed start of every file.
type fileHeader struct {
	Magic   [8]byte
	Version uint32
	Flags   uint32
}

// chunkHeader precedes every chunk payload.
type chunkHeader struct {
	Length uint64
	Tag    tag
}

const (
	idsPlain byte = iota
	idsZstd
)

var (
	// ErrCorrupt is returned for files that do not parse.
	ErrCorrupt = errors.New("fpb: corrupt file")

	// ErrVersion is returned for files written by a newer format version.
	ErrVersion = errors.New("fpb: unsupported version")
)

// ChecksumError reports a chunk whose payload does not match its CRC32C.
type ChecksumError struct {
	Tag      string
	Offset   int64
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("fpb: %s chunk at offset %d: checksum mismatch: expected 0x%08x, got 0x%08x",
		e.Tag, e.Offset, e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error { return ErrCorrupt }

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorrupt}, args...)...)
}
