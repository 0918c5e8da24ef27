package fpb

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/blobstore"
	"github.com/hupe1980/fpsim/codec"
	"github.com/hupe1980/fpsim/internal/conv"
	"github.com/hupe1980/fpsim/internal/hash"
	"github.com/hupe1980/fpsim/internal/mem"
	"github.com/hupe1980/fpsim/internal/mmap"
)

// chunk locates one payload within the file.
type chunk struct {
	off  int
	data []byte
}

// Open maps the file at path. The returned arena shares the mapping and must
// be closed.
func Open(path string, opts ...Option) (*arena.Arena, error) {
	ctx := context.Background()
	b, err := blobstore.NewLocalStore(filepath.Dir(path)).Open(ctx, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return Read(ctx, b, opts...)
}

// Read decodes the arena stored in b and takes ownership of b. Blobs that
// are addressable in memory, such as local files, are used without a copy
// and stay open until the arena is closed; others are read fully and closed.
func Read(ctx context.Context, b blobstore.Blob, opts ...Option) (*arena.Arena, error) {
	o := applyOptions(opts)

	if m, ok := b.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, errors.Join(err, b.Close())
		}
		a, err := decode(data, b, o)
		if err != nil {
			return nil, errors.Join(err, b.Close())
		}
		return a, nil
	}

	data, err := blobstore.ReadAll(ctx, b)
	if cerr := b.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return decode(data, nil, o)
}

// Decode builds an arena from an encoded file held in memory. The arena
// shares data when its storage is suitably aligned.
func Decode(data []byte, opts ...Option) (*arena.Arena, error) {
	return decode(data, nil, applyOptions(opts))
}

// Info describes a file without building the arena.
type Info struct {
	Version   uint32
	Alignment int
	Stride    int
	Count     int
	Sorted    bool
	Codec     string
	Chunks    []string
}

// Stat reads the layout of the file held in data.
func Stat(data []byte) (Info, error) {
	var info Info
	version, chunks, order, err := scan(data, false)
	if err != nil {
		return info, err
	}
	info.Version = version
	info.Chunks = order
	meta, ok := chunks[tagMeta]
	if !ok {
		return info, corrupt("missing META chunk")
	}
	if info.Codec, _, err = codec.Peek(meta.data); err != nil {
		return info, fmt.Errorf("%w: META chunk: %w", ErrCorrupt, err)
	}
	aren, ok := chunks[tagArena]
	if !ok || len(aren.data) < arenaHeaderSize {
		return info, corrupt("missing AREN chunk")
	}
	info.Alignment, info.Stride, info.Count, err = arenaHeader(aren.data)
	_, info.Sorted = chunks[tagPopcount]
	return info, err
}

func decode(data []byte, closer io.Closer, o options) (*arena.Arena, error) {
	_, chunks, _, err := scan(data, o.verify)
	if err != nil {
		return nil, err
	}

	metaChunk, ok := chunks[tagMeta]
	if !ok {
		return nil, corrupt("missing META chunk")
	}
	meta, err := decodeMeta(metaChunk.data)
	if err != nil {
		return nil, err
	}

	arenaChunk, ok := chunks[tagArena]
	if !ok || len(arenaChunk.data) < arenaHeaderSize {
		return nil, corrupt("missing AREN chunk")
	}
	alignment, stride, count, err := arenaHeader(arenaChunk.data)
	if err != nil {
		return nil, err
	}
	body := arenaChunk.data[arenaHeaderSize:]
	if (stride > 0 && count > len(body)/stride) || (stride == 0 && count > 0) {
		return nil, corrupt("AREN chunk holds less than %d slots of %d bytes", count, stride)
	}
	storage := body[len(body)-count*stride:]
	if !mem.IsAligned(storage) {
		aligned := mem.AllocAligned(len(storage))
		copy(aligned, storage)
		storage = aligned
	} else if r, ok := closer.(interface {
		AdviseRange(off, n int, a mmap.Advice) error
	}); ok {
		_ = r.AdviseRange(arenaChunk.off+len(arenaChunk.data)-len(storage), len(storage), mmap.AdviceWillNeed)
	}

	var index []int
	if c, ok := chunks[tagPopcount]; ok {
		if index, err = decodeIndex(c.data); err != nil {
			return nil, err
		}
	}

	idChunk, ok := chunks[tagIDs]
	if !ok {
		return nil, corrupt("missing FPID chunk")
	}
	ids, err := decodeIDs(idChunk.data, count)
	if err != nil {
		return nil, err
	}

	a, err := arena.FromStorage(meta, alignment, storage, ids, index, closer)
	if err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	if a.Stride() != stride {
		return nil, corrupt("stride %d does not match layout stride %d", stride, a.Stride())
	}
	if o.verify {
		if err := a.Verify(); err != nil {
			return nil, errors.Join(ErrCorrupt, err)
		}
	}
	return a, nil
}

// scan walks the chunks up to FEND. The payload slices alias data.
func scan(data []byte, verify bool) (uint32, map[tag]chunk, []string, error) {
	if len(data) < fileHeaderSize || !bytes.Equal(data[:len(magic)], magic[:]) {
		return 0, nil, nil, corrupt("bad magic")
	}
	version := binary.LittleEndian.Uint32(data[8:])
	if version == 0 || version > Version {
		return version, nil, nil, ErrVersion
	}

	chunks := make(map[tag]chunk)
	var order []string
	off := fileHeaderSize
	for {
		if len(data)-off < chunkHeaderSize {
			return version, nil, nil, corrupt("truncated chunk header at offset %d", off)
		}
		length, err := conv.Uint64ToInt(binary.LittleEndian.Uint64(data[off:]))
		if err != nil {
			return version, nil, nil, corrupt("chunk length at offset %d: %v", off, err)
		}
		var t tag
		copy(t[:], data[off+8:off+chunkHeaderSize])
		start := off + chunkHeaderSize
		if length > len(data)-start-chunkTrailer {
			return version, nil, nil, corrupt("%s chunk at offset %d overruns the file", t, off)
		}
		payload := data[start : start+length : start+length]

		if verify {
			want := binary.LittleEndian.Uint32(data[start+length:])
			if got := hash.CRC32C(payload); got != want {
				return version, nil, nil, &ChecksumError{Tag: t.String(), Offset: int64(off), Expected: want, Actual: got}
			}
		}

		order = append(order, t.String())
		if t == tagEnd {
			return version, chunks, order, nil
		}
		if _, dup := chunks[t]; dup {
			return version, nil, nil, corrupt("duplicate %s chunk", t)
		}
		chunks[t] = chunk{off: start, data: payload}
		off = start + length + chunkTrailer
	}
}

func arenaHeader(p []byte) (alignment, stride, count int, err error) {
	if alignment, err = conv.Uint32ToInt(binary.LittleEndian.Uint32(p[0:])); err != nil {
		return 0, 0, 0, err
	}
	if stride, err = conv.Uint32ToInt(binary.LittleEndian.Uint32(p[4:])); err != nil {
		return 0, 0, 0, err
	}
	if count, err = conv.Uint64ToInt(binary.LittleEndian.Uint64(p[8:])); err != nil {
		return 0, 0, 0, corrupt("slot count: %v", err)
	}
	return alignment, stride, count, nil
}

func decodeIndex(p []byte) ([]int, error) {
	if len(p)%8 != 0 {
		return nil, corrupt("POPC chunk length %d", len(p))
	}
	index := make([]int, len(p)/8)
	for i := range index {
		v, err := conv.Uint64ToInt(binary.LittleEndian.Uint64(p[8*i:]))
		if err != nil {
			return nil, corrupt("popcount index: %v", err)
		}
		index[i] = v
	}
	return index, nil
}

func decodeIDs(p []byte, count int) ([]string, error) {
	if len(p) == 0 {
		return nil, corrupt("empty FPID chunk")
	}
	body := p[1:]
	switch p[0] {
	case idsPlain:
	case idsZstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		if body, err = dec.DecodeAll(body, nil); err != nil {
			return nil, errors.Join(ErrCorrupt, err)
		}
	default:
		return nil, corrupt("unknown id encoding %d", p[0])
	}

	ids := make([]string, 0, count)
	for len(body) > 0 {
		n, k := binary.Uvarint(body)
		if k <= 0 || n > uint64(len(body)-k) {
			return nil, corrupt("truncated id %d", len(ids))
		}
		ids = append(ids, string(body[k:k+int(n)]))
		body = body[k+int(n):]
	}
	if len(ids) != count {
		return nil, corrupt("%d ids for %d slots", len(ids), count)
	}
	return ids, nil
}
