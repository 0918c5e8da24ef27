package fpb

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/blobstore"
	"github.com/hupe1980/fpsim/codec"
	"github.com/hupe1980/fpsim/internal/conv"
	"github.com/hupe1980/fpsim/internal/hash"
	"github.com/hupe1980/fpsim/internal/mem"
)

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// Write encodes a to w and returns the number of bytes written.
func Write(w io.Writer, a *arena.Arena, opts ...Option) (int64, error) {
	o := applyOptions(opts)
	cw := &countingWriter{w: w}

	if err := binary.Write(cw, binary.LittleEndian, fileHeader{Magic: magic, Version: Version}); err != nil {
		return cw.n, err
	}

	meta, err := codec.Encode(o.codec, a.Metadata())
	if err != nil {
		return cw.n, err
	}
	if err := writeChunk(cw, tagMeta, meta); err != nil {
		return cw.n, err
	}

	if err := writeArena(cw, a); err != nil {
		return cw.n, err
	}

	if a.HasPopcountIndex() {
		index := a.PopcountIndex()
		buf := make([]byte, 8*len(index))
		for i, off := range index {
			v, err := conv.IntToUint64(off)
			if err != nil {
				return cw.n, err
			}
			binary.LittleEndian.PutUint64(buf[8*i:], v)
		}
		if err := writeChunk(cw, tagPopcount, buf); err != nil {
			return cw.n, err
		}
	}

	ids, err := encodeIDs(a.IDs(), o.compressID)
	if err != nil {
		return cw.n, err
	}
	if err := writeChunk(cw, tagIDs, ids); err != nil {
		return cw.n, err
	}

	return cw.n, writeChunk(cw, tagEnd)
}

func writeArena(cw *countingWriter, a *arena.Arena) error {
	count, err := conv.IntToUint64(a.Len())
	if err != nil {
		return err
	}
	alignment, err := conv.IntToUint32(a.Alignment())
	if err != nil {
		return err
	}
	stride, err := conv.IntToUint32(a.Stride())
	if err != nil {
		return err
	}

	head := make([]byte, arenaHeaderSize)
	binary.LittleEndian.PutUint32(head[0:], alignment)
	binary.LittleEndian.PutUint32(head[4:], stride)
	binary.LittleEndian.PutUint64(head[8:], count)

	// Pad so the storage starts on an aligned file offset.
	start := cw.n + chunkHeaderSize + arenaHeaderSize
	pad := (mem.Alignment - start%mem.Alignment) % mem.Alignment

	return writeChunk(cw, tagArena, head, make([]byte, pad), a.Storage())
}

// writeChunk writes one chunk whose payload is the concatenation of parts.
func writeChunk(w io.Writer, t tag, parts ...[]byte) error {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	length, err := conv.IntToUint64(n)
	if err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, chunkHeader{Length: length, Tag: t}); err != nil {
		return err
	}

	hw := hash.NewWriter(w)
	for _, p := range parts {
		if _, err := hw.Write(p); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, hw.Sum32())
}

// encodeIDs writes each id as a uvarint length and its bytes.
func encodeIDs(ids []string, compress bool) ([]byte, error) {
	size := 0
	for _, id := range ids {
		size += binary.MaxVarintLen64 + len(id)
	}
	buf := make([]byte, 1, 1+size)
	for _, id := range ids {
		buf = binary.AppendUvarint(buf, uint64(len(id)))
		buf = append(buf, id...)
	}
	if !compress {
		buf[0] = idsPlain
		return buf, nil
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(buf[1:], []byte{idsZstd}), nil
}

// Save writes a to path. The file appears only once it is complete.
func Save(path string, a *arena.Arena, opts ...Option) error {
	store := blobstore.NewLocalStore(filepath.Dir(path))
	return WriteBlob(context.Background(), store, filepath.Base(path), a, opts...)
}

// WriteBlob writes a to the named blob of store.
func WriteBlob(ctx context.Context, store blobstore.BlobStore, name string, a *arena.Arena, opts ...Option) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(w, 1<<20)
	if _, err := Write(bw, a, opts...); err != nil {
		return errors.Join(err, w.Abort())
	}
	if err := bw.Flush(); err != nil {
		return errors.Join(err, w.Abort())
	}
	return w.Close()
}
