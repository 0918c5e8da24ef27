package fps

import (
	"bufio"
	"encoding/hex"
	"errors"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/metadata"
)

// ErrInvalidID is returned for ids that would break the line format.
var ErrInvalidID = errors.New("fps: id contains a tab or newline")

type writerOptions struct {
	compression Compression
}

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

// WithCompression compresses the output stream.
func WithCompression(c Compression) WriterOption {
	return func(o *writerOptions) {
		o.compression = c
	}
}

// Writer emits an FPS stream. The header is written with the first record,
// or on Close for an empty file.
type Writer struct {
	zw   io.WriteCloser
	bw   *bufio.Writer
	file io.Closer

	meta   metadata.Metadata
	header bool
	count  int
	hexbuf []byte
	closed bool
}

// NewWriter writes to w. Close flushes but does not close w.
func NewWriter(w io.Writer, meta metadata.Metadata, opts ...WriterOption) (*Writer, error) {
	var o writerOptions
	for _, opt := range opts {
		opt(&o)
	}
	meta = meta.Normalize()
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	zw, err := compress(w, o.compression)
	if err != nil {
		return nil, err
	}
	return &Writer{zw: zw, bw: bufio.NewWriterSize(zw, 64<<10), meta: meta}, nil
}

// Create creates the file at path, compressed according to its extension.
func Create(path string, meta metadata.Metadata) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, meta, WithCompression(CompressionFor(path)))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.file = f
	return w, nil
}

func (w *Writer) writeHeader() error {
	w.header = true
	var sb strings.Builder
	sb.WriteString(magic + "\n")
	if w.meta.NumBits > 0 {
		sb.WriteString("#num_bits=" + strconv.Itoa(w.meta.NumBits) + "\n")
	}
	field := func(key, value string) {
		if value != "" {
			sb.WriteString("#" + key + "=" + value + "\n")
		}
	}
	field("type", w.meta.Type)
	field("aromaticity", w.meta.Aromaticity)
	field("software", w.meta.Software)
	for _, s := range w.meta.Sources {
		field("source", s)
	}
	field("date", w.meta.Date)
	_, err := w.bw.WriteString(sb.String())
	return err
}

// Write appends one fingerprint. All fingerprints must have the length
// given by the metadata or, failing that, by the first one.
func (w *Writer) Write(rec arena.Record) error {
	if w.closed {
		return os.ErrClosed
	}
	if strings.ContainsAny(rec.ID, "\t\r\n") {
		return ErrInvalidID
	}
	if w.meta.NumBytes == 0 {
		w.meta = w.meta.WithSize(len(rec.Fingerprint))
	}
	if len(rec.Fingerprint) != w.meta.NumBytes {
		return &arena.RecordLengthError{Index: w.count, ID: rec.ID, Got: len(rec.Fingerprint), Want: w.meta.NumBytes}
	}
	if !w.header {
		if err := w.writeHeader(); err != nil {
			return err
		}
	}

	w.hexbuf = hex.AppendEncode(w.hexbuf[:0], rec.Fingerprint)
	w.hexbuf = append(w.hexbuf, '\t')
	w.hexbuf = append(w.hexbuf, rec.ID...)
	w.hexbuf = append(w.hexbuf, '\n')
	if _, err := w.bw.Write(w.hexbuf); err != nil {
		return err
	}
	w.count++
	return nil
}

// WriteAll writes every record of seq.
func (w *Writer) WriteAll(seq iter.Seq2[arena.Record, error]) error {
	for rec, err := range seq {
		if err != nil {
			return err
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of fingerprints written.
func (w *Writer) Count() int { return w.count }

// Close writes a pending header, flushes and closes the compressor and a
// file opened by Create.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if !w.header {
		errs = append(errs, w.writeHeader())
	}
	errs = append(errs, w.bw.Flush(), w.zw.Close())
	if w.file != nil {
		errs = append(errs, w.file.Close())
	}
	return errors.Join(errs...)
}
