package fps

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/blobstore"
	"github.com/hupe1980/fpsim/metadata"
)

const (
	magic = "#FPS1"

	// maxLine bounds one line; a 64 Ki-bit fingerprint plus a long id fits.
	maxLine = 1 << 20
)

// Reader parses an FPS stream. The header is read by the constructor; the
// records can be iterated once.
type Reader struct {
	meta     metadata.Metadata
	warnings []HeaderWarning

	sc   *bufio.Scanner
	line int

	first     []byte // first record line, read while looking for the header end
	firstLine int
	hasFirst  bool

	closers  []io.Closer
	consumed bool
}

var _ arena.Source = (*Reader)(nil)

// NewReader reads the header from r, decompressing it if needed. Closing
// the Reader does not close r.
func NewReader(r io.Reader) (*Reader, error) {
	return newReader(r)
}

// Open opens an FPS file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return newReader(f, f)
}

// OpenBlob reads an FPS file from a blob store. The Reader takes ownership
// of b and closes it.
func OpenBlob(ctx context.Context, b blobstore.Blob) (*Reader, error) {
	rc, err := blobstore.NewReader(ctx, b)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return newReader(rc, rc, b)
}

func newReader(r io.Reader, owned ...io.Closer) (*Reader, error) {
	fail := func(err error) (*Reader, error) {
		for _, c := range owned {
			_ = c.Close()
		}
		return nil, err
	}

	br := bufio.NewReaderSize(r, 64<<10)
	c, err := sniff(br)
	if err != nil {
		return fail(err)
	}
	dr, dc, err := decompress(br, c)
	if err != nil {
		return fail(err)
	}

	rd := &Reader{closers: append([]io.Closer{dc}, owned...)}
	rd.sc = bufio.NewScanner(dr)
	rd.sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	if err := rd.readHeader(); err != nil {
		_ = rd.Close()
		return nil, err
	}
	return rd, nil
}

func trimCR(b []byte) []byte {
	return bytes.TrimSuffix(b, []byte{'\r'})
}

func (r *Reader) readHeader() error {
	for r.sc.Scan() {
		r.line++
		line := trimCR(r.sc.Bytes())
		if r.line == 1 {
			if string(line) == magic {
				continue
			}
			if len(line) > 0 && line[0] == '#' {
				return &ParseError{Line: 1, Msg: "missing " + magic + " magic line"}
			}
		}
		if len(line) == 0 || line[0] != '#' {
			r.first = bytes.Clone(line)
			r.firstLine = r.line
			r.hasFirst = true
			break
		}
		if err := r.header(string(line[1:])); err != nil {
			return err
		}
	}
	if err := r.sc.Err(); err != nil {
		return r.scanError(err)
	}

	r.meta = r.meta.Normalize()
	if err := r.meta.Validate(); err != nil {
		return &ParseError{Line: r.line, Msg: "invalid header", Err: err}
	}
	return nil
}

func (r *Reader) header(kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	if !ok {
		r.warnings = append(r.warnings, HeaderWarning{Line: r.line, Key: kv})
		return nil
	}
	switch key {
	case "num_bits":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return &ParseError{Line: r.line, Msg: "num_bits must be a positive integer", Err: err}
		}
		r.meta.NumBits = n
	case "type":
		r.meta.Type = value
	case "aromaticity":
		r.meta.Aromaticity = value
	case "software":
		r.meta.Software = value
	case "source":
		r.meta.Sources = append(r.meta.Sources, value)
	case "date":
		r.meta.Date = value
	default:
		r.warnings = append(r.warnings, HeaderWarning{Line: r.line, Key: key, Value: value})
	}
	return nil
}

func (r *Reader) scanError(err error) error {
	if errors.Is(err, bufio.ErrTooLong) {
		return &ParseError{Line: r.line + 1, Msg: "line too long", Err: err}
	}
	return err
}

// Metadata returns the header values. NumBits and NumBytes are zero when
// the header has no num_bits and no record has been read yet.
func (r *Reader) Metadata() metadata.Metadata { return r.meta.Clone() }

// Warnings returns the header lines that were not understood.
func (r *Reader) Warnings() []HeaderWarning { return r.warnings }

// HasPopcountIndex is false: FPS files are not sorted by popcount.
func (r *Reader) HasPopcountIndex() bool { return false }

// Records iterates the fingerprints. A second iteration yields
// arena.ErrSourceConsumed.
func (r *Reader) Records() iter.Seq2[arena.Record, error] {
	return func(yield func(arena.Record, error) bool) {
		if r.consumed {
			yield(arena.Record{}, arena.ErrSourceConsumed)
			return
		}
		r.consumed = true

		if r.hasFirst {
			r.hasFirst = false
			rec, err := r.parse(r.first, r.firstLine)
			r.first = nil
			if !yield(rec, err) || err != nil {
				return
			}
		}
		for r.sc.Scan() {
			r.line++
			rec, err := r.parse(trimCR(r.sc.Bytes()), r.line)
			if !yield(rec, err) || err != nil {
				return
			}
		}
		if err := r.sc.Err(); err != nil {
			yield(arena.Record{}, r.scanError(err))
		}
	}
}

// Arenas groups the records into arenas of at most batchSize fingerprints.
func (r *Reader) Arenas(batchSize int, opts ...arena.Option) iter.Seq2[*arena.Arena, error] {
	opts = append([]arena.Option{arena.WithMetadata(r.meta)}, opts...)
	return arena.IterArenas(r.Records(), batchSize, opts...)
}

func (r *Reader) parse(line []byte, n int) (arena.Record, error) {
	hexFP, rest, ok := bytes.Cut(line, []byte{'\t'})
	if !ok {
		return arena.Record{}, &ParseError{Line: n, Msg: "missing tab between fingerprint and id"}
	}
	id, _, _ := bytes.Cut(rest, []byte{'\t'})

	switch {
	case len(hexFP) == 0:
		return arena.Record{}, &ParseError{Line: n, Msg: "empty fingerprint"}
	case r.meta.NumBytes == 0:
		if len(hexFP)%2 != 0 {
			return arena.Record{}, &ParseError{Line: n, Msg: "odd number of hex digits"}
		}
		r.meta = r.meta.WithSize(len(hexFP) / 2)
	case len(hexFP) != 2*r.meta.NumBytes:
		return arena.Record{}, &ParseError{
			Line: n,
			Msg:  "fingerprint has " + strconv.Itoa(len(hexFP)) + " hex digits, want " + strconv.Itoa(2*r.meta.NumBytes),
		}
	}

	fp := make([]byte, len(hexFP)/2)
	if _, err := hex.Decode(fp, hexFP); err != nil {
		return arena.Record{}, &ParseError{Line: n, Msg: "invalid hex fingerprint", Err: err}
	}
	return arena.Record{ID: string(id), Fingerprint: fp}, nil
}

// Close releases the decompressor and any file or blob the Reader owns.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
