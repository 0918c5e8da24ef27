package arena

import (
	"iter"

	"github.com/hupe1980/fpsim/metadata"
)

// Source is anything fingerprints can be searched from: an in-memory Arena
// or a stream-backed reader.
//
// HasPopcountIndex selects the search path. Sources that report true yield
// popcount-sorted arenas from Arenas and can use the pruned fast path.
type Source interface {
	// Metadata describes the fingerprints. NumBits may be zero until the
	// first record has been read.
	Metadata() metadata.Metadata

	// Records iterates the (id, fingerprint) pairs.
	Records() iter.Seq2[Record, error]

	// Arenas iterates batches of at most batchSize fingerprints. A zero
	// batch size yields the whole source as a single arena.
	Arenas(batchSize int, opts ...Option) iter.Seq2[*Arena, error]

	// HasPopcountIndex reports whether Arenas yields popcount-sorted arenas.
	HasPopcountIndex() bool
}

var _ Source = (*Arena)(nil)

// Arenas yields zero-copy views of at most batchSize slots. Build options are
// ignored because the slots already exist. An arena can be iterated any
// number of times.
func (a *Arena) Arenas(batchSize int, _ ...Option) iter.Seq2[*Arena, error] {
	return func(yield func(*Arena, error) bool) {
		if batchSize < 0 {
			yield(nil, ErrInvalidBatchSize)
			return
		}
		if batchSize == 0 || batchSize >= a.Len() {
			yield(a, nil)
			return
		}
		for start := 0; start < a.Len(); start += batchSize {
			v, err := a.Slice(start, min(start+batchSize, a.Len()))
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// IterArenas groups a record stream into arenas of at most batchSize
// fingerprints. A zero batch size loads the whole stream into one arena.
// Options apply to every batch; the fingerprint length fixed by the first
// record is enforced across batches, and record indexes in errors count from
// the start of the stream.
func IterArenas(records iter.Seq2[Record, error], batchSize int, opts ...Option) iter.Seq2[*Arena, error] {
	return func(yield func(*Arena, error) bool) {
		if batchSize < 0 {
			yield(nil, ErrInvalidBatchSize)
			return
		}
		if batchSize == 0 {
			yield(Load(records, opts...))
			return
		}

		o := applyOptions(opts)
		o.sizeHint = batchSize
		b, err := newBuilder(o)
		if err != nil {
			yield(nil, err)
			return
		}

		emitted := false
		for rec, err := range records {
			if err != nil {
				yield(nil, err)
				return
			}
			if err := b.add(rec); err != nil {
				yield(nil, err)
				return
			}
			if b.len() == batchSize {
				emitted = true
				if !yield(b.build(), nil) {
					return
				}
			}
		}
		if b.len() > 0 || !emitted {
			yield(b.build(), nil)
		}
	}
}
