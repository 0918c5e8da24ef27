package arena

import (
	"github.com/hupe1980/fpsim/metadata"
	"github.com/hupe1980/fpsim/popcount"
)

type options struct {
	meta      metadata.Metadata
	alignment int
	reorder   bool
	pc        *popcount.Config
	sizeHint  int
}

// Option configures how arenas are built.
type Option func(*options)

// WithMetadata declares the metadata of the records. A non-zero NumBits or
// NumBytes fixes the fingerprint length before the first record is read.
func WithMetadata(m metadata.Metadata) Option {
	return func(o *options) {
		o.meta = m.Clone()
	}
}

// WithAlignment forces the slot alignment. It must be a power of two between
// 1 and 64. Zero selects the alignment automatically.
func WithAlignment(alignment int) Option {
	return func(o *options) {
		o.alignment = alignment
	}
}

// WithReorder sorts the arena by popcount and builds its popcount index.
func WithReorder(reorder bool) Option {
	return func(o *options) {
		o.reorder = reorder
	}
}

// WithPopcountConfig sets the method selection consulted by automatic
// alignment. Defaults to popcount.NewConfig().
func WithPopcountConfig(cfg *popcount.Config) Option {
	return func(o *options) {
		o.pc = cfg
	}
}

// WithSizeHint preallocates room for n fingerprints.
func WithSizeHint(n int) Option {
	return func(o *options) {
		o.sizeHint = n
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
