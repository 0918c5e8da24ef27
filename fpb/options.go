package fpb

import "github.com/hupe1980/fpsim/codec"

type options struct {
	codec      codec.Codec
	compressID bool
	verify     bool
}

// Option configures reading or writing.
type Option func(*options)

// WithCodec sets the metadata codec used when writing. The default is
// codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithCompressedIDs zstd-compresses the id chunk when writing.
func WithCompressedIDs(enabled bool) Option {
	return func(o *options) {
		o.compressID = enabled
	}
}

// WithVerify controls verification when reading: chunk checksums, zero
// padding and the placement of every slot in its popcount bucket. It is on
// by default; turning it off avoids touching every page of a mapped file at
// open time.
func WithVerify(enabled bool) Option {
	return func(o *options) {
		o.verify = enabled
	}
}

func applyOptions(opts []Option) options {
	o := options{codec: codec.Default, verify: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
