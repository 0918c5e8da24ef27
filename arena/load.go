package arena

import (
	"fmt"
	"iter"

	"github.com/hupe1980/fpsim/internal/mem"
	"github.com/hupe1980/fpsim/metadata"
	"github.com/hupe1980/fpsim/popcount"
)

// ChooseAlignment returns the default slot alignment for fingerprints of
// numBytes bytes: 1, 4 or 8 bytes for short fingerprints and the lane width
// for long ones when the lane kernel serves that class in cfg.
func ChooseAlignment(numBytes int, cfg *popcount.Config) int {
	switch {
	case numBytes <= 1:
		return 1
	case numBytes <= 4:
		return 4
	case numBytes <= popcount.SmallStrideLimit:
		return 8
	}
	m := popcount.Preferred(popcount.AlignLanes)
	if cfg != nil {
		m = cfg.Method(popcount.AlignLanes)
	}
	if m == popcount.MethodLanes {
		return popcount.LaneWidth
	}
	return 8
}

// ValidateAlignment reports whether alignment can be forced on an arena: a
// power of two no larger than the storage alignment.
func ValidateAlignment(alignment int) error {
	if alignment < 1 || alignment > mem.Alignment || alignment&(alignment-1) != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAlignment, alignment)
	}
	return nil
}

func strideFor(numBytes, alignment int) int {
	return (numBytes + alignment - 1) / alignment * alignment
}

// Load reads every record into a new arena. The fingerprint length comes
// from the metadata option or, failing that, from the first record; a record
// of any other length aborts the load with a *RecordLengthError.
func Load(records iter.Seq2[Record, error], opts ...Option) (*Arena, error) {
	b, err := newBuilder(applyOptions(opts))
	if err != nil {
		return nil, err
	}
	for rec, err := range records {
		if err != nil {
			return nil, err
		}
		if err := b.add(rec); err != nil {
			return nil, err
		}
	}
	return b.build(), nil
}

// FromFingerprint builds a one-slot arena, the form single-query searches use.
func FromFingerprint(id string, fp []byte, opts ...Option) (*Arena, error) {
	return Load(func(yield func(Record, error) bool) {
		yield(Record{ID: id, Fingerprint: fp}, nil)
	}, opts...)
}

// FromRecords builds an arena from a slice of records.
func FromRecords(records []Record, opts ...Option) (*Arena, error) {
	return Load(FromSlice(records), append([]Option{WithSizeHint(len(records))}, opts...)...)
}

// FromSlice adapts a slice of records to a record stream.
func FromSlice(records []Record) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// builder accumulates records into slot storage. It can emit several arenas
// in sequence; the fingerprint length and alignment are fixed by the first
// record and carried across builds.
type builder struct {
	o     options
	meta  metadata.Metadata
	known bool // fingerprint length fixed
	count int  // records seen across all builds

	alignment int
	stride    int
	padMask   byte

	slots *mem.Slots
	ids   []string
}

func newBuilder(o options) (*builder, error) {
	if o.alignment != 0 {
		if err := ValidateAlignment(o.alignment); err != nil {
			return nil, err
		}
	}
	if o.pc == nil {
		o.pc = popcount.NewConfig()
	}
	b := &builder{o: o, meta: o.meta.Normalize()}
	if err := b.meta.Validate(); err != nil {
		return nil, err
	}
	if b.meta.NumBytes > 0 {
		b.fix(b.meta.NumBytes)
	}
	return b, nil
}

// fix settles the fingerprint length and derives the slot layout from it.
func (b *builder) fix(numBytes int) {
	b.known = true
	b.meta = b.meta.WithSize(numBytes)
	b.alignment = b.o.alignment
	if b.alignment == 0 {
		b.alignment = ChooseAlignment(numBytes, b.o.pc)
	}
	b.stride = strideFor(numBytes, b.alignment)
	if r := b.meta.NumBits % 8; r != 0 {
		b.padMask = ^byte(0) << r
	}
	b.reset(b.o.sizeHint)
}

func (b *builder) reset(capacity int) {
	b.slots = mem.NewSlots(b.stride, capacity)
	b.ids = make([]string, 0, max(capacity, 0))
}

func (b *builder) add(rec Record) error {
	idx := b.count
	b.count++

	if !b.known {
		b.fix(len(rec.Fingerprint))
	}
	if len(rec.Fingerprint) != b.meta.NumBytes {
		return &RecordLengthError{Index: idx, ID: rec.ID, Got: len(rec.Fingerprint), Want: b.meta.NumBytes}
	}
	if b.padMask != 0 && rec.Fingerprint[b.meta.NumBytes-1]&b.padMask != 0 {
		return fmt.Errorf("%w: record %d (id %q)", ErrPaddingBits, idx, rec.ID)
	}

	b.slots.Append(rec.Fingerprint)
	b.ids = append(b.ids, rec.ID)
	return nil
}

func (b *builder) len() int { return len(b.ids) }

// build emits the accumulated records and starts a new, empty batch.
func (b *builder) build() *Arena {
	if !b.known {
		// No records and no declared size.
		b.alignment = max(b.o.alignment, 1)
	}
	a := &Arena{
		meta:      b.meta.Clone(),
		alignment: b.alignment,
		stride:    b.stride,
		class:     popcount.ClassOf(b.alignment, b.stride),
		ids:       b.ids,
	}
	if b.slots != nil {
		a.storage = b.slots.Bytes()
	}
	if a.storage == nil {
		a.storage = []byte{}
	}
	if b.known {
		b.reset(b.o.sizeHint)
	} else {
		b.ids = nil
	}
	if b.o.reorder {
		return ReorderByPopcount(a)
	}
	return a
}
