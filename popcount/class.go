package popcount

import (
	"fmt"
	"strings"
)

// AlignmentClass describes how an arena's slots are padded.
type AlignmentClass uint8

const (
	// Align1 is unpadded storage: stride == num_bytes.
	Align1 AlignmentClass = iota
	// Align4 pads slots to a multiple of 4 bytes.
	Align4
	// Align8Small pads slots to a multiple of 8 bytes, up to SmallStrideLimit.
	Align8Small
	// Align8Large pads slots to a multiple of 8 bytes, above SmallStrideLimit.
	Align8Large
	// AlignLanes pads slots to a multiple of LaneWidth bytes.
	AlignLanes

	numClasses
)

const (
	// LaneWidth is the slot alignment, in bytes, of the AlignLanes class.
	LaneWidth = 32
	// SmallStrideLimit is the largest stride of the Align8Small class (768 bits).
	SmallStrideLimit = 96
)

// Classes lists every alignment class.
var Classes = []AlignmentClass{Align1, Align4, Align8Small, Align8Large, AlignLanes}

func (c AlignmentClass) String() string {
	switch c {
	case Align1:
		return "align1"
	case Align4:
		return "align4"
	case Align8Small:
		return "align8-small"
	case Align8Large:
		return "align8-large"
	case AlignLanes:
		return "align-lanes"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// ParseClass parses a class name as produced by AlignmentClass.String.
func ParseClass(s string) (AlignmentClass, error) {
	for _, c := range Classes {
		if strings.EqualFold(strings.TrimSpace(s), c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownClass, s)
}

// ClassOf returns the class of storage with the given alignment and stride.
func ClassOf(alignment, stride int) AlignmentClass {
	switch {
	case alignment >= LaneWidth && stride%LaneWidth == 0:
		return AlignLanes
	case alignment >= 8 && stride%8 == 0:
		if stride <= SmallStrideLimit {
			return Align8Small
		}
		return Align8Large
	case alignment >= 4 && stride%4 == 0:
		return Align4
	default:
		return Align1
	}
}
