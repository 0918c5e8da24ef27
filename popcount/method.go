package popcount

import (
	"fmt"
	"strings"

	"github.com/hupe1980/fpsim/internal/simd"
)

// Method identifies a bit-counting algorithm.
type Method uint8

const (
	// MethodLUT8 looks up one byte at a time in a 256-entry table.
	MethodLUT8 Method = iota
	// MethodLUT16 looks up 16 bits at a time in a 65536-entry table.
	MethodLUT16
	// MethodPOPCNT counts 64-bit words with the hardware instruction.
	MethodPOPCNT
	// MethodLanes runs a Harley-Seal carry-save reduction over 256-bit lanes.
	MethodLanes

	numMethods
)

// Methods lists every method in preference order, fastest first on typical hardware.
var Methods = []Method{MethodLanes, MethodPOPCNT, MethodLUT16, MethodLUT8}

func (m Method) String() string {
	switch m {
	case MethodLUT8:
		return "lut8"
	case MethodLUT16:
		return "lut16"
	case MethodPOPCNT:
		return "popcnt"
	case MethodLanes:
		return "lanes"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

// ParseMethod parses a method name as produced by Method.String.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lut8":
		return MethodLUT8, nil
	case "lut16":
		return MethodLUT16, nil
	case "popcnt":
		return MethodPOPCNT, nil
	case "lanes":
		return MethodLanes, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Available reports whether the method can run on this CPU.
func (m Method) Available() bool {
	switch m {
	case MethodLUT8, MethodLUT16, MethodLanes:
		return true
	case MethodPOPCNT:
		return simd.HasPOPCNT()
	default:
		return false
	}
}

// Supports reports whether the method may serve arenas of the given class.
//
// LUT16 reads 16-bit words and POPCNT reads 32/64-bit words, so both need a
// stride padded to at least 4 bytes; Lanes needs whole 256-bit lanes.
func (m Method) Supports(c AlignmentClass) bool {
	switch m {
	case MethodLUT8:
		return c < numClasses
	case MethodLUT16, MethodPOPCNT:
		return c >= Align4 && c < numClasses
	case MethodLanes:
		return c == AlignLanes
	default:
		return false
	}
}

// Kernels is the pair of functions a method provides.
//
// Both functions require buffers of equal length; pass whole slots (stride
// bytes) so padding words are read as zeros.
type Kernels struct {
	Method    Method
	Popcount  func(a []byte) int
	Intersect func(a, b []byte) int
}

func kernelsFor(m Method) Kernels {
	switch m {
	case MethodLUT16:
		return Kernels{Method: m, Popcount: simd.PopcountLUT16, Intersect: simd.IntersectLUT16}
	case MethodPOPCNT:
		return Kernels{Method: m, Popcount: simd.PopcountWords, Intersect: simd.IntersectWords}
	case MethodLanes:
		return Kernels{Method: m, Popcount: simd.PopcountLanes, Intersect: simd.IntersectLanes}
	default:
		return Kernels{Method: MethodLUT8, Popcount: simd.PopcountLUT8, Intersect: simd.IntersectLUT8}
	}
}

// Popcount counts the set bits of a with the portable word kernel.
// Use Config.Kernels on hot paths.
func Popcount(a []byte) int {
	return simd.PopcountWords(a)
}

// Intersect counts the set bits of a AND b with the portable word kernel.
// a and b must have equal length.
func Intersect(a, b []byte) int {
	return simd.IntersectWords(a, b)
}
