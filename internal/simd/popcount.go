package simd

import (
	"encoding/binary"
	"math/bits"
)

// lut8 holds the bit count of every byte value.
var lut8 [256]uint8

// lut16 holds the bit count of every 16-bit value (64 KiB).
var lut16 [1 << 16]uint8

func init() {
	for i := range lut8 {
		lut8[i] = uint8(bits.OnesCount8(uint8(i)))
	}
	for i := range lut16 {
		lut16[i] = lut8[i&0xff] + lut8[i>>8]
	}
}

// ==============================================================================
// LUT8
// ==============================================================================

// PopcountLUT8 counts set bits one byte at a time.
func PopcountLUT8(a []byte) int {
	n := 0
	for _, b := range a {
		n += int(lut8[b])
	}
	return n
}

// IntersectLUT8 counts the set bits of a AND b one byte at a time.
//
// SAFETY: Assumes len(a) == len(b). Caller MUST ensure lengths match.
func IntersectLUT8(a, b []byte) int {
	b = b[:len(a)]
	n := 0
	for i, x := range a {
		n += int(lut8[x&b[i]])
	}
	return n
}

// ==============================================================================
// LUT16
// ==============================================================================

// PopcountLUT16 counts set bits 16 bits at a time.
func PopcountLUT16(a []byte) int {
	n := 0
	i := 0
	for ; i+2 <= len(a); i += 2 {
		n += int(lut16[binary.LittleEndian.Uint16(a[i:])])
	}
	if i < len(a) {
		n += int(lut8[a[i]])
	}
	return n
}

// IntersectLUT16 counts the set bits of a AND b 16 bits at a time.
func IntersectLUT16(a, b []byte) int {
	b = b[:len(a)]
	n := 0
	i := 0
	for ; i+2 <= len(a); i += 2 {
		n += int(lut16[binary.LittleEndian.Uint16(a[i:])&binary.LittleEndian.Uint16(b[i:])])
	}
	if i < len(a) {
		n += int(lut8[a[i]&b[i]])
	}
	return n
}

// ==============================================================================
// POPCNT (64-bit words)
// ==============================================================================

// PopcountWords counts set bits eight bytes at a time. A trailing 4-byte word
// and trailing bytes are handled separately, so the result is exact for any
// length.
func PopcountWords(a []byte) int {
	n := 0
	i := 0
	for ; i+32 <= len(a); i += 32 {
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a[i:]))
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a[i+8:]))
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a[i+16:]))
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a[i+24:]))
	}
	for ; i+8 <= len(a); i += 8 {
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a[i:]))
	}
	if i+4 <= len(a) {
		n += bits.OnesCount32(binary.LittleEndian.Uint32(a[i:]))
		i += 4
	}
	for ; i < len(a); i++ {
		n += int(lut8[a[i]])
	}
	return n
}

// IntersectWords counts the set bits of a AND b eight bytes at a time.
func IntersectWords(a, b []byte) int {
	b = b[:len(a)]
	n := 0
	i := 0
	for ; i+32 <= len(a); i += 32 {
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a[i:]) & binary.LittleEndian.Uint64(b[i:]))
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a[i+8:]) & binary.LittleEndian.Uint64(b[i+8:]))
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a[i+16:]) & binary.LittleEndian.Uint64(b[i+16:]))
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a[i+24:]) & binary.LittleEndian.Uint64(b[i+24:]))
	}
	for ; i+8 <= len(a); i += 8 {
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a[i:]) & binary.LittleEndian.Uint64(b[i:]))
	}
	if i+4 <= len(a) {
		n += bits.OnesCount32(binary.LittleEndian.Uint32(a[i:]) & binary.LittleEndian.Uint32(b[i:]))
		i += 4
	}
	for ; i < len(a); i++ {
		n += int(lut8[a[i]&b[i]])
	}
	return n
}

// ==============================================================================
// Lanes (Harley-Seal over 256-bit lanes)
// ==============================================================================

// LaneBytes is the width of one lane step of the Lanes kernels.
const LaneBytes = 32

// csa is a carry-save adder: a+b+c == 2*hi + lo, bitwise.
func csa(a, b, c uint64) (hi, lo uint64) {
	u := a ^ b
	return (a & b) | (u & c), u ^ c
}

// PopcountLanes counts set bits with a Harley-Seal reduction that consumes
// two 256-bit lanes per step and popcounts only once per step.
func PopcountLanes(a []byte) int {
	var ones, twos, fours uint64
	total := 0
	i := 0
	for ; i+2*LaneBytes <= len(a); i += 2 * LaneBytes {
		w := a[i : i+2*LaneBytes]
		twosA, o := csa(ones, binary.LittleEndian.Uint64(w[0:]), binary.LittleEndian.Uint64(w[8:]))
		twosB, o2 := csa(o, binary.LittleEndian.Uint64(w[16:]), binary.LittleEndian.Uint64(w[24:]))
		foursA, t := csa(twos, twosA, twosB)
		twosA, o = csa(o2, binary.LittleEndian.Uint64(w[32:]), binary.LittleEndian.Uint64(w[40:]))
		twosB, ones = csa(o, binary.LittleEndian.Uint64(w[48:]), binary.LittleEndian.Uint64(w[56:]))
		foursB, t2 := csa(t, twosA, twosB)
		twos = t2
		eights, f := csa(fours, foursA, foursB)
		fours = f
		total += bits.OnesCount64(eights)
	}
	total = 8*total + 4*bits.OnesCount64(fours) + 2*bits.OnesCount64(twos) + bits.OnesCount64(ones)
	return total + PopcountWords(a[i:])
}

// IntersectLanes counts the set bits of a AND b with the Harley-Seal reduction.
func IntersectLanes(a, b []byte) int {
	b = b[:len(a)]
	var ones, twos, fours uint64
	total := 0
	i := 0
	for ; i+2*LaneBytes <= len(a); i += 2 * LaneBytes {
		x := a[i : i+2*LaneBytes]
		y := b[i : i+2*LaneBytes]
		twosA, o := csa(ones, and64(x, y, 0), and64(x, y, 8))
		twosB, o2 := csa(o, and64(x, y, 16), and64(x, y, 24))
		foursA, t := csa(twos, twosA, twosB)
		twosA, o = csa(o2, and64(x, y, 32), and64(x, y, 40))
		twosB, ones = csa(o, and64(x, y, 48), and64(x, y, 56))
		foursB, t2 := csa(t, twosA, twosB)
		twos = t2
		eights, f := csa(fours, foursA, foursB)
		fours = f
		total += bits.OnesCount64(eights)
	}
	total = 8*total + 4*bits.OnesCount64(fours) + 2*bits.OnesCount64(twos) + bits.OnesCount64(ones)
	return total + IntersectWords(a[i:], b[i:])
}

func and64(x, y []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(x[off:]) & binary.LittleEndian.Uint64(y[off:])
}
