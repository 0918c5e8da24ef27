// Package simd provides the bit-counting kernels behind fingerprint similarity.
//
// # Kernels
//
//   - LUT8: one table lookup per byte; works for any buffer length
//   - LUT16: one lookup per 16-bit word from a 64 KiB table
//   - POPCNT: 64-bit words through math/bits, which the compiler lowers to the
//     hardware population-count instruction where the CPU has one
//   - Lanes: Harley-Seal carry-save counting over 256-bit lanes (four words
//     per step), the same reduction AVX2 popcount kernels perform in registers
//
// Every kernel returns exact counts for any input length; the restrictions on
// which kernel may serve which storage layout are enforced by the popcount
// package, not here.
//
// # Platform detection
//
// CPU features are detected once at init through golang.org/x/sys/cpu and are
// read-only afterwards. Set FPSIM_SIMD=generic to report a generic CPU, which
// disables the hardware POPCNT kernel for selection purposes.
package simd
