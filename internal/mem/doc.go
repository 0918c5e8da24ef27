// Package mem provides aligned storage for fingerprint slots.
//
// # Aligned Allocation
//
// Slot buffers start on a 64-byte boundary, so every slot whose stride is a
// multiple of the alignment is itself aligned.
package mem
