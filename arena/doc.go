// Package arena stores fingerprint collections in a columnar layout.
//
// An Arena holds N fingerprints back-to-back in one buffer at a fixed stride,
// a parallel slice of identifiers and, for popcount-sorted arenas, a popcount
// index mapping every Hamming weight to its contiguous slot range.
//
// Arenas are immutable. ReorderByPopcount and Copy return new arenas; Slice
// returns a zero-copy view that shares the parent's storage.
//
//	a, err := arena.Load(records, arena.WithReorder(true))
//	if err != nil {
//		return err
//	}
//	for batch, err := range a.Arenas(1024) {
//		...
//	}
package arena
