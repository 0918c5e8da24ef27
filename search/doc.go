// Package search implements Tanimoto count, threshold and k-nearest searches
// over fingerprint arenas.
//
// Every search comes in three forms: arena-vs-arena, where each query slot
// produces one result row; single fingerprint (the FP suffix), equivalent to
// a one-row query arena; and symmetric self-search over one popcount-sorted
// arena, which never reports a slot as its own hit.
//
// Targets with a popcount index are searched on the fast path: each query
// scans only the popcount buckets that can reach the threshold. Unsorted
// targets are scanned linearly. The Source forms take targets that need not
// be in memory, such as an FPS reader, and scan them one batch at a time.
//
// Threshold rows are returned in scan order, which is not a documented
// order; reorder them with package results when order matters. K-nearest rows
// are sorted by decreasing score. Among equal scores the hit found first
// ranks first, and a tie at the k-th position keeps the earlier hit.
package search
