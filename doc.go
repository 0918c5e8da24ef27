// Package fpsim provides fast Tanimoto similarity search over binary
// fingerprints.
//
// fpsim searches packed bit-vector fingerprints, such as the 166-bit MACCS
// keys or 2048-bit Morgan fingerprints used in cheminformatics, with:
//
//   - Exact popcount pruning: only targets whose bit count can reach the
//     threshold are compared
//   - Threshold, k-nearest and count searches, each in batch, single
//     fingerprint and symmetric (all-pairs) form
//   - Popcount kernels selected per slot alignment, optionally by benchmark
//   - Batched query streams with a memory budget
//   - FPS text files (gzip, zstd or lz4 compressed) and memory-mapped FPB
//     binary files, on local disk or in S3 and MinIO
//
// # Quick Start
//
//	ctx := context.Background()
//	e, err := fpsim.New(fpsim.WithThreads(4))
//	if err != nil {
//	    panic(err)
//	}
//
//	// Popcount-sorted targets use the pruned search path.
//	targets, err := e.LoadArena(ctx, reader, true)
//	if err != nil {
//	    panic(err)
//	}
//
//	row, err := e.KNearestTanimotoSearchFP(ctx, query, targets, 5, 0.7)
//	for hit := range row.Hits() {
//	    fmt.Println(hit.ID, hit.Score)
//	}
//
// # Batched Searches
//
// Searches with many queries return a Stream. The first batch is searched
// before the call returns, so incompatible fingerprints fail immediately:
//
//	s, err := e.ThresholdTanimotoSearch(ctx, queries, targets, 0.8)
//	if err != nil {
//	    return err
//	}
//	for b, err := range s.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(b.Offset, b.Results)
//	}
//
// # Scores
//
// The Tanimoto score of fingerprints A and B is |A&B| / |A|B|, and 0 when
// both are empty. A target is a hit when its score is at least the
// threshold.
package fpsim
