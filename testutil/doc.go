// Package testutil provides testing utilities for fpsim.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random fingerprints and computing exact
// search answers by brute force.
//
// # Random Fingerprints
//
//	rng := testutil.NewRNG(seed)
//	fps := rng.Fingerprints(1000, 128) // mixed bit densities
//	near := rng.Mutate(fps[0], 3)      // flip three bits
//
// # Exact Search (Ground Truth)
//
//	rows := testutil.BruteForce(queries, targets, 0.7)
//	top := testutil.TopK(rows[0], 5)
package testutil
