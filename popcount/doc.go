// Package popcount selects and exposes the bit-counting kernels used to score
// fingerprints.
//
// A kernel is chosen per AlignmentClass, the padding scheme of an arena's
// storage stride. The selection lives in a Config value owned by whoever runs
// searches; there is no process-wide state. NewConfig picks a sensible method
// per class from the detected CPU features, AutoSelect benchmarks every
// compatible method and keeps the fastest, and Config.Set lets callers force a
// method. Forcing a method that cannot serve a class fails immediately:
//
//	cfg := popcount.NewConfig()
//	if err := cfg.Set(popcount.Align1, popcount.MethodPOPCNT); err != nil {
//	    // *popcount.MethodError: POPCNT needs 4-byte aligned storage
//	}
//	k := cfg.Kernels(popcount.Align8Small)
//	n := k.Intersect(a, b)
package popcount
