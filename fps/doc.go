// Package fps reads and writes FPS fingerprint files.
//
// An FPS file is text: the magic line "#FPS1", header lines "#key=value",
// then one fingerprint per line as hex, a tab and the id:
//
//	#FPS1
//	#num_bits=166
//	#type=RDKit-MACCS166/2
//	#software=RDKit/2024.03.1
//	000000000000000000000000000000000000008000	CHEMBL1
//
// Readers detect gzip, zstd and lz4 compression from the content; writers
// choose it from the file extension.
//
// A Reader implements arena.Source, so a file can be searched directly:
//
//	r, err := fps.Open("queries.fps.gz")
//	if err != nil { ... }
//	defer r.Close()
//	stream, err := engine.ThresholdTanimotoSearch(ctx, r, targets, 0.7)
package fps
