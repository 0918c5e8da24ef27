// Package fpb stores arenas in a binary file that can be searched straight
// from a memory mapping.
//
// A file is a 16-byte header followed by chunks. Each chunk is a 12-byte
// head (payload length, four-character tag), the payload and a CRC32C of
// the payload:
//
//	META  codec name and encoded metadata.Metadata
//	AREN  alignment, stride, count, padding, slot storage
//	POPC  popcount index, present for popcount-sorted arenas
//	FPID  ids, optionally zstd-compressed
//	FEND  end marker
//
// The slot storage of AREN starts on a 64-byte file offset, so a mapped file
// yields an arena whose storage needs no copy. Unknown chunks are skipped.
//
// Writing:
//
//	err := fpb.Save("targets.fpb", targets)
//
// Reading:
//
//	targets, err := fpb.Open("targets.fpb")
//	if err != nil {
//	    return err
//	}
//	defer targets.Close()
package fpb
