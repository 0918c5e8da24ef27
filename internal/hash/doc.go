// Package hash provides the CRC32-Castagnoli checksum used for fpb chunks
// and S3 upload integrity headers.
//
//	sum := hash.CRC32C(data)
//
//	w := hash.NewWriter(out)
//	w.Write(payload)
//	binary.Write(out, binary.LittleEndian, w.Sum32())
package hash
