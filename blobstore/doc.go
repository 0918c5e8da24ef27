// Package blobstore abstracts where fingerprint files are stored.
//
// Target and query files are immutable once written, so a BlobStore only
// needs whole-blob writes, streaming reads and range reads:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// # Implementations
//
//   - LocalStore: files below a directory, opened with mmap
//   - MemoryStore: in-memory, for tests and pipelines
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with multipart uploads
//
// Blobs that can be addressed in memory implement Mappable. The fpb package
// uses it to build arenas directly on top of a mapped file.
//
// Writes become visible only on Close. A writer that fails half way calls
// Abort, and LocalStore then removes its temporary file.
package blobstore
