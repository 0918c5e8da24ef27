// Package fs abstracts the filesystem operations behind local blob writes.
//
// [LocalFS] is the production implementation. [FaultyFS] wraps another
// FileSystem and fails writes, syncs, closes or renames for matching file
// names, so tests can check that a failed write never leaves a partial
// file in place:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("targets.fpb", fs.Fault{FailAfterBytes: 1024})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
package fs
