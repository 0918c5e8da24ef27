// Package mmap maps fingerprint files read-only into memory.
//
// A mapped fpb file backs arena storage directly, so opening it costs no
// copy:
//
//	m, err := mmap.Open("targets.fpb")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.AdviseRange(storageOff, storageLen, mmap.AdviceWillNeed)
//
// Unix uses mmap(2) and madvise(2). On Windows the view comes from
// MapViewOfFile and advice is ignored. Slices returned by Bytes are invalid
// after Close.
package mmap
