// Package mmap maps local page files read-only.
//
// A materialized page is decoded straight from the mapping and the mapping is
// closed immediately afterwards, so a mapping never outlives one page read.
//
//	m, err := mmap.Open("../data/temp/A_Page3")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix uses mmap(2)/madvise(2); Windows uses CreateFileMapping/MapViewOfFile
// and ignores access hints.
package mmap
