// Package manifest persists matrix metadata next to the matrix pages.
//
// A manifest records the matrix name, its source locator and its layout, so a
// blocked matrix can be reattached by a later process without re-planning.
//
// # Format
//
// A manifest blob is the codec name, a newline, then the encoded Matrix:
//
//	go-json\n{"version":1,"name":"A",...}
//
// Load selects the codec by the recorded name.
//
// # Naming
//
// The manifest of matrix A is stored as "A_Manifest" in the page store, beside
// the "A_Page<i>" blobs.
package manifest
