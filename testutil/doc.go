// Package testutil provides testing utilities for blockmat.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random square matrices, rendering them
// as CSV sources and computing reference results.
//
// # Random Matrices
//
//	rng := testutil.NewRNG(seed)
//	dense := rng.DenseMatrix(100, -50, 50)   // no zeros
//	sparse := rng.SparseMatrix(100, 0.05)    // ~5% nonzero
//
// # Sources
//
//	path := testutil.WriteCSV(t, dir, "A", dense)
//
// # Reference Results
//
//	want := testutil.Transpose(dense)
//	triplets := testutil.Triplets(want)   // row-major nonzeros
package testutil
