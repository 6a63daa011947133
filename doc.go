// Package blockmat stores large square integer matrices on disk as fixed-size
// pages and transposes them in place, a page at a time.
//
// A matrix is loaded from a comma-separated text file of N rows of N 32-bit
// integers. On load blockmat counts the zero cells and picks one of two
// representations:
//
//   - Dense: the matrix is cut into an M×M grid of blocks, where M is the
//     largest square of 4-byte integers fitting a page. Block id is
//     blockRow·blocksPerRow + blockCol.
//   - Sparse: when the zero fraction reaches Config.SparseThreshold, the
//     nonzero cells are stored as (row, col, value) triplets in row-major
//     order, C triplets per page.
//
// Pages live in a blobstore.BlobStore (local files under Config.TempDir by
// default, or S3, MinIO or Badger) behind a buffer pool that pins at most the
// pages an operation is working on.
//
// # Quick Start
//
//	ctx := context.Background()
//	cat, _ := blockmat.NewCatalogue(blockmat.WithConfig(blockmat.DefaultConfig()))
//
//	m, _ := cat.Load(ctx, "A")       // reads ../data/A.csv
//	_ = m.Transpose(ctx)
//	_ = m.Print(ctx, os.Stdout)      // top-left 20×20 window
//	_ = m.MakePermanent(ctx)         // rewrites ../data/A.csv
//	_ = m.Unload(ctx)
//
// # Cursors
//
// Cursor walks a matrix in storage order: row segments for dense matrices and
// triplets for sparse ones.
//
//	cur := m.Cursor()
//	defer cur.Close()
//	for {
//		v, err := cur.Next(ctx)
//		if err != nil || v == nil {
//			break
//		}
//	}
//
// # Observability
//
// Operations are logged through Logger (log/slog) and reported to a
// MetricsCollector. PrometheusCollector exports them to Prometheus.
package blockmat
