// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("matrices/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	cat, err := blockmat.NewCatalogue(cfg, blockmat.WithPageStore(store))
//
// # Features
//
//   - Range reads for partial page fetches
//   - Multipart uploads through the transfer manager
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
