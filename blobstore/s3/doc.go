// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-1"))
//	if err != nil {
//	    return err
//	}
//
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "images/")
//	images := imagestore.New(store)
//
// # Features
//
//   - Range reads for partial fetches
//   - Concurrent multipart downloads (feature/s3/manager) for whole images
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
