// Package blobstore provides storage abstraction for the encoded images that
// are indexed and queried.
//
// BlobStore is a read-only interface: images are produced elsewhere and only
// listed and fetched here. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: In-memory store, writable through Put (tests, embedding)
//   - LocalStore: Local filesystem directory
//   - minio.Store: MinIO and other S3-compatible storage
//   - s3.Store: Amazon S3 with range reads and concurrent whole-object downloads
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Stores that can fetch an entire object faster than one ranged read (e.g.
// multipart downloads) additionally implement Fetcher, which ReadAll prefers.
package blobstore
