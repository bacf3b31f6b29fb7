// Package slichash provides an embedded superpixel-based image retrieval
// database for Go.
//
// Each database image is segmented into superpixels. Every superpixel is
// reduced to a descriptor (summed colour, bounding box, pixel count) and
// quantized into one of 16×16×16×10×10 buckets by its mean colour and the
// centre of its bounding box. A query image goes through the same pipeline;
// every database descriptor found in a bucket the query maps to casts one
// vote for its image, and the image with the most votes is the match.
//
// # Quick Start
//
//	ctx := context.Background()
//	slic, _ := segment.NewSLIC()
//	db, _ := slichash.New(slichash.WithSegmenter(slic))
//
//	db.AddImage(ctx, "input0", img0)
//	db.AddImage(ctx, "input1", img1)
//
//	match, _ := db.QueryImage(ctx, query)
//	if match.Found {
//	    fmt.Println(match.Name, match.Votes)
//	}
//
// Callers that run their own segmentation pass the label map directly:
//
//	id, err := db.Add(ctx, "input0", src, labels)
//
// # Phases
//
// A database is built first and queried afterwards. The first query seals
// the database; any later Add fails with ErrSealed. Seal can also be called
// explicitly.
//
// # Bulk Loading
//
// Build and IndexStore segment and aggregate images concurrently, bounded by
// the resource.Controller passed via WithResources, and insert them in input
// order, so the assigned ImageIDs are deterministic:
//
//	store := imagestore.New(blobstore.NewLocalStore("./images"))
//	ids, err := db.IndexStore(ctx, store, "input")
//
// # Key Features
//
//   - Single-pass, constant-memory region aggregation
//   - Pluggable segmentation (SLIC, fixed grid) and colour spaces (RGB, BGR, Lab)
//   - Image sources on local disk, in memory, MinIO or S3
//   - Transparent zstd/lz4 decompression of stored images
//   - Structured logging (log/slog) and pluggable metrics
package slichash
