// Package model defines core types used throughout slichash.
//
// # Identity Types
//
//   - ImageID: Dense, registry-assigned identifier of a database image (uint32)
//   - Key: Composite bucket key produced by the quantizer (int32)
//
// # Data Types
//
//   - Region: Aggregated colour sums, bounding box and pixel count of one
//     segmented region (a "superpixel") of one image
//
// Regions never point at the image they were taken from. They carry the
// ImageID handed out by the registry, so source images may be released as
// soon as their regions have been aggregated.
package model
