// Package quantization maps region descriptors to composite bucket keys.
//
// A key is built from five quantized coordinates: the average of each of the
// three colour channels and the two coordinates of the bounding-box centre.
//
//	q, _ := quantization.New(quantization.DefaultConfig())
//	key := q.Quantize(region) // model.InvalidKey for empty regions
//
// # Colour Buckets
//
// Each channel average is split into ChannelBuckets equal-width buckets over
// [0, ChannelRange). With the defaults (16 buckets over 8-bit channels) the
// bucket width is 16.
//
// # Spatial Buckets
//
// The centre is split into XBuckets × YBuckets cells over an assumed maximum
// image extent of MaxWidth × MaxHeight (3840 × 2160 by default). The extent is
// a configuration constant, not derived from the image. Larger images still
// quantize because every coordinate is clamped into range, but all centres
// beyond the extent collapse into the last spatial bucket.
//
// # Key Layout
//
// Coordinates are packed in mixed radix in the order c1, c2, c3, x, y:
//
//	key = (((c1*C + c2)*C + c3)*X + x)*Y + y
//
// The default key space is 16·16·16·10·10 = 409600 keys.
package quantization
