// Package index provides the bucket index: a multi-valued map from bucket key
// to the region descriptors that quantized into it.
//
// The index is append-only. Entries are never updated or removed and the
// insertion order inside a bucket is preserved; no order is defined across
// buckets. Many regions sharing a key, from the same or different images, is
// the retrieval signal, not a collision to resolve.
//
// # Phases
//
// Inserts belong to the build phase. Freeze ends it: afterwards Insert fails
// with ErrFrozen and the index is read-only, so any number of goroutines may
// call Lookup concurrently. An RWMutex guards the map in both phases.
//
// # Capacity
//
// Buckets are unbounded and never evicted. This is fine for the small image
// databases the package targets; Stats exposes the largest bucket to make
// skew visible.
package index
