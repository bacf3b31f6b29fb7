package index

import (
	"errors"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/slichash/model"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInvalidKey is returned when inserting under model.InvalidKey or any
	// other negative key.
	ErrInvalidKey = errors.New("index: invalid bucket key")

	// ErrEmptyRegion is returned when inserting a region without pixels.
	ErrEmptyRegion = errors.New("index: empty region")

	// ErrFrozen is returned when inserting into a frozen index.
	ErrFrozen = errors.New("index: frozen")
)

// Stats is a snapshot of index occupancy.
type Stats struct {
	// Entries is the total number of indexed regions.
	Entries int

	// Buckets is the number of non-empty buckets.
	Buckets int

	// LargestBucket is the entry count of the fullest bucket.
	LargestBucket int

	// Images is the number of distinct images with at least one entry.
	Images int

	// MeanBucket and StdDevBucket describe the entry counts of the non-empty
	// buckets. A high deviation means a few buckets dominate every query.
	MeanBucket   float64
	StdDevBucket float64
}

// String returns a string representation of the Stats.
func (s Stats) String() string {
	return fmt.Sprintf("entries=%d buckets=%d largest=%d mean=%.2f stddev=%.2f images=%d",
		s.Entries, s.Buckets, s.LargestBucket, s.MeanBucket, s.StdDevBucket, s.Images)
}

// Index maps bucket keys to insertion-ordered region descriptors.
//
// Index is safe for concurrent use.
type Index struct {
	mu sync.RWMutex

	buckets map[model.Key][]model.Region

	// images tracks every image with at least one entry.
	images *roaring.Bitmap

	entries int
	largest int
	frozen  bool
}

// New creates an empty index.
func New() *Index {
	return &Index{
		buckets: make(map[model.Key][]model.Region),
		images:  roaring.New(),
	}
}

// Insert appends r to the bucket addressed by key, creating the bucket on
// first use. The caller must have obtained key from the quantizer.
func (ix *Index) Insert(key model.Key, r model.Region) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidKey, key)
	}
	if r.Empty() {
		return ErrEmptyRegion
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.frozen {
		return ErrFrozen
	}

	ix.insertLocked(key, r)
	return nil
}

// InsertBatch appends all regions under their keys atomically with respect
// to Freeze: either every entry is inserted or none is. keys[i] belongs to
// regions[i].
func (ix *Index) InsertBatch(keys []model.Key, regions []model.Region) error {
	if len(keys) != len(regions) {
		return fmt.Errorf("index: %d keys for %d regions", len(keys), len(regions))
	}
	for i, key := range keys {
		if !key.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidKey, key)
		}
		if regions[i].Empty() {
			return ErrEmptyRegion
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.frozen {
		return ErrFrozen
	}

	for i, key := range keys {
		ix.insertLocked(key, regions[i])
	}
	return nil
}

// insertLocked must be called with ix.mu held for writing.
func (ix *Index) insertLocked(key model.Key, r model.Region) {
	bucket := append(ix.buckets[key], r)
	ix.buckets[key] = bucket
	ix.images.Add(uint32(r.Image))
	ix.entries++
	ix.largest = max(ix.largest, len(bucket))
}

// Lookup returns the entries of the bucket addressed by key in insertion
// order, or nil if the bucket does not exist.
//
// The returned slice is a read-only view; it stays valid after later inserts
// because buckets only ever grow by appending.
func (ix *Index) Lookup(key model.Key) []model.Region {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	bucket := ix.buckets[key]
	// Clip capacity so an append by the caller can never write into the index.
	return bucket[:len(bucket):len(bucket)]
}

// Freeze ends the build phase. It is idempotent.
func (ix *Index) Freeze() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.frozen = true
}

// Frozen reports whether Freeze was called.
func (ix *Index) Frozen() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.frozen
}

// Len returns the total number of entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.entries
}

// Buckets returns the number of non-empty buckets.
func (ix *Index) Buckets() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.buckets)
}

// Images returns a copy of the set of images with at least one entry.
func (ix *Index) Images() *roaring.Bitmap {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.images.Clone()
}

// Stats returns a snapshot of index occupancy.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	s := Stats{
		Entries:       ix.entries,
		Buckets:       len(ix.buckets),
		LargestBucket: ix.largest,
		Images:        int(ix.images.GetCardinality()),
	}

	switch len(ix.buckets) {
	case 0:
	case 1:
		s.MeanBucket = float64(ix.entries)
	default:
		sizes := make([]float64, 0, len(ix.buckets))
		for _, bucket := range ix.buckets {
			sizes = append(sizes, float64(len(bucket)))
		}
		s.MeanBucket, s.StdDevBucket = stat.MeanStdDev(sizes, nil)
	}
	return s
}
