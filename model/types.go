package model

import (
	"fmt"
)

// ImageID is the stable identifier of a database image.
// IDs are assigned densely in registration order, starting at 0.
type ImageID uint32

// String returns a string representation of the ImageID.
func (id ImageID) String() string {
	return fmt.Sprintf("img(%d)", uint32(id))
}

// Key is a composite bucket key. Valid keys are non-negative.
type Key int32

// InvalidKey is returned by the quantizer for regions without pixels.
// It is never a valid bucket.
const InvalidKey Key = -1

// Valid reports whether k addresses a bucket.
func (k Key) Valid() bool {
	return k >= 0
}

// Channels is the number of colour channels aggregated per pixel.
const Channels = 3

// Region is the descriptor of one segmented region of one image.
//
// Bounds and sums are only meaningful once Count > 0. A region with
// Count == 0 is empty and must never be quantized or indexed.
type Region struct {
	// Sum holds the running per-channel colour sums.
	Sum [Channels]int64

	// MinX, MaxX, MinY and MaxY describe the bounding box in pixel
	// coordinates (X is the column, Y is the row), inclusive.
	MinX, MaxX int
	MinY, MaxY int

	// Count is the number of pixels observed so far.
	Count uint64

	// Label is the region index within its image.
	Label int

	// Image identifies the source image.
	Image ImageID
}

// Empty reports whether the region has not observed any pixel.
func (r Region) Empty() bool {
	return r.Count == 0
}

// Mean returns the average value of every colour channel.
// It returns zeros for an empty region.
func (r Region) Mean() [Channels]float64 {
	var mean [Channels]float64
	if r.Count == 0 {
		return mean
	}
	for i, s := range r.Sum {
		mean[i] = float64(s) / float64(r.Count)
	}
	return mean
}

// Center returns the midpoint of the bounding box.
func (r Region) Center() (x, y float64) {
	return float64(r.MinX+r.MaxX) / 2, float64(r.MinY+r.MaxY) / 2
}

// Observe adds one pixel at (x, y) with the given channel values.
// The first observed pixel initialises the bounding box.
func (r *Region) Observe(x, y int, c [Channels]uint8) {
	for i, v := range c {
		r.Sum[i] += int64(v)
	}
	if r.Count == 0 {
		r.MinX, r.MaxX = x, x
		r.MinY, r.MaxY = y, y
	} else {
		r.MinX = min(r.MinX, x)
		r.MaxX = max(r.MaxX, x)
		r.MinY = min(r.MinY, y)
		r.MaxY = max(r.MaxY, y)
	}
	r.Count++
}

// String returns a string representation of the Region.
func (r Region) String() string {
	return fmt.Sprintf("Region(%s#%d n=%d box=[%d..%d]x[%d..%d])",
		r.Image, r.Label, r.Count, r.MinX, r.MaxX, r.MinY, r.MaxY)
}
