// Package aggregate turns a segmented image into region descriptors.
//
// The aggregator visits every pixel exactly once in row-major order and keeps
// one accumulator per region. A region is emitted the moment its pixel count
// reaches the total supplied by the caller, so a single pass suffices and no
// second sweep is needed to find completed regions. Memory is bounded by the
// region count, not the pixel count.
package aggregate

import (
	"errors"
	"fmt"
	"image"

	"github.com/hupe1980/slichash/model"
)

// ErrContractViolation is returned when the inputs of an aggregation are
// inconsistent with each other (wrong totals, labels out of range, ...).
// Violations are never recovered internally.
var ErrContractViolation = errors.New("aggregate: contract violation")

// ErrIncompleteRegion indicates a region whose pixel total was never reached.
//
// It matches ErrContractViolation via errors.Is.
type ErrIncompleteRegion struct {
	Label int
	Seen  uint64
	Want  uint64
}

func (e *ErrIncompleteRegion) Error() string {
	return fmt.Sprintf("aggregate: region %d incomplete: saw %d of %d pixels", e.Label, e.Seen, e.Want)
}

func (e *ErrIncompleteRegion) Unwrap() error { return ErrContractViolation }

// Source provides the colour samples of one image in the colour space the
// quantizer should operate on.
type Source interface {
	// Bounds returns the pixel rectangle of the image.
	Bounds() image.Rectangle

	// Channels returns the three channel values of the pixel at (x, y).
	Channels(x, y int) [model.Channels]uint8
}

// Labels is a per-pixel region assignment produced by a segmenter.
type Labels struct {
	// Width and Height are the dimensions of the label map.
	Width, Height int

	// Count is the number of regions. Every label lies in [0, Count).
	Count int

	// Data holds one label per pixel, row-major: Data[y*Width+x].
	Data []int32
}

// NewLabels allocates a zeroed label map.
func NewLabels(width, height, count int) *Labels {
	return &Labels{
		Width:  width,
		Height: height,
		Count:  count,
		Data:   make([]int32, width*height),
	}
}

// At returns the label of the pixel at (x, y).
func (l *Labels) At(x, y int) int {
	return int(l.Data[y*l.Width+x])
}

// Set assigns a label to the pixel at (x, y).
func (l *Labels) Set(x, y, label int) {
	l.Data[y*l.Width+x] = int32(label)
}

// Validate checks the label map for internal consistency.
func (l *Labels) Validate() error {
	if l == nil {
		return fmt.Errorf("%w: nil label map", ErrContractViolation)
	}
	if l.Width < 0 || l.Height < 0 || l.Count < 0 {
		return fmt.Errorf("%w: negative label map dimensions", ErrContractViolation)
	}
	if len(l.Data) != l.Width*l.Height {
		return fmt.Errorf("%w: label map has %d entries, expected %d",
			ErrContractViolation, len(l.Data), l.Width*l.Height)
	}
	return nil
}

// CountPixels returns the number of pixels assigned to every region.
// This is the pre-pass callers run before Aggregate.
func CountPixels(labels *Labels) ([]uint64, error) {
	if err := labels.Validate(); err != nil {
		return nil, err
	}

	totals := make([]uint64, labels.Count)
	for i, label := range labels.Data {
		if label < 0 || int(label) >= labels.Count {
			return nil, fmt.Errorf("%w: label %d at pixel %d outside [0, %d)",
				ErrContractViolation, label, i, labels.Count)
		}
		totals[label]++
	}
	return totals, nil
}

// Aggregate builds region descriptors for one image.
//
// Pixels are visited once in row-major order. emit is called with a copy of
// each region the instant its pixel count equals totals[label]; emitted regions
// are never touched again. Regions whose total is 0 are never emitted.
//
// An error is returned if the inputs disagree: totals sized differently than
// labels.Count, a label map that does not cover the source, a label out of
// range, a region receiving more pixels than its total, or a region that never
// reaches its total (*ErrIncompleteRegion). All of them match
// ErrContractViolation.
func Aggregate(src Source, labels *Labels, totals []uint64, id model.ImageID, emit func(model.Region)) error {
	if err := labels.Validate(); err != nil {
		return err
	}
	if len(totals) != labels.Count {
		return fmt.Errorf("%w: %d pixel totals for %d regions", ErrContractViolation, len(totals), labels.Count)
	}

	bounds := src.Bounds()
	if bounds.Dx() != labels.Width || bounds.Dy() != labels.Height {
		return fmt.Errorf("%w: label map is %dx%d, image is %dx%d",
			ErrContractViolation, labels.Width, labels.Height, bounds.Dx(), bounds.Dy())
	}

	// One accumulator per region, released when the call returns.
	acc := make([]model.Region, labels.Count)

	for y := 0; y < labels.Height; y++ {
		row := labels.Data[y*labels.Width : (y+1)*labels.Width]
		for x, label := range row {
			r := int(label)
			if r < 0 || r >= labels.Count {
				return fmt.Errorf("%w: label %d at (%d,%d) outside [0, %d)",
					ErrContractViolation, r, x, y, labels.Count)
			}

			cur := &acc[r]
			if cur.Count >= totals[r] {
				return fmt.Errorf("%w: region %d has more than %d pixels", ErrContractViolation, r, totals[r])
			}

			if cur.Count == 0 {
				cur.Label = r
				cur.Image = id
			}
			cur.Observe(x, y, src.Channels(bounds.Min.X+x, bounds.Min.Y+y))

			if cur.Count == totals[r] {
				emit(*cur)
			}
		}
	}

	for r := range acc {
		if acc[r].Count != totals[r] {
			return &ErrIncompleteRegion{Label: r, Seen: acc[r].Count, Want: totals[r]}
		}
	}

	return nil
}

// Collect is like Aggregate but returns the emitted regions in emission order.
func Collect(src Source, labels *Labels, totals []uint64, id model.ImageID) ([]model.Region, error) {
	regions := make([]model.Region, 0, len(totals))
	if err := Aggregate(src, labels, totals, id, func(r model.Region) {
		regions = append(regions, r)
	}); err != nil {
		return nil, err
	}
	return regions, nil
}
