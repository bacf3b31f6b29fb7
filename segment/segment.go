// Package segment partitions images into regions.
//
// A Segmenter produces a label map whose labels are compact, i.e. every
// label lies in [0, Count). The aggregator and the rest of the core only see
// the label map; which algorithm produced it is irrelevant to them.
package segment

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/slichash/aggregate"
)

// ErrInvalidOptions is returned for non-positive segmenter parameters.
var ErrInvalidOptions = errors.New("segment: invalid options")

// Segmenter assigns every pixel of an image to a region.
type Segmenter interface {
	Segment(ctx context.Context, src aggregate.Source) (*aggregate.Labels, error)
}

// Grid splits an image into fixed-size rectangular cells. Cells on the right
// and bottom border may be smaller.
type Grid struct {
	CellWidth  int
	CellHeight int
}

// NewGrid returns a grid segmenter with square cells.
func NewGrid(size int) *Grid {
	return &Grid{CellWidth: size, CellHeight: size}
}

// Segment implements Segmenter.
func (g *Grid) Segment(ctx context.Context, src aggregate.Source) (*aggregate.Labels, error) {
	if g.CellWidth <= 0 || g.CellHeight <= 0 {
		return nil, fmt.Errorf("%w: cell size %dx%d", ErrInvalidOptions, g.CellWidth, g.CellHeight)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	cols := ceilDiv(w, g.CellWidth)
	rows := ceilDiv(h, g.CellHeight)

	labels := aggregate.NewLabels(w, h, cols*rows)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			labels.Set(x, y, (y/g.CellHeight)*cols+x/g.CellWidth)
		}
	}
	return labels, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
