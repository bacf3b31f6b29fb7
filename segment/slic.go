package segment

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/slichash/aggregate"
	"github.com/hupe1980/slichash/model"
)

// SLICOptions configures the SLIC superpixel segmenter.
type SLICOptions struct {
	// RegionSize is the grid step between initial cluster centres, in pixels.
	RegionSize int

	// Compactness trades colour similarity against spatial proximity. Larger
	// values yield more regular superpixels.
	Compactness float64

	// Iterations is the number of assignment/update rounds.
	Iterations int

	// MinSizePercent is the minimum size of a connected segment as a
	// percentage of RegionSize². Smaller segments are merged into an
	// adjacent one. Zero disables merging.
	MinSizePercent int
}

// DefaultSLICOptions returns the default SLIC parameters.
func DefaultSLICOptions() SLICOptions {
	return SLICOptions{
		RegionSize:     25,
		Compactness:    10,
		Iterations:     10,
		MinSizePercent: 4,
	}
}

// Validate checks the options.
func (o SLICOptions) Validate() error {
	switch {
	case o.RegionSize <= 0:
		return fmt.Errorf("%w: region size %d", ErrInvalidOptions, o.RegionSize)
	case o.Compactness <= 0:
		return fmt.Errorf("%w: compactness %v", ErrInvalidOptions, o.Compactness)
	case o.Iterations <= 0:
		return fmt.Errorf("%w: %d iterations", ErrInvalidOptions, o.Iterations)
	case o.MinSizePercent < 0 || o.MinSizePercent > 100:
		return fmt.Errorf("%w: minimum size %d%%", ErrInvalidOptions, o.MinSizePercent)
	}
	return nil
}

// SLIC clusters pixels by k-means in the joint (channel, position) space,
// restricted to a 2S×2S window around each centre. Feed it Lab samples for
// perceptually uniform superpixels.
type SLIC struct {
	opts SLICOptions
}

// NewSLIC creates a SLIC segmenter.
func NewSLIC(optFns ...func(o *SLICOptions)) (*SLIC, error) {
	opts := DefaultSLICOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &SLIC{opts: opts}, nil
}

// Options returns the configuration of the segmenter.
func (s *SLIC) Options() SLICOptions {
	return s.opts
}

type center struct {
	x, y  float64
	color [model.Channels]float64
}

type centerSum struct {
	x, y  float64
	color [model.Channels]float64
	n     int
}

// Segment implements Segmenter.
func (s *SLIC) Segment(ctx context.Context, src aggregate.Source) (*aggregate.Labels, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return aggregate.NewLabels(w, h, 0), nil
	}

	pix := make([][model.Channels]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.Channels(b.Min.X+x, b.Min.Y+y)
			p := &pix[y*w+x]
			for i := range c {
				p[i] = float64(c[i])
			}
		}
	}

	step := s.opts.RegionSize
	cols := ceilDiv(w, step)
	rows := ceilDiv(h, step)

	centers := make([]center, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cx, cy := lowestGradient(pix, w, h, min(c*step+step/2, w-1), min(r*step+step/2, h-1))
			centers = append(centers, center{x: float64(cx), y: float64(cy), color: pix[cy*w+cx]})
		}
	}

	// Start from the seeding grid so pixels outside every search window keep
	// a valid assignment.
	assign := make([]int32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			assign[y*w+x] = int32((y/step)*cols + x/step)
		}
	}

	dist := make([]float64, w*h)
	sums := make([]centerSum, len(centers))
	weight := (s.opts.Compactness / float64(step)) * (s.opts.Compactness / float64(step))

	for it := 0; it < s.opts.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range dist {
			dist[i] = math.Inf(1)
		}

		for k, c := range centers {
			x0, x1 := max(0, int(c.x)-step), min(w, int(c.x)+step+1)
			y0, y1 := max(0, int(c.y)-step), min(h, int(c.y)+step+1)

			for y := y0; y < y1; y++ {
				dy := float64(y) - c.y
				for x := x0; x < x1; x++ {
					i := y*w + x
					dx := float64(x) - c.x

					d := colorDist(pix[i], c.color) + weight*(dx*dx+dy*dy)
					if d < dist[i] {
						dist[i] = d
						assign[i] = int32(k)
					}
				}
			}
		}

		clear(sums)
		for i, k := range assign {
			sum := &sums[k]
			sum.x += float64(i % w)
			sum.y += float64(i / w)
			for ch := range sum.color {
				sum.color[ch] += pix[i][ch]
			}
			sum.n++
		}
		for k := range centers {
			sum := sums[k]
			if sum.n == 0 {
				continue
			}
			n := float64(sum.n)
			centers[k].x = sum.x / n
			centers[k].y = sum.y / n
			for ch := range sum.color {
				centers[k].color[ch] = sum.color[ch] / n
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	minSize := step * step * s.opts.MinSizePercent / 100
	data, count := enforceConnectivity(assign, w, h, minSize)

	return &aggregate.Labels{Width: w, Height: h, Count: count, Data: data}, nil
}

func colorDist(a, b [model.Channels]float64) float64 {
	var d float64
	for i := range a {
		v := a[i] - b[i]
		d += v * v
	}
	return d
}

// lowestGradient moves a seed to the lowest gradient position in its 3×3
// neighbourhood so centres do not start on an edge.
func lowestGradient(pix [][model.Channels]float64, w, h, x, y int) (int, int) {
	bestX, bestY := x, y
	best := math.Inf(1)

	for ny := y - 1; ny <= y+1; ny++ {
		for nx := x - 1; nx <= x+1; nx++ {
			if nx < 1 || ny < 1 || nx >= w-1 || ny >= h-1 {
				continue
			}
			g := colorDist(pix[ny*w+nx+1], pix[ny*w+nx-1]) +
				colorDist(pix[(ny+1)*w+nx], pix[(ny-1)*w+nx])
			if g < best {
				best = g
				bestX, bestY = nx, ny
			}
		}
	}
	return bestX, bestY
}

var neighbours = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// enforceConnectivity relabels assign so that every label is a single
// 4-connected component. Components smaller than minSize are merged into the
// component adjacent to their first pixel in raster order. The returned
// labels are compact.
func enforceConnectivity(assign []int32, w, h, minSize int) ([]int32, int) {
	out := make([]int32, len(assign))
	for i := range out {
		out[i] = -1
	}

	var (
		next  int32
		queue []int
	)

	for i := range assign {
		if out[i] >= 0 {
			continue
		}

		// The left and upper neighbours of the first unvisited pixel in
		// raster order always belong to finished components.
		adj := int32(-1)
		if x := i % w; x > 0 {
			adj = out[i-1]
		} else if i >= w {
			adj = out[i-w]
		}

		old := assign[i]
		out[i] = next
		queue = append(queue[:0], i)

		for head := 0; head < len(queue); head++ {
			p := queue[head]
			px, py := p%w, p/w

			for _, d := range neighbours {
				nx, ny := px+d[0], py+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if q := ny*w + nx; out[q] < 0 && assign[q] == old {
					out[q] = next
					queue = append(queue, q)
				}
			}
		}

		if len(queue) < minSize && adj >= 0 {
			for _, p := range queue {
				out[p] = adj
			}
			continue
		}
		next++
	}

	return out, int(next)
}
