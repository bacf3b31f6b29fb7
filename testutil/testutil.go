package testutil

import (
	"image"
	"image/color"
	"math/rand"
	"sync"

	"github.com/hupe1980/slichash/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Color returns a random three-channel sample.
func (r *RNG) Color() [model.Channels]uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.colorLocked()
}

func (r *RNG) colorLocked() [model.Channels]uint8 {
	var c [model.Channels]uint8
	for i := range c {
		c[i] = uint8(r.rand.Intn(256))
	}
	return c
}

// Region generates a random non-empty descriptor whose bounding box lies in
// [0, maxX) × [0, maxY).
func (r *RNG) Region(maxX, maxY int) model.Region {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reg model.Region
	n := 1 + r.rand.Intn(32)
	for range n {
		reg.Observe(r.rand.Intn(maxX), r.rand.Intn(maxY), r.colorLocked())
	}
	return reg
}

// NoiseImage generates an image with independent random pixels.
func (r *RNG) NoiseImage(width, height int) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			c := r.colorLocked()
			img.SetRGBA(x, y, color.RGBA{R: c[0], G: c[1], B: c[2], A: 255})
		}
	}
	return img
}

// UniformImage returns an image filled with a single colour.
func UniformImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// BlockImage returns an image tiled with blockW × blockH blocks. Blocks are
// coloured from palette in row-major order, wrapping around.
func BlockImage(width, height, blockW, blockH int, palette []color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	cols := (width + blockW - 1) / blockW
	for y := range height {
		for x := range width {
			block := (y/blockH)*cols + x/blockW
			img.SetRGBA(x, y, palette[block%len(palette)])
		}
	}
	return img
}
