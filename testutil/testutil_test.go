package testutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNGReset(t *testing.T) {
	rng := NewRNG(4711)

	a := rng.Intn(1000)
	rng.Reset()
	b := rng.Intn(1000)

	assert.Equal(t, a, b)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestRegion(t *testing.T) {
	rng := NewRNG(4711)

	for range 100 {
		r := rng.Region(50, 20)
		assert.False(t, r.Empty())
		assert.GreaterOrEqual(t, r.MinX, 0)
		assert.Less(t, r.MaxX, 50)
		assert.Less(t, r.MaxY, 20)
		assert.LessOrEqual(t, r.MinX, r.MaxX)
		assert.LessOrEqual(t, r.MinY, r.MaxY)
	}
}

func TestBlockImage(t *testing.T) {
	palette := []color.RGBA{{R: 255, A: 255}, {G: 255, A: 255}}
	img := BlockImage(4, 2, 2, 2, palette)

	assert.Equal(t, palette[0], img.RGBAAt(0, 0))
	assert.Equal(t, palette[0], img.RGBAAt(1, 1))
	assert.Equal(t, palette[1], img.RGBAAt(2, 0))
	assert.Equal(t, palette[1], img.RGBAAt(3, 1))
}

func TestUniformImage(t *testing.T) {
	c := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	img := UniformImage(3, 3, c)

	assert.Equal(t, c, img.RGBAAt(2, 2))
	assert.Equal(t, 3, img.Bounds().Dx())
}
