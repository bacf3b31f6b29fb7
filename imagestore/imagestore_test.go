package imagestore

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/hupe1980/slichash/blobstore"
	"github.com/hupe1980/slichash/resource"
	"github.com/hupe1980/slichash/testutil"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newStore(t *testing.T) (*blobstore.MemoryStore, image.Image) {
	t.Helper()

	ctx := context.Background()
	img := testutil.BlockImage(8, 6, 4, 3, []color.RGBA{
		{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}, {R: 9, G: 9, B: 9, A: 255},
	})
	raw := encodePNG(t, img)

	blobs := blobstore.NewMemoryStore()
	require.NoError(t, blobs.Put(ctx, "input-1.png", raw))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	require.NoError(t, blobs.Put(ctx, "input-2.png.zst", enc.EncodeAll(raw, nil)))
	require.NoError(t, enc.Close())

	var lz bytes.Buffer
	w := lz4.NewWriter(&lz)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, blobs.Put(ctx, "input-3.png.lz4", lz.Bytes()))

	var bm bytes.Buffer
	require.NoError(t, bmp.Encode(&bm, img))
	require.NoError(t, blobs.Put(ctx, "input-4.bmp", bm.Bytes()))

	var tf bytes.Buffer
	require.NoError(t, tiff.Encode(&tf, img, nil))
	require.NoError(t, blobs.Put(ctx, "query-1.TIFF", tf.Bytes()))

	require.NoError(t, blobs.Put(ctx, "input-notes.txt", []byte("not an image")))
	require.NoError(t, blobs.Put(ctx, "input-broken.png", []byte("not a png")))

	return blobs, img
}

func assertSameImage(t *testing.T, want, got image.Image) {
	t.Helper()

	require.Equal(t, want.Bounds(), got.Bounds())
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			wr, wg, wb, _ := want.At(x, y).RGBA()
			gr, gg, gb, _ := got.At(x, y).RGBA()
			require.Equal(t, [3]uint32{wr, wg, wb}, [3]uint32{gr, gg, gb}, "pixel (%d,%d)", x, y)
		}
	}
}

func TestList(t *testing.T) {
	blobs, _ := newStore(t)
	store := New(blobs)

	names, err := store.List(context.Background(), "input")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"input-1.png", "input-2.png.zst", "input-3.png.lz4", "input-4.bmp", "input-broken.png",
	}, names)

	names, err = store.List(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []string{"query-1.TIFF"}, names)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	blobs, want := newStore(t)
	store := New(blobs)

	for _, name := range []string{"input-1.png", "input-2.png.zst", "input-3.png.lz4", "input-4.bmp", "query-1.TIFF"} {
		t.Run(name, func(t *testing.T) {
			got, err := store.Load(ctx, name)
			require.NoError(t, err)
			assertSameImage(t, want, got)
		})
	}

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "missing.png")
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := store.Load(ctx, "input-broken.png")
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestLoadMaxDimension(t *testing.T) {
	ctx := context.Background()

	blobs := blobstore.NewMemoryStore()
	require.NoError(t, blobs.Put(ctx, "big.png", encodePNG(t, testutil.UniformImage(40, 20, color.RGBA{R: 100, A: 255}))))
	require.NoError(t, blobs.Put(ctx, "small.png", encodePNG(t, testutil.UniformImage(5, 3, color.RGBA{R: 100, A: 255}))))

	store := New(blobs, func(o *Options) { o.MaxDimension = 10 })

	img, err := store.Load(ctx, "big.png")
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 5, img.Bounds().Dy())

	img, err = store.Load(ctx, "small.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 3), img.Bounds())
}

func TestLoadRateLimited(t *testing.T) {
	blobs, want := newStore(t)
	store := New(blobs, func(o *Options) {
		o.Resources = resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	})

	got, err := store.Load(context.Background(), "input-1.png")
	require.NoError(t, err)
	assertSameImage(t, want, got)
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"a.png", true},
		{"a.JPG", true},
		{"dir/a.jpeg.zst", true},
		{"a.webp.lz4", true},
		{"a.zst", false},
		{"a.txt", false},
		{"png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsImage(tt.name))
		})
	}
}
