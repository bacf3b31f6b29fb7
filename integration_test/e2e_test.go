package integration_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slichash"
	"github.com/hupe1980/slichash/blobstore"
	"github.com/hupe1980/slichash/colorspace"
	"github.com/hupe1980/slichash/imagestore"
	"github.com/hupe1980/slichash/resource"
	"github.com/hupe1980/slichash/segment"
	"github.com/hupe1980/slichash/testutil"
)

var palettes = map[string][]color.RGBA{
	"input0.png":     {{R: 230, G: 20, B: 20, A: 255}, {R: 210, G: 190, B: 140, A: 255}},
	"input1.png.zst": {{R: 20, G: 200, B: 40, A: 255}, {R: 10, G: 10, B: 90, A: 255}},
	"input2.png.lz4": {{R: 30, G: 40, B: 230, A: 255}, {R: 120, G: 120, B: 120, A: 255}},
}

func encode(t *testing.T, name string, img image.Image) []byte {
	t.Helper()

	var raw bytes.Buffer
	require.NoError(t, png.Encode(&raw, img))

	switch filepath.Ext(name) {
	case ".zst":
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		defer enc.Close()
		return enc.EncodeAll(raw.Bytes(), nil)
	case ".lz4":
		var out bytes.Buffer
		w := lz4.NewWriter(&out)
		_, err := w.Write(raw.Bytes())
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return out.Bytes()
	default:
		return raw.Bytes()
	}
}

func TestE2E_LocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	sources := make(map[string]image.Image, len(palettes))
	for name, palette := range palettes {
		img := testutil.BlockImage(120, 90, 30, 30, palette)
		sources[name] = img
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), encode(t, name, img), 0o600))
	}

	store := imagestore.New(blobstore.NewLocalStore(dir), func(o *imagestore.Options) {
		o.Resources = resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	})

	slic, err := segment.NewSLIC(func(o *segment.SLICOptions) { o.RegionSize = 15 })
	require.NoError(t, err)

	for _, cs := range []colorspace.Converter{colorspace.BGR{}, colorspace.Lab{}} {
		t.Run(cs.Name(), func(t *testing.T) {
			db, err := slichash.New(
				slichash.WithSegmenter(slic),
				slichash.WithColorSpace(cs),
				slichash.WithResources(resource.NewController(resource.Config{MaxWorkers: 2})),
			)
			require.NoError(t, err)

			ids, err := db.IndexStore(ctx, store, "input")
			require.NoError(t, err)
			require.Len(t, ids, len(palettes))

			for name, img := range sources {
				m, err := db.QueryImage(ctx, img)
				require.NoError(t, err)
				require.True(t, m.Found)
				require.Equal(t, name, m.Name)
			}
		})
	}
}

func TestE2E_NoMatch(t *testing.T) {
	ctx := context.Background()

	db, err := slichash.New(slichash.WithSegmenter(segment.NewGrid(10)))
	require.NoError(t, err)

	_, err = db.AddImage(ctx, "input0", testutil.UniformImage(40, 40, color.RGBA{R: 255, A: 255}))
	require.NoError(t, err)

	m, err := db.QueryImage(ctx, testutil.UniformImage(40, 40, color.RGBA{B: 255, A: 255}))
	require.NoError(t, err)
	require.False(t, m.Found)

	_, err = db.AddImage(ctx, "input1", testutil.UniformImage(40, 40, color.RGBA{B: 255, A: 255}))
	require.ErrorIs(t, err, slichash.ErrSealed)
}
