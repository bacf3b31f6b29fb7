package searcher

import (
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/slichash/index"
	"github.com/hupe1980/slichash/model"
	"github.com/hupe1980/slichash/quantization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// block returns the descriptor of a 2×2 block of constant colour at (x, y).
func block(image model.ImageID, x, y int, c uint8) model.Region {
	var r model.Region
	r.Observe(x, y, [model.Channels]uint8{c, c, c})
	r.Observe(x+1, y+1, [model.Channels]uint8{c, c, c})
	r.Image = image
	return r
}

func setup(t *testing.T, entries ...model.Region) (*Resolver, *quantization.Quantizer, *index.Index) {
	t.Helper()

	q, err := quantization.New(quantization.DefaultConfig())
	require.NoError(t, err)

	ix := index.New()
	for _, e := range entries {
		require.NoError(t, ix.Insert(q.Quantize(e), e))
	}
	ix.Freeze()

	return NewResolver(ix, q), q, ix
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("SelfMatch", func(t *testing.T) {
		db := []model.Region{
			block(0, 0, 0, 10), block(0, 500, 0, 90), block(0, 0, 500, 200),
			block(1, 0, 0, 250), block(1, 900, 900, 30),
		}
		r, _, _ := setup(t, db...)

		res, err := r.Resolve(ctx, db[:3])
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, model.ImageID(0), res.Best.Image)
		assert.Equal(t, 3, res.Best.Votes)
		assert.Equal(t, 3, res.Hits)
	})

	t.Run("DisjointBucketsNoMatch", func(t *testing.T) {
		r, _, _ := setup(t, block(0, 0, 0, 10))

		res, err := r.Resolve(ctx, []model.Region{block(5, 3000, 2000, 250)})
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Empty(t, res.Candidates)
		assert.Equal(t, 0, res.Hits)
	})

	t.Run("EmptyIndexNoMatch", func(t *testing.T) {
		r, _, _ := setup(t)

		res, err := r.Resolve(ctx, []model.Region{block(0, 0, 0, 10)})
		require.NoError(t, err)
		assert.False(t, res.Found)
	})

	t.Run("EmptyQueryRegionsAreSkipped", func(t *testing.T) {
		r, _, _ := setup(t, block(0, 0, 0, 10))

		res, err := r.Resolve(ctx, []model.Region{{}, block(9, 0, 0, 10), {}})
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, 2, res.Skipped)
		assert.Equal(t, 3, res.Regions)
		assert.Equal(t, 1, res.Best.Votes)
	})

	t.Run("VotesCountEntriesNotQueryRegions", func(t *testing.T) {
		// Five regions of image 1 share one bucket, a single region of image 0
		// shares another.
		var db []model.Region
		for i := 0; i < 5; i++ {
			db = append(db, block(1, 0, 0, 100))
		}
		db = append(db, block(0, 2000, 1000, 100))
		r, _, _ := setup(t, db...)

		res, err := r.Resolve(ctx, []model.Region{block(9, 0, 0, 100), block(9, 2000, 1000, 100)})
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, model.ImageID(1), res.Best.Image)
		assert.Equal(t, 5, res.Best.Votes)
		assert.Equal(t, []Candidate{{Image: 1, Votes: 5}, {Image: 0, Votes: 1}}, res.Candidates)
	})

	t.Run("TieGoesToLowestImageID", func(t *testing.T) {
		// Insert image 3 first so insertion order and id order disagree.
		r, _, _ := setup(t, block(3, 0, 0, 60), block(2, 0, 0, 60), block(7, 0, 0, 60))

		for range 20 {
			res, err := r.Resolve(ctx, []model.Region{block(9, 0, 0, 60)})
			require.NoError(t, err)
			require.True(t, res.Found)
			assert.Equal(t, model.ImageID(2), res.Best.Image)
			assert.Equal(t, 1, res.Best.Votes)
		}
	})

	t.Run("Filter", func(t *testing.T) {
		r, _, _ := setup(t, block(0, 0, 0, 60), block(0, 0, 0, 60), block(1, 0, 0, 60))

		res, err := r.Resolve(ctx, []model.Region{block(9, 0, 0, 60)}, func(o *Options) {
			o.Filter = roaring.BitmapOf(1)
		})
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, model.ImageID(1), res.Best.Image)
		assert.Len(t, res.Candidates, 1)

		res, err = r.Resolve(ctx, []model.Region{block(9, 0, 0, 60)}, func(o *Options) {
			o.Filter = roaring.BitmapOf(4)
		})
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Equal(t, 0, res.Hits)
	})

	t.Run("TopN", func(t *testing.T) {
		r, _, _ := setup(t, block(0, 0, 0, 60), block(1, 0, 0, 60), block(2, 0, 0, 60))

		res, err := r.Resolve(ctx, []model.Region{block(9, 0, 0, 60)}, func(o *Options) {
			o.TopN = 2
		})
		require.NoError(t, err)
		assert.Equal(t, []Candidate{{Image: 0, Votes: 1}, {Image: 1, Votes: 1}}, res.Candidates)
	})

	t.Run("Canceled", func(t *testing.T) {
		r, _, _ := setup(t, block(0, 0, 0, 60))

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := r.Resolve(cctx, []model.Region{block(9, 0, 0, 60)})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestTally(t *testing.T) {
	tally := AcquireTally()
	defer ReleaseTally(tally)

	_, ok := tally.Best()
	assert.False(t, ok)

	tally.Vote(4)
	tally.Vote(4)
	tally.Vote(1)
	tally.Vote(9)
	tally.Vote(9)

	best, ok := tally.Best()
	require.True(t, ok)
	assert.Equal(t, Candidate{Image: 4, Votes: 2}, best)
	assert.Equal(t, 2, tally.Votes(9))
	assert.Equal(t, 3, tally.Len())
	assert.Equal(t, []Candidate{{4, 2}, {9, 2}, {1, 1}}, tally.Ranking())

	tally.Reset()
	assert.Equal(t, 0, tally.Len())
}
