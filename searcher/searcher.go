// Package searcher resolves queries against the bucket index by voting.
//
// Every query region is quantized and looked up; each entry found in the
// bucket casts one vote for its source image. Entries are counted, not query
// regions: one query region colliding with five regions of the same database
// image contributes five votes. The image with the most votes wins; ties go
// to the lowest ImageID.
package searcher

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/slichash/index"
	"github.com/hupe1980/slichash/model"
	"github.com/hupe1980/slichash/quantization"
)

// Options configures a single resolution.
type Options struct {
	// Filter restricts voting to the images in the bitmap. Nil means all.
	Filter *roaring.Bitmap

	// TopN limits Result.Candidates. Zero or less keeps every candidate.
	TopN int
}

// Result is the outcome of a resolution.
type Result struct {
	// Best is the winning candidate. Only meaningful when Found is true.
	Best Candidate

	// Found is false when no vote was cast (NoMatch).
	Found bool

	// Candidates is the ranking of all voted images, best first.
	Candidates []Candidate

	// Regions is the number of query regions examined.
	Regions int

	// Skipped is the number of query regions that were empty.
	Skipped int

	// Hits is the number of query regions whose bucket had entries.
	Hits int
}

// Resolver answers queries against an index. It is safe for concurrent use
// as long as the index is no longer being written to.
type Resolver struct {
	index     *index.Index
	quantizer *quantization.Quantizer
}

// NewResolver creates a resolver over ix. q must be the quantizer the index
// was built with.
func NewResolver(ix *index.Index, q *quantization.Quantizer) *Resolver {
	return &Resolver{index: ix, quantizer: q}
}

// Resolve tallies the votes of regions and reports the best image.
// An empty tally yields Found == false and a nil error.
func (r *Resolver) Resolve(ctx context.Context, regions []model.Region, optFns ...func(o *Options)) (Result, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	tally := AcquireTally()
	defer ReleaseTally(tally)

	res := Result{Regions: len(regions)}

	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		key := r.quantizer.Quantize(region)
		if !key.Valid() {
			res.Skipped++
			continue
		}

		bucket := r.index.Lookup(key)
		if len(bucket) == 0 {
			continue
		}

		hit := false
		for _, entry := range bucket {
			if opts.Filter != nil && !opts.Filter.Contains(uint32(entry.Image)) {
				continue
			}
			tally.Vote(entry.Image)
			hit = true
		}
		if hit {
			res.Hits++
		}
	}

	res.Best, res.Found = tally.Best()
	res.Candidates = tally.Ranking()
	if opts.TopN > 0 && len(res.Candidates) > opts.TopN {
		res.Candidates = res.Candidates[:opts.TopN]
	}

	return res, nil
}
