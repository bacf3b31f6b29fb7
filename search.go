package slichash

import (
	"context"
	"image"

	"github.com/hupe1980/slichash/aggregate"
)

// Search creates a new fluent query builder for a segmented query image.
//
// Example:
//
//	match, err := db.Search(src, labels).
//	    Only("input0", "input3").
//	    Top(3).
//	    Execute(ctx)
func (db *DB) Search(src aggregate.Source, labels *aggregate.Labels) *SearchBuilder {
	return &SearchBuilder{
		db:     db,
		src:    src,
		labels: labels,
	}
}

// SearchImage creates a fluent query builder for an unsegmented image. The
// configured segmenter is applied on Execute.
func (db *DB) SearchImage(img image.Image) *SearchBuilder {
	return &SearchBuilder{
		db:  db,
		img: img,
	}
}

// SearchBuilder is a fluent builder for constructing queries.
type SearchBuilder struct {
	db     *DB
	src    aggregate.Source
	labels *aggregate.Labels
	img    image.Image
	opts   []QueryOption
}

// Only restricts voting to the named database images.
func (sb *SearchBuilder) Only(names ...string) *SearchBuilder {
	sb.opts = append(sb.opts, WithImages(names...))
	return sb
}

// Top limits the number of ranked candidates in the result.
func (sb *SearchBuilder) Top(n int) *SearchBuilder {
	sb.opts = append(sb.opts, WithTopN(n))
	return sb
}

// Execute runs the query.
func (sb *SearchBuilder) Execute(ctx context.Context) (Match, error) {
	if sb.img != nil {
		return sb.db.QueryImage(ctx, sb.img, sb.opts...)
	}
	return sb.db.Query(ctx, sb.src, sb.labels, sb.opts...)
}

// MustExecute runs the query, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (sb *SearchBuilder) MustExecute(ctx context.Context) Match {
	m, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return m
}
