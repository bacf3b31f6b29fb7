package slichash_test

import (
	"context"
	"fmt"
	"image/color"
	"log"

	"github.com/hupe1980/slichash"
	"github.com/hupe1980/slichash/aggregate"
	"github.com/hupe1980/slichash/colorspace"
	"github.com/hupe1980/slichash/segment"
	"github.com/hupe1980/slichash/testutil"
)

// Example demonstrates adding a pre-segmented image and querying it.
func Example() {
	ctx := context.Background()

	db, err := slichash.New()
	if err != nil {
		log.Fatal(err)
	}

	// A uniform grey 4x4 image forming a single superpixel.
	src := colorspace.Convert(testutil.UniformImage(4, 4, color.RGBA{R: 128, G: 128, B: 128, A: 255}), colorspace.BGR{})
	labels := aggregate.NewLabels(4, 4, 1)

	if _, err := db.Add(ctx, "input0", src, labels); err != nil {
		log.Fatal(err)
	}

	match, err := db.Query(ctx, src, labels)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(match.Name, match.Votes)
	// Output: input0 1
}

// Example_searchBuilder demonstrates the fluent query builder.
func Example_searchBuilder() {
	ctx := context.Background()

	db, err := slichash.New(slichash.WithSegmenter(segment.NewGrid(8)))
	if err != nil {
		log.Fatal(err)
	}

	red := color.RGBA{R: 255, A: 255}
	for _, name := range []string{"input0", "input1"} {
		if _, err := db.AddImage(ctx, name, testutil.UniformImage(16, 16, red)); err != nil {
			log.Fatal(err)
		}
	}

	match := db.SearchImage(testutil.UniformImage(16, 16, red)).
		Only("input1"). // Ignore input0
		Top(1).
		MustExecute(ctx)

	fmt.Println(match.Name, match.Found)
	// Output: input1 true
}

// Example_noMatch demonstrates a query without any bucket collision.
func Example_noMatch() {
	ctx := context.Background()

	db, err := slichash.New(slichash.WithSegmenter(segment.NewGrid(8)))
	if err != nil {
		log.Fatal(err)
	}

	if _, err := db.AddImage(ctx, "input0", testutil.UniformImage(16, 16, color.RGBA{R: 255, A: 255})); err != nil {
		log.Fatal(err)
	}

	match, err := db.QueryImage(ctx, testutil.UniformImage(16, 16, color.RGBA{B: 255, A: 255}))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(match.Found)
	// Output: false
}
