// Package testutil provides testing utilities for slichash.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG plus helpers for generating
// synthetic images and region descriptors.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	r := rng.Region(3840, 2160) // random non-empty descriptor
//	img := rng.NoiseImage(64, 48)
//
// # Synthetic Images
//
//	img := testutil.UniformImage(4, 4, color.RGBA{128, 128, 128, 255})
//	img := testutil.BlockImage(8, 8, 4, 4, palette)
package testutil
