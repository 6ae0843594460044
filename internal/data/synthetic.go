package data

import "math/rand"

// GlyphSize is the side length of the synthetic glyph images.
const GlyphSize = 16

// GlyphClasses is the number of distinct glyph patterns.
const GlyphClasses = 10

// Glyphs generates a synthetic image-classification dataset: n noisy
// renderings of ten fixed 16x16 base patterns, with one-hot targets.
// The base patterns are derived from the seed, so a seed fully
// determines the dataset.
func Glyphs(n int, noise float64, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))

	// Base patterns: per class, a handful of bright rectangular patches
	// on a dark background.
	pixels := GlyphSize * GlyphSize
	bases := make([][]float64, GlyphClasses)
	for c := range bases {
		base := make([]float64, pixels)
		for i := range base {
			base[i] = 0.05
		}
		for patch := 0; patch < 3; patch++ {
			h := 2 + rng.Intn(5)
			w := 2 + rng.Intn(5)
			top := rng.Intn(GlyphSize - h)
			left := rng.Intn(GlyphSize - w)
			for y := top; y < top+h; y++ {
				for x := left; x < left+w; x++ {
					base[y*GlyphSize+x] = 0.9
				}
			}
		}
		bases[c] = base
	}

	inputs := make([][]float64, n)
	targets := make([][]float64, n)
	for i := 0; i < n; i++ {
		class := i % GlyphClasses
		img := make([]float64, pixels)
		for j, v := range bases[class] {
			img[j] = clamp01(v + rng.NormFloat64()*noise)
		}
		onehot := make([]float64, GlyphClasses)
		onehot[class] = 1

		inputs[i] = img
		targets[i] = onehot
	}

	return &Dataset{Inputs: inputs, Targets: targets}
}

// Blobs generates n points drawn from `classes` Gaussian clusters in
// dim-dimensional space, with one-hot targets.
func Blobs(n, classes, dim int, spread float64, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))

	centers := make([][]float64, classes)
	for c := range centers {
		center := make([]float64, dim)
		for j := range center {
			center[j] = rng.Float64()*4 - 2
		}
		centers[c] = center
	}

	inputs := make([][]float64, n)
	targets := make([][]float64, n)
	for i := 0; i < n; i++ {
		class := i % classes
		point := make([]float64, dim)
		for j := range point {
			point[j] = centers[class][j] + rng.NormFloat64()*spread
		}
		onehot := make([]float64, classes)
		onehot[class] = 1

		inputs[i] = point
		targets[i] = onehot
	}

	return &Dataset{Inputs: inputs, Targets: targets}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
