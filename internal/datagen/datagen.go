package datagen

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Distribution names a synthetic dataset shape.
type Distribution string

const (
	Uniform     Distribution = "uniform"
	Gaussian    Distribution = "gaussian"
	Exponential Distribution = "exponential"
)

// All lists the supported distributions in report order.
var All = []Distribution{Gaussian, Exponential, Uniform}

// Parse resolves a distribution name, case-insensitively.
func Parse(name string) (Distribution, error) {
	d := Distribution(strings.ToLower(strings.TrimSpace(name)))
	switch d {
	case Uniform, Gaussian, Exponential:
		return d, nil
	default:
		return "", fmt.Errorf("unknown distribution %q (want uniform, gaussian or exponential)", name)
	}
}

// Generate returns n float32 samples. The same seed always yields the same
// samples.
//
//	uniform:     [-1000, 1000)
//	gaussian:    mean 0, std dev 10
//	exponential: scale 10
func Generate(d Distribution, n int, seed uint64) ([]float32, error) {
	if n < 0 {
		return nil, fmt.Errorf("sample count must be non-negative, got %d", n)
	}
	rng := rand.New(rand.NewPCG(seed, uint64(len(d))))

	var sample func() float64
	switch d {
	case Uniform:
		sample = func() float64 { return rng.Float64()*2000 - 1000 }
	case Gaussian:
		sample = func() float64 { return rng.NormFloat64() * 10 }
	case Exponential:
		sample = func() float64 { return rng.ExpFloat64() * 10 }
	default:
		return nil, fmt.Errorf("unknown distribution %q", d)
	}

	out := make([]float32, n)
	for i := range out {
		out[i] = float32(sample())
	}
	return out, nil
}
