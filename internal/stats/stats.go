package stats

import (
	"fmt"
	"math"
)

// relEpsilon keeps relative error finite for zero-valued originals.
const relEpsilon = 1e-10

// ErrorMetrics summarizes reconstruction error.
type ErrorMetrics struct {
	MSE         float64
	MAE         float64
	RelError    float64
	MaxAbsError float64
}

// Errors compares original and reconstructed samples. Non-finite pairs are
// skipped.
func Errors(orig, recon []float32) (ErrorMetrics, error) {
	if len(orig) != len(recon) {
		return ErrorMetrics{}, fmt.Errorf("length mismatch: %d original vs %d reconstructed", len(orig), len(recon))
	}

	var m ErrorMetrics
	n := 0
	for i := range orig {
		o, r := float64(orig[i]), float64(recon[i])
		d := math.Abs(o - r)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		m.MSE += d * d
		m.MAE += d
		m.RelError += d / (math.Abs(o) + relEpsilon)
		m.MaxAbsError = math.Max(m.MaxAbsError, d)
		n++
	}
	if n > 0 {
		m.MSE /= float64(n)
		m.MAE /= float64(n)
		m.RelError /= float64(n)
	}
	return m, nil
}

// Moments holds the descriptive statistics of a sample.
type Moments struct {
	Mean     float64
	Variance float64
	StdDev   float64
	Skewness float64
	// Kurtosis is the excess (Fisher) kurtosis: 0 for a normal distribution.
	Kurtosis float64
}

// Describe computes population moments of xs.
func Describe(xs []float32) Moments {
	var m Moments
	if len(xs) == 0 {
		return m
	}
	n := float64(len(xs))
	for _, x := range xs {
		m.Mean += float64(x)
	}
	m.Mean /= n

	var m2, m3, m4 float64
	for _, x := range xs {
		d := float64(x) - m.Mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	m2 /= n
	m3 /= n
	m4 /= n

	m.Variance = m2
	m.StdDev = math.Sqrt(m2)
	if m2 > 0 {
		m.Skewness = m3 / math.Pow(m2, 1.5)
		m.Kurtosis = m4/(m2*m2) - 3
	}
	return m
}

// Ratio returns original/packed, or 0 when packed is empty.
func Ratio(originalBytes, packedBytes int64) float64 {
	if packedBytes == 0 {
		return 0
	}
	return float64(originalBytes) / float64(packedBytes)
}

// Savings returns the percentage of bytes saved.
func Savings(originalBytes, packedBytes int64) float64 {
	if originalBytes == 0 {
		return 0
	}
	return 100 * (1 - float64(packedBytes)/float64(originalBytes))
}
