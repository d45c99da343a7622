package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CoverageThreshold is the texel magnitude above which a texel counts as
// painted.
const CoverageThreshold = 0.05

// FieldSummary describes the contents of one read-back field.
type FieldSummary struct {
	Texels      int
	ChannelSums []float64

	// Per-texel magnitude of the first three channels
	Total    float64
	Mean     float64
	Std      float64
	Max      float64
	P50      float64
	P90      float64
	Coverage float64
}

// FieldStats summarizes interleaved pixel data with the given channel
// count. Magnitudes use at most the first three channels, so an RGBA
// density field ignores alpha.
func FieldStats(pixels []float32, channels int) FieldSummary {
	if channels < 1 || len(pixels) < channels {
		return FieldSummary{}
	}
	n := len(pixels) / channels
	used := min(channels, 3)

	mags := make([]float64, n)
	sums := make([]float64, channels)
	column := make([]float64, n)
	for c := 0; c < channels; c++ {
		for i := 0; i < n; i++ {
			column[i] = float64(pixels[i*channels+c])
		}
		sums[c] = floats.Sum(column)
		if c < used {
			for i, v := range column {
				mags[i] += v * v
			}
		}
	}

	covered := 0
	for i, sq := range mags {
		mags[i] = math.Sqrt(sq)
		if mags[i] > CoverageThreshold {
			covered++
		}
	}

	mean, std := stat.MeanStdDev(mags, nil)
	sorted := make([]float64, n)
	copy(sorted, mags)
	sort.Float64s(sorted)

	return FieldSummary{
		Texels:      n,
		ChannelSums: sums,
		Total:       floats.Sum(mags),
		Mean:        mean,
		Std:         std,
		Max:         floats.Max(mags),
		P50:         Percentile(sorted, 0.50),
		P90:         Percentile(sorted, 0.90),
		Coverage:    float64(covered) / float64(n),
	}
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// FrameStats is one frames.csv record.
type FrameStats struct {
	Frame   uint64  `csv:"frame"`
	Elapsed float64 `csv:"elapsed"`
	DT      float64 `csv:"dt"`

	Splats    uint64 `csv:"splats"`
	Wanderers int    `csv:"wanderers"`

	DensityTotal    float64 `csv:"density_total"`
	DensityMean     float64 `csv:"density_mean"`
	DensityMax      float64 `csv:"density_max"`
	DensityP90      float64 `csv:"density_p90"`
	DensityCoverage float64 `csv:"density_coverage"`

	VelocityMean float64 `csv:"velocity_mean"`
	VelocityMax  float64 `csv:"velocity_max"`
	VelocityStd  float64 `csv:"velocity_std"`

	StepUS int64 `csv:"step_us"`
}

// ApplyDensity fills the density columns from a summary.
func (s *FrameStats) ApplyDensity(f FieldSummary) {
	s.DensityTotal = f.Total
	s.DensityMean = f.Mean
	s.DensityMax = f.Max
	s.DensityP90 = f.P90
	s.DensityCoverage = f.Coverage
}

// ApplyVelocity fills the velocity columns from a summary.
func (s *FrameStats) ApplyVelocity(f FieldSummary) {
	s.VelocityMean = f.Mean
	s.VelocityMax = f.Max
	s.VelocityStd = f.Std
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frame", s.Frame),
		slog.Float64("elapsed", s.Elapsed),
		slog.Uint64("splats", s.Splats),
		slog.Int("wanderers", s.Wanderers),
		slog.Float64("density_total", s.DensityTotal),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("density_coverage", s.DensityCoverage),
		slog.Float64("velocity_mean", s.VelocityMean),
		slog.Float64("velocity_max", s.VelocityMax),
		slog.Int64("step_us", s.StepUS),
	)
}

// LogStats logs the frame stats using slog.
func (s FrameStats) LogStats() {
	slog.Info("frame", "stats", s)
}
