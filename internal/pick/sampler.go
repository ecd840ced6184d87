package pick

import (
	"fmt"

	"github.com/banshee-data/tapfocus/internal/halffloat"
)

// SampleSet is a decimated, decoded view of an encoded point buffer.
type SampleSet struct {
	// Stride is the source index step between consecutive samples.
	Stride int
	// Count is the number of points in Points.
	Count int
	// Points holds x, y, z triples; len(Points) == 3*Count.
	Points []float64
}

// SourceIndex returns the index in the encoded buffer of the point stored
// at sample buffer offset off (a multiple of 3).
func (s SampleSet) SourceIndex(off int) int {
	return off / 3 * s.Stride
}

// Stride returns the decimation step for pointCount points reduced towards
// targetCount samples: max(1, floor(pointCount/targetCount)).
func Stride(pointCount, targetCount int) int {
	stride := pointCount / targetCount
	if stride < 1 {
		stride = 1
	}
	return stride
}

// Sample decodes every stride-th point of encoded, applying conv to each.
// At most targetCount points are emitted and no value past
// encoded[3*pointCount] is read.
func Sample(encoded []uint16, pointCount, targetCount int, conv AxisConvention) (SampleSet, error) {
	var s Sampler
	return s.Sample(encoded, pointCount, targetCount, conv)
}

// Sampler reuses its decoded buffer across calls. The SampleSet returned by
// Sampler.Sample aliases that buffer and is only valid until the next call.
type Sampler struct {
	buf []float64
}

// Sample behaves like the package-level Sample but writes into the
// sampler's scratch buffer.
func (s *Sampler) Sample(encoded []uint16, pointCount, targetCount int, conv AxisConvention) (SampleSet, error) {
	if pointCount <= 0 {
		return SampleSet{}, fmt.Errorf("sample %d points: %w", pointCount, ErrInvalidPointCount)
	}
	if targetCount < 1 {
		return SampleSet{}, fmt.Errorf("sample towards %d: %w", targetCount, ErrInvalidTargetCount)
	}
	if len(encoded) < pointCount*3 {
		return SampleSet{}, fmt.Errorf("%d values for %d points: %w", len(encoded), pointCount, ErrBufferTooShort)
	}

	stride := Stride(pointCount, targetCount)
	n := (pointCount + stride - 1) / stride
	if n > targetCount {
		n = targetCount
	}

	if cap(s.buf) < n*3 {
		s.buf = make([]float64, n*3)
	}
	out := s.buf[:n*3]

	src := 0
	for i := 0; i < n; i++ {
		base := src * 3
		x, y, z := conv.Apply(
			halffloat.Decode(encoded[base]),
			halffloat.Decode(encoded[base+1]),
			halffloat.Decode(encoded[base+2]),
		)
		out[i*3] = x
		out[i*3+1] = y
		out[i*3+2] = z
		src += stride
	}

	return SampleSet{Stride: stride, Count: n, Points: out}, nil
}
