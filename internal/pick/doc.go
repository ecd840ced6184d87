// Package pick selects the point-cloud sample a screen tap most plausibly
// targets.
//
// A tap is unprojected into a Ray, the encoded point buffer is decimated by
// Sample into a SampleSet, and FindClosest picks the sample nearest to the
// ray line in front of its origin. Screen helpers convert between pixels and
// normalised device coordinates so callers can place and check on-screen
// markers.
//
// All functions are pure. Distinct buffers may be processed concurrently;
// a Sampler holds scratch state and must not be shared without locking.
package pick

import "errors"

var (
	// ErrInvalidPointCount is returned when the point count is not positive.
	ErrInvalidPointCount = errors.New("point count must be positive")
	// ErrInvalidTargetCount is returned when the target sample count is below 1.
	ErrInvalidTargetCount = errors.New("target sample count must be at least 1")
	// ErrBufferTooShort is returned when the encoded buffer holds fewer than
	// 3*pointCount values.
	ErrBufferTooShort = errors.New("encoded buffer shorter than point count")
	// ErrMalformedBuffer is returned when a sample buffer length is not a
	// multiple of 3.
	ErrMalformedBuffer = errors.New("sample buffer length not a multiple of 3")
	// ErrSingularMatrix is returned when a view-projection cannot be inverted.
	ErrSingularMatrix = errors.New("view-projection matrix is singular")
)
