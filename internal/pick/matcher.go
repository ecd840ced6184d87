package pick

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DegenerateEpsilon is the smallest ray direction length that can select
	// anything.
	DegenerateEpsilon = 1e-12
	// TieEpsilon is the squared-distance difference under which two
	// candidates are ordered by ray distance instead.
	TieEpsilon = 1e-12
)

// Unbounded accepts candidates at any perpendicular distance.
var Unbounded = math.Inf(1)

// Ray is a half-line. Direction need not be normalised.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// At returns the point at distance t along the normalised direction.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r3.Unit(r.Direction)))
}

// Match describes the winning sample of FindClosest.
type Match struct {
	// Offset of the point's x value in the sample buffer.
	Offset int
	// DistSq is the squared perpendicular distance to the ray line.
	DistSq float64
	// RayDistance is the signed distance along the ray to the closest approach.
	RayDistance float64
}

// Point returns the matched position from the buffer FindClosest searched.
func (m Match) Point(points []float64) r3.Vec {
	return r3.Vec{X: points[m.Offset], Y: points[m.Offset+1], Z: points[m.Offset+2]}
}

// FindClosest returns the point of points (x, y, z triples) closest to the
// ray line, considering only points in front of the origin whose squared
// perpendicular distance is at most maxDistSq. Near-equal distances are
// broken towards the point nearer the viewer along the ray.
//
// ok is false when the ray is degenerate or no point qualifies. An error is
// returned only when len(points) is not a multiple of 3.
func FindClosest(points []float64, ray Ray, maxDistSq float64) (m Match, ok bool, err error) {
	if len(points)%3 != 0 {
		return Match{}, false, fmt.Errorf("%d values: %w", len(points), ErrMalformedBuffer)
	}
	if math.IsNaN(maxDistSq) {
		maxDistSq = Unbounded
	}

	length := r3.Norm(ray.Direction)
	if !(length >= DegenerateEpsilon) || math.IsInf(length, 0) {
		return Match{}, false, nil
	}
	dx := ray.Direction.X / length
	dy := ray.Direction.Y / length
	dz := ray.Direction.Z / length
	ox, oy, oz := ray.Origin.X, ray.Origin.Y, ray.Origin.Z

	best := Match{Offset: -1}
	for i := 0; i+2 < len(points); i += 3 {
		vx := points[i] - ox
		vy := points[i+1] - oy
		vz := points[i+2] - oz

		t := vx*dx + vy*dy + vz*dz
		if !(t > 0) {
			continue
		}

		// Offset from the closest point on the ray line.
		px := vx - dx*t
		py := vy - dy*t
		pz := vz - dz*t
		distSq := px*px + py*py + pz*pz
		if !(distSq <= maxDistSq) {
			continue
		}

		if best.Offset < 0 || better(distSq, t, best.DistSq, best.RayDistance) {
			best = Match{Offset: i, DistSq: distSq, RayDistance: t}
		}
	}

	if best.Offset < 0 {
		return Match{}, false, nil
	}
	return best, true, nil
}

// better reports whether a candidate (distSq, t) beats the current best.
func better(distSq, t, bestDistSq, bestT float64) bool {
	if math.Abs(distSq-bestDistSq) <= TieEpsilon {
		return t < bestT
	}
	return distSq < bestDistSq
}
