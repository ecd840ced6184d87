package pointcloud

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Synthetic generates a deterministic scene of n points: a ground grid at
// y=-1 and a unit sphere at the origin, in roughly equal shares.
func Synthetic(seed int64, n int) *Cloud {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]r3.Vec, 0, n)

	ground := n / 2
	side := int(math.Ceil(math.Sqrt(float64(ground))))
	for i := 0; i < ground; i++ {
		gx := float64(i%side)/float64(side)*20 - 10
		gz := float64(i/side)/float64(side)*20 - 10
		pts = append(pts, r3.Vec{X: gx, Y: -1, Z: gz})
	}

	for len(pts) < n {
		// Uniform on the sphere via normalised Gaussian samples.
		v := r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		if r3.Norm(v) < 1e-9 {
			continue
		}
		pts = append(pts, r3.Unit(v))
	}

	return FromPositions(pts)
}
