package pick

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a right-handed perspective camera looking from Eye at Target,
// using OpenGL clip conventions (-Z forward in view space, NDC depth in
// [-1, 1]).
type Camera struct {
	Eye     r3.Vec
	Target  r3.Vec
	Up      r3.Vec
	FovYDeg float64
	Near    float64
	Far     float64
}

// DefaultCamera looks down -Z from 5 units back with a 60° field of view.
func DefaultCamera() Camera {
	return Camera{
		Eye:     r3.Vec{Z: 5},
		Up:      r3.Vec{Y: 1},
		FovYDeg: 60,
		Near:    0.1,
		Far:     1000,
	}
}

// Forward returns the unit view direction.
func (c Camera) Forward() r3.Vec {
	return r3.Unit(r3.Sub(c.Target, c.Eye))
}

// View returns the 4x4 world-to-view matrix.
func (c Camera) View() *mat.Dense {
	z := r3.Unit(r3.Sub(c.Eye, c.Target))
	x := r3.Unit(r3.Cross(c.Up, z))
	y := r3.Cross(z, x)

	return mat.NewDense(4, 4, []float64{
		x.X, x.Y, x.Z, -r3.Dot(x, c.Eye),
		y.X, y.Y, y.Z, -r3.Dot(y, c.Eye),
		z.X, z.Y, z.Z, -r3.Dot(z, c.Eye),
		0, 0, 0, 1,
	})
}

// Projection returns the 4x4 perspective matrix for the given aspect ratio.
func (c Camera) Projection(aspect float64) *mat.Dense {
	f := 1 / math.Tan(c.FovYDeg*math.Pi/360)
	nf := c.Near - c.Far

	return mat.NewDense(4, 4, []float64{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (c.Far + c.Near) / nf, 2 * c.Far * c.Near / nf,
		0, 0, -1, 0,
	})
}

// ViewProjection returns Projection(aspect) * View().
func (c Camera) ViewProjection(aspect float64) *mat.Dense {
	var vp mat.Dense
	vp.Mul(c.Projection(aspect), c.View())
	return &vp
}

// InvertViewProjection inverts a view-projection matrix. Ill-conditioned
// but invertible matrices are accepted; singular or non-finite ones are not.
func InvertViewProjection(m mat.Matrix) (*mat.Dense, error) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("invert view-projection: non-finite element (%d,%d): %w", i, j, ErrSingularMatrix)
			}
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) || math.IsNaN(float64(cond)) {
			return nil, fmt.Errorf("invert view-projection: %w", ErrSingularMatrix)
		}
	}
	return &inv, nil
}

// ScreenToRay unprojects a pixel into a world-space ray starting on the near
// plane and pointing through the far plane.
func ScreenToRay(p Pixel, vp Viewport, invViewProj mat.Matrix) Ray {
	ndc := PixelToNDC(p, vp)
	near := unproject(invViewProj, ndc.X, ndc.Y, -1)
	far := unproject(invViewProj, ndc.X, ndc.Y, 1)
	return Ray{Origin: near, Direction: r3.Sub(far, near)}
}

// Project maps a world position to NDC. ok is false when the point is at or
// behind the camera plane.
func Project(p r3.Vec, viewProj mat.Matrix) (ndc NDC, ok bool) {
	var clip mat.VecDense
	clip.MulVec(viewProj, mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1}))
	w := clip.AtVec(3)
	if w <= 0 {
		return NDC{}, false
	}
	return NDC{X: clip.AtVec(0) / w, Y: clip.AtVec(1) / w}, true
}

func unproject(inv mat.Matrix, x, y, z float64) r3.Vec {
	var out mat.VecDense
	out.MulVec(inv, mat.NewVecDense(4, []float64{x, y, z, 1}))
	w := out.AtVec(3)
	if w == 0 {
		w = 1
	}
	return r3.Vec{X: out.AtVec(0) / w, Y: out.AtVec(1) / w, Z: out.AtVec(2) / w}
}
