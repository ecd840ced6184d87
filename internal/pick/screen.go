package pick

import "math"

// NDC is a normalised device coordinate; both axes span [-1, 1] and +Y
// points up.
type NDC struct {
	X, Y float64
}

// Pixel is a screen position in pixels from the top-left corner, +Y down.
type Pixel struct {
	X, Y float64
}

// Viewport is the drawable size in pixels.
type Viewport struct {
	Width, Height float64
}

// Aspect returns width/height, or 1 for an empty viewport.
func (v Viewport) Aspect() float64 {
	if v.Height == 0 {
		return 1
	}
	return v.Width / v.Height
}

// Center returns the pixel at the middle of the viewport.
func (v Viewport) Center() Pixel {
	return Pixel{X: v.Width / 2, Y: v.Height / 2}
}

// NDCToPixel converts ndc to a pixel position. NDC Y is flipped because
// screen Y grows downwards.
func NDCToPixel(ndc NDC, vp Viewport) Pixel {
	return Pixel{
		X: (ndc.X + 1) / 2 * vp.Width,
		Y: (1 - ndc.Y) / 2 * vp.Height,
	}
}

// PixelToNDC is the inverse of NDCToPixel.
func PixelToNDC(p Pixel, vp Viewport) NDC {
	return NDC{
		X: 2*p.X/vp.Width - 1,
		Y: 1 - 2*p.Y/vp.Height,
	}
}

// PixelDistance returns the Euclidean pixel distance between ndc, placed in
// vp, and the pointer position.
func PixelDistance(ndc NDC, vp Viewport, pointer Pixel) float64 {
	p := NDCToPixel(ndc, vp)
	return math.Hypot(p.X-pointer.X, p.Y-pointer.Y)
}
