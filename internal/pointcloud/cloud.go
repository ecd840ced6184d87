// Package pointcloud holds half-precision encoded point clouds as produced
// by the viewer's loader, and reads and writes them in the F16P file format.
package pointcloud

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/tapfocus/internal/halffloat"
	"github.com/banshee-data/tapfocus/internal/pick"
)

// ErrIndexOutOfRange is returned by Position for an index outside the cloud.
var ErrIndexOutOfRange = errors.New("point index out of range")

// Cloud is an immutable buffer of binary16 x, y, z triples.
type Cloud struct {
	Encoded []uint16
	Count   int
}

// Validate checks that the buffer holds exactly Count points.
func (c *Cloud) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("cloud has %d points: %w", c.Count, pick.ErrInvalidPointCount)
	}
	if len(c.Encoded) != c.Count*3 {
		return fmt.Errorf("cloud has %d values for %d points: %w", len(c.Encoded), c.Count, pick.ErrBufferTooShort)
	}
	return nil
}

// Position decodes point i at full half precision and applies conv.
func (c *Cloud) Position(i int, conv pick.AxisConvention) (r3.Vec, error) {
	if i < 0 || i >= c.Count || i*3+2 >= len(c.Encoded) {
		return r3.Vec{}, fmt.Errorf("index %d of %d: %w", i, c.Count, ErrIndexOutOfRange)
	}
	x, y, z := conv.Apply(
		halffloat.Decode(c.Encoded[i*3]),
		halffloat.Decode(c.Encoded[i*3+1]),
		halffloat.Decode(c.Encoded[i*3+2]),
	)
	return r3.Vec{X: x, Y: y, Z: z}, nil
}

// FromPositions encodes positions into a new cloud. Positions are stored as
// given; the axis convention is applied on decode.
func FromPositions(pts []r3.Vec) *Cloud {
	enc := make([]uint16, 0, len(pts)*3)
	for _, p := range pts {
		enc = append(enc, halffloat.Encode(p.X), halffloat.Encode(p.Y), halffloat.Encode(p.Z))
	}
	return &Cloud{Encoded: enc, Count: len(pts)}
}
