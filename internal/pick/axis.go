package pick

import (
	"fmt"
	"strings"
)

// AxisConvention negates axes of decoded points so they land in the
// coordinate system of the consuming camera. It must match the convention
// the external renderer builds rays in.
type AxisConvention struct {
	FlipX bool
	FlipY bool
	FlipZ bool
}

var (
	// ConventionIdentity leaves decoded coordinates unchanged.
	ConventionIdentity = AxisConvention{}
	// ConventionFlipYZ maps a +Y down, +Z forward capture frame into a
	// +Y up, -Z forward (OpenGL style) scene.
	ConventionFlipYZ = AxisConvention{FlipY: true, FlipZ: true}
)

// Apply returns the point with the configured axes negated.
func (c AxisConvention) Apply(x, y, z float64) (float64, float64, float64) {
	if c.FlipX {
		x = -x
	}
	if c.FlipY {
		y = -y
	}
	if c.FlipZ {
		z = -z
	}
	return x, y, z
}

// String returns the convention name accepted by ParseAxisConvention.
func (c AxisConvention) String() string {
	switch c {
	case ConventionIdentity:
		return "identity"
	case ConventionFlipYZ:
		return "flip_yz"
	}
	var b strings.Builder
	b.WriteString("flip_")
	if c.FlipX {
		b.WriteByte('x')
	}
	if c.FlipY {
		b.WriteByte('y')
	}
	if c.FlipZ {
		b.WriteByte('z')
	}
	return b.String()
}

// ParseAxisConvention parses "identity" or "flip_" followed by any of x, y
// and z in that order (e.g. "flip_yz", "flip_x").
func ParseAxisConvention(name string) (AxisConvention, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "identity" || name == "" {
		return ConventionIdentity, nil
	}
	axes, ok := strings.CutPrefix(name, "flip_")
	if !ok || axes == "" {
		return AxisConvention{}, fmt.Errorf("unknown axis convention %q", name)
	}

	var c AxisConvention
	rest := axes
	if r, ok := strings.CutPrefix(rest, "x"); ok {
		c.FlipX, rest = true, r
	}
	if r, ok := strings.CutPrefix(rest, "y"); ok {
		c.FlipY, rest = true, r
	}
	if r, ok := strings.CutPrefix(rest, "z"); ok {
		c.FlipZ, rest = true, r
	}
	if rest != "" {
		return AxisConvention{}, fmt.Errorf("unknown axis convention %q", name)
	}
	return c, nil
}
