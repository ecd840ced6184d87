// Package monitor renders debug views of tap picks: PNG scatter plots with
// gonum/plot and interactive HTML charts with go-echarts.
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/tapfocus/internal/focus"
)

// Plane selects the two axes a 3D sample is drawn on.
type Plane int

const (
	PlaneXY Plane = iota // front view
	PlaneXZ              // top view
)

func (p Plane) axes(x, y, z float64) (float64, float64) {
	if p == PlaneXZ {
		return x, z
	}
	return x, y
}

func (p Plane) labels() (string, string) {
	if p == PlaneXZ {
		return "X", "Z"
	}
	return "X", "Y"
}

// sampleXYs flattens x, y, z triples onto plane.
func sampleXYs(samples []float64, plane Plane) plotter.XYs {
	pts := make(plotter.XYs, 0, len(samples)/3)
	for i := 0; i+2 < len(samples); i += 3 {
		x, y := plane.axes(samples[i], samples[i+1], samples[i+2])
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}

// WritePickPlot saves a PNG (or any extension gonum/plot supports) showing
// the sampled points and, when the tap matched, the picked target.
func WritePickPlot(path string, samples []float64, snap focus.Snapshot, plane Plane) error {
	if len(samples) < 3 {
		return fmt.Errorf("no samples to plot")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	p := plot.New()
	xLabel, yLabel := plane.labels()
	p.Title.Text = fmt.Sprintf("Tap %d: stride=%d sampled=%d", snap.Seq, snap.Stride, snap.Sampled)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	cloud, err := plotter.NewScatter(sampleXYs(samples, plane))
	if err != nil {
		return fmt.Errorf("failed to create sample scatter: %w", err)
	}
	cloud.GlyphStyle.Color = color.RGBA{R: 70, G: 110, B: 180, A: 255}
	cloud.GlyphStyle.Radius = vg.Points(1)
	p.Add(cloud)
	p.Legend.Add("samples", cloud)

	if snap.Matched {
		x, y := plane.axes(snap.Target.X, snap.Target.Y, snap.Target.Z)
		hit, err := plotter.NewScatter(plotter.XYs{{X: x, Y: y}})
		if err != nil {
			return fmt.Errorf("failed to create target scatter: %w", err)
		}
		hit.GlyphStyle.Color = color.RGBA{R: 220, G: 40, B: 40, A: 255}
		hit.GlyphStyle.Radius = vg.Points(5)
		hit.GlyphStyle.Shape = draw.CrossGlyph{}
		p.Add(hit)
		p.Legend.Add(fmt.Sprintf("target #%d", snap.SourceIndex), hit)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
