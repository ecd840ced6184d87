package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/tapfocus/internal/focus"
)

// maxChartPoints bounds the HTML payload; larger sample sets are strided.
const maxChartPoints = 20000

// WritePickChart renders an interactive HTML scatter of samples with the
// picked target highlighted.
func WritePickChart(w io.Writer, samples []float64, snap focus.Snapshot, plane Plane) error {
	n := len(samples) / 3
	stride := 1
	if n > maxChartPoints {
		stride = (n + maxChartPoints - 1) / maxChartPoints
	}

	data := make([]opts.ScatterData, 0, n/stride+1)
	for i := 0; i < n; i += stride {
		x, y := plane.axes(samples[i*3], samples[i*3+1], samples[i*3+2])
		data = append(data, opts.ScatterData{Value: []interface{}{x, y}})
	}

	xLabel, yLabel := plane.labels()
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Tap pick", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Tap %d", snap.Seq),
			Subtitle: fmt.Sprintf("stride=%d sampled=%d matched=%t", snap.Stride, snap.Sampled, snap.Matched),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: xLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yLabel, NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("samples", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	if snap.Matched {
		x, y := plane.axes(snap.Target.X, snap.Target.Y, snap.Target.Z)
		scatter.AddSeries("target", []opts.ScatterData{{Value: []interface{}{x, y}}},
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))
	}

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
