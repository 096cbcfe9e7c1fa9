package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost serves the echarts javascript.
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderTimeline writes an HTML page with the resolved angle, ideal bearing
// and (when known) true yaw per tick, plus a confidence chart.
func RenderTimeline(w io.Writer, title string, pts []Point) error {
	ticks := make([]string, len(pts))
	resolved := make([]opts.LineData, len(pts))
	ideal := make([]opts.LineData, len(pts))
	truth := make([]opts.LineData, len(pts))
	conf := make([]opts.LineData, len(pts))
	hasTruth := false
	for i, p := range pts {
		ticks[i] = fmt.Sprintf("%d", p.Tick)
		resolved[i] = opts.LineData{Value: p.Angle, Name: string(p.Method)}
		ideal[i] = opts.LineData{Value: p.Ideal}
		conf[i] = opts.LineData{Value: p.Confidence}
		if p.Truth != nil {
			truth[i] = opts.LineData{Value: *p.Truth}
			hasTruth = true
		} else {
			truth[i] = opts.LineData{Value: "-"}
		}
	}

	s := Summarize(pts, 0)
	yaw := charts.NewLine()
	yaw.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("points=%d mean_conf=%.2f spread=%.1f°", s.Count, s.MeanConfidence, s.OffsetSpread)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "yaw (°)", Min: -180, Max: 180}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	yaw.SetXAxis(ticks).
		AddSeries("resolved", resolved).
		AddSeries("ideal", ideal)
	if hasTruth {
		yaw.AddSeries("truth", truth)
	}

	confidence := charts.NewLine()
	confidence.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "240px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Confidence"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	confidence.SetXAxis(ticks).
		AddSeries("confidence", conf, charts.WithLineChartOpts(opts.LineChart{Step: "end"}))

	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(yaw, confidence)
	return page.Render(w)
}
