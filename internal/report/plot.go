package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	resolvedColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	idealColor    = color.RGBA{R: 127, G: 127, B: 127, A: 255}
	truthColor    = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// WritePNG renders the timeline as a PNG image.
func WritePNG(w io.Writer, title string, pts []Point) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "tick"
	p.Y.Label.Text = "yaw (deg)"
	p.Y.Min = -180
	p.Y.Max = 180

	resolved := make(plotter.XYs, 0, len(pts))
	ideal := make(plotter.XYs, 0, len(pts))
	truth := make(plotter.XYs, 0, len(pts))
	for _, pt := range pts {
		x := float64(pt.Tick)
		resolved = append(resolved, plotter.XY{X: x, Y: pt.Angle})
		ideal = append(ideal, plotter.XY{X: x, Y: pt.Ideal})
		if pt.Truth != nil {
			truth = append(truth, plotter.XY{X: x, Y: *pt.Truth})
		}
	}

	add := func(label string, xys plotter.XYs, c color.Color, dashed bool) error {
		if len(xys) == 0 {
			return nil
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("%s line: %w", label, err)
		}
		line.Color = c
		line.Width = vg.Points(1)
		if dashed {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(line)
		p.Legend.Add(label, line)
		return nil
	}
	if err := add("resolved", resolved, resolvedColor, false); err != nil {
		return err
	}
	if err := add("ideal", ideal, idealColor, true); err != nil {
		return err
	}
	if err := add("truth", truth, truthColor, false); err != nil {
		return err
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("create png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
