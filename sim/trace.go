package sim

import (
	"encoding/csv"
	"image/color"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Trace is the record of a simulation run.
type Trace struct {
	Track   *Track
	Samples []Sample
}

// Summary aggregates tracking quality over a trace.
type Summary struct {
	Cycles     int
	MeanAbsCTE float64
	MaxAbsCTE  float64
	Fallbacks  int
	Failures   int
}

// Summary computes tracking statistics.
func (t *Trace) Summary() Summary {
	s := Summary{Cycles: len(t.Samples)}
	if s.Cycles == 0 {
		return s
	}
	ctes := make([]float64, 0, len(t.Samples))
	for _, sample := range t.Samples {
		ctes = append(ctes, sample.CTE)
		if sample.Fallback {
			s.Fallbacks++
		}
		if sample.Status != "success" {
			s.Failures++
		}
	}
	s.MeanAbsCTE = floats.Norm(ctes, 1) / float64(len(ctes))
	s.MaxAbsCTE = floats.Norm(ctes, math.Inf(1))
	return s
}

var csvHeader = []string{
	"cycle", "time", "x", "y", "psi", "cte", "epsi", "steer", "speed", "cost", "status", "fallback", "solve_time_ms",
}

// WriteCSV writes one row per sample.
func (t *Trace) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, s := range t.Samples {
		row := []string{
			strconv.Itoa(s.Cycle),
			f(s.Time),
			f(s.Pose.X),
			f(s.Pose.Y),
			f(s.Pose.Psi),
			f(s.CTE),
			f(s.EPsi),
			f(s.Steer),
			f(s.Speed),
			f(s.Cost),
			s.Status,
			strconv.FormatBool(s.Fallback),
			f(float64(s.SolveTime.Microseconds()) / 1000),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePlot renders the track and the driven path as a PNG.
func (t *Trace) WritePlot(w io.Writer) error {
	if len(t.Samples) == 0 {
		return errors.New("trace has no samples to plot")
	}
	p := plot.New()
	p.Title.Text = "MPC path tracking"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	ref := make(plotter.XYs, t.Track.Len())
	for i := range ref {
		ref[i].X, ref[i].Y = t.Track.X[i], t.Track.Y[i]
	}
	refLine, err := plotter.NewLine(ref)
	if err != nil {
		return err
	}
	refLine.LineStyle.Width = vg.Points(1.5)
	refLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	refLine.LineStyle.Color = color.Gray{Y: 120}

	driven := make(plotter.XYs, len(t.Samples))
	for i, s := range t.Samples {
		driven[i].X, driven[i].Y = s.Pose.X, s.Pose.Y
	}
	drivenLine, err := plotter.NewLine(driven)
	if err != nil {
		return err
	}
	drivenLine.LineStyle.Width = vg.Points(2)
	drivenLine.LineStyle.Color = color.RGBA{R: 200, A: 255}

	p.Add(plotter.NewGrid(), refLine, drivenLine)
	p.Legend.Add("reference", refLine)
	p.Legend.Add("driven", drivenLine)

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
