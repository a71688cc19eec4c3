// Package report summarizes and plots recorded sessions, for tuning the
// smoothing factor and the axis mappings.
package report

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ayusman/handctl/internal/gesture"
	"github.com/ayusman/handctl/internal/store"
)

// ErrNoFrames is returned when a session has nothing to report on.
var ErrNoFrames = errors.New("session has no frames")

// AxisStats describes one output axis over a session.
type AxisStats struct {
	Min, Max float64
	Mean     float64
	// Jitter is the standard deviation of the frame-to-frame change.
	Jitter float64
}

// Summary describes a session's output stream.
type Summary struct {
	Frames int
	// RotateFrames, GlueFrames and GrabFrames count frames with each flag set.
	RotateFrames int
	GlueFrames   int
	GrabFrames   int

	X, Y, Z AxisStats
}

// Summarize computes per-axis statistics over the session's packets.
func Summarize(frames []store.RecordedFrame) (Summary, error) {
	if len(frames) == 0 {
		return Summary{}, ErrNoFrames
	}

	s := Summary{Frames: len(frames)}
	xs := make([]float64, len(frames))
	ys := make([]float64, len(frames))
	zs := make([]float64, len(frames))
	for i, f := range frames {
		p := f.Packet
		xs[i], ys[i], zs[i] = p.HandX, p.HandY, p.HandZ
		if p.Rotate {
			s.RotateFrames++
		}
		if p.Glue {
			s.GlueFrames++
		}
		if p.Gesture == gesture.GrabMove {
			s.GrabFrames++
		}
	}

	s.X = axisStats(xs)
	s.Y = axisStats(ys)
	s.Z = axisStats(zs)
	return s, nil
}

func axisStats(v []float64) AxisStats {
	a := AxisStats{
		Min:  floats.Min(v),
		Max:  floats.Max(v),
		Mean: stat.Mean(v, nil),
	}
	if len(v) > 2 {
		deltas := make([]float64, len(v)-1)
		for i := 1; i < len(v); i++ {
			deltas[i-1] = v[i] - v[i-1]
		}
		a.Jitter = stat.StdDev(deltas, nil)
	}
	return a
}

// Plot colors, one per series.
var (
	colorX = color.RGBA{R: 220, G: 50, B: 47, A: 255}
	colorY = color.RGBA{R: 38, G: 139, B: 210, A: 255}
	colorZ = color.RGBA{R: 133, G: 153, B: 0, A: 255}
)

// PlotSession writes <prefix>_position.png and <prefix>_rotation.png into
// dir and returns their paths.
func PlotSession(frames []store.RecordedFrame, dir, prefix string) ([]string, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	xs := make(plotter.XYs, len(frames))
	ys := make(plotter.XYs, len(frames))
	zs := make(plotter.XYs, len(frames))
	rx := make(plotter.XYs, len(frames))
	ry := make(plotter.XYs, len(frames))
	for i, f := range frames {
		seq := float64(f.Seq)
		xs[i] = plotter.XY{X: seq, Y: f.Packet.HandX}
		ys[i] = plotter.XY{X: seq, Y: f.Packet.HandY}
		zs[i] = plotter.XY{X: seq, Y: f.Packet.HandZ}
		rx[i] = plotter.XY{X: seq, Y: f.Packet.RotX}
		ry[i] = plotter.XY{X: seq, Y: f.Packet.RotY}
	}

	pPos := newPlot(fmt.Sprintf("%s - Cursor Position (smoothed)", prefix), "Position")
	if err := addLines(pPos, []series{{"hand_x", xs, colorX}, {"hand_y", ys, colorY}, {"hand_z", zs, colorZ}}); err != nil {
		return nil, err
	}

	pRot := newPlot(fmt.Sprintf("%s - Rotation", prefix), "Angle")
	if err := addLines(pRot, []series{{"rot_x", rx, colorX}, {"rot_y", ry, colorY}}); err != nil {
		return nil, err
	}

	posFile := filepath.Join(dir, prefix+"_position.png")
	if err := pPos.Save(14*vg.Inch, 6*vg.Inch, posFile); err != nil {
		return nil, fmt.Errorf("save position plot: %w", err)
	}

	rotFile := filepath.Join(dir, prefix+"_rotation.png")
	if err := pRot.Save(14*vg.Inch, 6*vg.Inch, rotFile); err != nil {
		return nil, fmt.Errorf("save rotation plot: %w", err)
	}

	return []string{posFile, rotFile}, nil
}

type series struct {
	label string
	pts   plotter.XYs
	color color.Color
}

func newPlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = yLabel

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

func addLines(p *plot.Plot, lines []series) error {
	for _, s := range lines {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return fmt.Errorf("%s: %w", s.label, err)
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}
	return nil
}
