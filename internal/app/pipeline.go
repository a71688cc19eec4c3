package app

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/handctl/internal/capture"
	"github.com/ayusman/handctl/internal/control"
	"github.com/ayusman/handctl/internal/packet"
)

// processFrame runs one observation through the controller and hands the
// result to every consumer. It reports whether the display asked to stop.
//
// Order per frame:
// 1. Step the controller state
// 2. Send the frame unless paused
// 3. Record it
// 4. Update the tray status
// 5. Show the preview
func (a *App) processFrame(s control.State, obs *capture.Observation) (control.State, bool) {
	s, res := a.config.Processor.Step(s, obs.Hands)
	a.frames.Add(1)

	if res.Discarded > 0 {
		a.log.WithField("discarded", res.Discarded).Debug("dropped malformed hands")
	}

	if a.IsEnabled() {
		a.sendBestEffort(res.Frame)
	}

	if a.config.Recorder != nil {
		if err := a.config.Recorder.Record(obs.Hands, res.Frame); err != nil {
			a.log.WithError(err).Warn("recording frame")
		}
	}

	if a.config.Status != nil {
		if label := gestureLabel(res); label != a.lastGesture {
			a.lastGesture = label
			a.config.Status.SetLastGesture(label)
		}
	}

	if a.config.Display != nil && obs.Image != nil {
		if !a.config.Display.Show(obs.Image, res) {
			return s, true
		}
	}

	return s, false
}

// sendBestEffort sends f and ignores the outcome. Lost frames are superseded
// by the next one a frame period later, so they are only counted, and the
// count is logged at most once per DropReportInterval.
func (a *App) sendBestEffort(f packet.Frame) {
	_ = a.config.Sink.Send(f)

	if time.Since(a.lastReport) < a.config.DropReportInterval {
		return
	}
	a.lastReport = time.Now()

	dropped := a.config.Sink.Dropped()
	if dropped > a.lastDropped {
		a.log.WithFields(logrus.Fields{
			"dropped": dropped - a.lastDropped,
			"total":   dropped,
		}).Warn("control frames dropped")
		a.lastDropped = dropped
	}
}

// gestureLabel summarizes what each visible hand is doing, e.g.
// "left rotate, right move". It is empty when no hand is visible.
func gestureLabel(res control.Result) string {
	var parts []string
	if res.Left != nil {
		parts = append(parts, "left "+string(res.Left.Gesture))
	}
	if res.Right != nil {
		parts = append(parts, "right "+string(res.Right.Gesture))
	}
	return strings.Join(parts, ", ")
}
