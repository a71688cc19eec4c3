// Package control folds per-frame hand observations into the persistent
// controller state and assembles the outgoing frame.
package control

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/handctl/internal/detector"
	"github.com/ayusman/handctl/internal/gesture"
	"github.com/ayusman/handctl/internal/packet"
	"github.com/ayusman/handctl/internal/smoothing"
)

// State is everything carried from one frame to the next. It is owned by
// the frame loop and passed by value; there is no shared copy.
type State struct {
	// Position is the smoothed cursor: x and y from the left hand, z from the right.
	Position mgl64.Vec3
	// Rotation is the accumulated (angle_x, angle_y).
	Rotation mgl64.Vec2
	// Drag is the fist-drag rotation tracker.
	Drag gesture.RotationTracker
}

// NewState returns the start-up state: centered, slightly raised, unrotated.
func NewState() State {
	return State{
		Position: mgl64.Vec3{0, 3, 0},
	}
}

// Rotating reports whether a rotation drag is active.
func (s State) Rotating() bool {
	return s.Drag.Rotating()
}

// Result is one processed frame: the packet plus what each hand contributed,
// for previews and status displays.
type Result struct {
	Frame packet.Frame
	// Left and Right are nil when that hand was not seen.
	Left  *gesture.LeftResult
	Right *gesture.RightResult
	// Discarded counts malformed hands dropped from this frame.
	Discarded int
}

// Processor runs the per-frame pipeline with a fixed smoothing factor.
type Processor struct {
	ema smoothing.EMA
}

// NewProcessor returns a Processor using ema for all three axes.
func NewProcessor(ema smoothing.EMA) Processor {
	return Processor{ema: ema}
}

// Process advances s by one frame and returns the new state and packet.
func (p Processor) Process(s State, hands []detector.HandLandmarks) (State, packet.Frame) {
	s, res := p.Step(s, hands)
	return s, res.Frame
}

// Step advances s by one frame.
//
// Axes only move when their hand is present: no left hand leaves x, y,
// rotation and the drag untouched, no right hand leaves z untouched. When the
// detector reports two hands with the same label, the later one in the
// slice is used and the earlier one ignored. The detector's ordering is not
// meaningful, so which physical hand wins is arbitrary.
func (p Processor) Step(s State, hands []detector.HandLandmarks) (State, Result) {
	res := Result{Frame: packet.NewFrame()}

	var left, right *detector.HandLandmarks
	for i := range hands {
		h := &hands[i]
		if err := h.Validate(); err != nil {
			res.Discarded++
			continue
		}
		switch h.Handedness {
		case detector.Left:
			left = h
		case detector.Right:
			right = h
		}
	}

	if left != nil {
		l := gesture.ClassifyLeft(left)
		res.Left = &l

		s.Position[0] = p.ema.Step(s.Position[0], l.Target.X())
		s.Position[1] = p.ema.Step(s.Position[1], l.Target.Y())

		switch l.Gesture {
		case gesture.LeftRotate:
			res.Frame.Rotate = true
			continuing := s.Drag.Rotating()
			var delta mgl64.Vec2
			s.Drag, delta = s.Drag.Drag(l.Wrist)
			if continuing {
				s.Rotation = s.Rotation.Add(delta)
			}
		case gesture.LeftGlue:
			res.Frame.Glue = true
			s.Drag = s.Drag.Release()
		default:
			s.Drag = s.Drag.Release()
		}
	}

	if right != nil {
		r := gesture.ClassifyRight(right)
		res.Right = &r

		s.Position[2] = p.ema.Step(s.Position[2], r.TargetZ)
		res.Frame.Gesture = r.Gesture
	}

	res.Frame.HandX = s.Position.X()
	res.Frame.HandY = s.Position.Y()
	res.Frame.HandZ = s.Position.Z()
	res.Frame.RotX = s.Rotation.X()
	res.Frame.RotY = s.Rotation.Y()

	return s, res
}
