// Package gesture turns a single hand's landmarks into control gestures and
// raw axis targets, and tracks the fist-drag rotation across frames.
package gesture

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/handctl/internal/detector"
	"github.com/ayusman/handctl/internal/geometry"
)

// Mapping constants from normalized image coordinates to consumer units.
const (
	// XScale spreads wrist x across the consumer's horizontal range.
	XScale = 25.0
	// YScale and YOffset map wrist y so that raising the hand raises the cursor.
	YScale  = 15.0
	YOffset = 2.0
	// PalmReference is the wrist-to-index-MCP span that maps to z = 0.
	PalmReference = 0.15
	// ZScale turns the palm span difference into depth. Closer hands are larger.
	ZScale = 80.0
	// PinchThreshold is the thumb-tip to index-tip distance under which the
	// right hand is grabbing. The comparison is strict.
	PinchThreshold = 0.05
)

// LeftGesture is the discrete state of the left hand.
type LeftGesture string

const (
	LeftIdle   LeftGesture = "idle"
	LeftRotate LeftGesture = "rotate"
	LeftGlue   LeftGesture = "glue"
)

// Grab is the discrete state of the right hand, sent as the packet's gesture.
type Grab string

const (
	GrabNone Grab = "none"
	GrabMove Grab = "move"
)

// LeftResult is what the left hand contributes to a frame.
type LeftResult struct {
	Gesture LeftGesture
	// Wrist is the wrist position in image coordinates, used as drag anchor.
	Wrist mgl64.Vec2
	// Target is the unsmoothed (x, y) cursor target.
	Target mgl64.Vec2
}

// RightResult is what the right hand contributes to a frame.
type RightResult struct {
	Gesture  Grab
	PalmSize float64
	// TargetZ is the unsmoothed depth target.
	TargetZ float64
	// Wrist, ThumbTip and IndexTip are in image coordinates.
	Wrist    mgl64.Vec2
	ThumbTip mgl64.Vec2
	IndexTip mgl64.Vec2
}

// ClassifyLeft classifies the left hand. A closed fist wins over everything,
// then index+middle only; anything else is idle. The thumb is never looked at.
func ClassifyLeft(hand *detector.HandLandmarks) LeftResult {
	wrist := hand.Wrist()
	res := LeftResult{
		Gesture: LeftIdle,
		Wrist:   geometry.Planar(wrist),
		Target: mgl64.Vec2{
			(wrist.X - 0.5) * XScale,
			(0.5-wrist.Y)*YScale + YOffset,
		},
	}

	up := geometry.FingersUp(hand)
	switch {
	case geometry.CountUp(up) == 0:
		res.Gesture = LeftRotate
	case up[0] && up[1] && !up[2] && !up[3]:
		res.Gesture = LeftGlue
	}

	return res
}

// ClassifyRight derives depth from apparent palm size and detects a pinch.
// This is an empirical linear inverse mapping, not a calibrated depth model.
func ClassifyRight(hand *detector.HandLandmarks) RightResult {
	p := &hand.Points
	palm := geometry.Distance(p[detector.Wrist], p[detector.IndexMCP])

	res := RightResult{
		Gesture:  GrabNone,
		PalmSize: palm,
		TargetZ:  (PalmReference - palm) * ZScale,
		Wrist:    geometry.Planar(p[detector.Wrist]),
		ThumbTip: geometry.Planar(p[detector.ThumbTip]),
		IndexTip: geometry.Planar(p[detector.IndexTip]),
	}
	if res.ThumbTip.Sub(res.IndexTip).Len() < PinchThreshold {
		res.Gesture = GrabMove
	}

	return res
}
