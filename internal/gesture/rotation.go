package gesture

import "github.com/go-gl/mathgl/mgl64"

// RotationGain converts normalized wrist travel into degrees.
const RotationGain = 120.0

// RotationTracker is the fist-drag state machine. It is Idle when anchor is
// nil and Dragging otherwise, so the anchor exists exactly while rotating.
//
// The zero value is Idle. RotationTracker is a value type; copying it copies
// the anchor.
type RotationTracker struct {
	anchor *mgl64.Vec2
}

// Rotating reports whether a drag is active.
func (r RotationTracker) Rotating() bool {
	return r.anchor != nil
}

// Anchor returns the current drag anchor, if any.
func (r RotationTracker) Anchor() (mgl64.Vec2, bool) {
	if r.anchor == nil {
		return mgl64.Vec2{}, false
	}
	return *r.anchor, true
}

// Drag feeds one fist frame with the wrist at pos. The first fist frame only
// sets the anchor and returns a zero delta. Later frames return the angle
// delta (x, y) relative to the previous frame's wrist and move the anchor.
func (r RotationTracker) Drag(pos mgl64.Vec2) (RotationTracker, mgl64.Vec2) {
	next := RotationTracker{anchor: &pos}
	if r.anchor == nil {
		return next, mgl64.Vec2{}
	}

	d := pos.Sub(*r.anchor)
	return next, mgl64.Vec2{-d.Y() * RotationGain, d.X() * RotationGain}
}

// Release ends any active drag.
func (r RotationTracker) Release() RotationTracker {
	return RotationTracker{}
}
