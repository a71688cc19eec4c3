// Package geometry holds the landmark measurements used by gesture classification.
package geometry

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/handctl/internal/detector"
)

// Planar returns the (x, y) part of a landmark.
func Planar(p detector.Point3D) mgl64.Vec2 {
	return mgl64.Vec2{p.X, p.Y}
}

// Distance is the Euclidean distance between two landmarks in the image
// plane. Z is ignored.
func Distance(a, b detector.Point3D) float64 {
	return Planar(a).Sub(Planar(b)).Len()
}

// FingerExtended reports whether a fingertip sits above its PIP joint.
// Image y grows downward, so "above" means a smaller y.
func FingerExtended(tip, pip detector.Point3D) bool {
	return tip.Y < pip.Y
}

// FingersUp returns the extension state of index, middle, ring and pinky,
// in that order. The thumb is not considered.
func FingersUp(hand *detector.HandLandmarks) [4]bool {
	p := &hand.Points
	return [4]bool{
		FingerExtended(p[detector.IndexTip], p[detector.IndexPIP]),
		FingerExtended(p[detector.MiddleTip], p[detector.MiddlePIP]),
		FingerExtended(p[detector.RingTip], p[detector.RingPIP]),
		FingerExtended(p[detector.PinkyTip], p[detector.PinkyPIP]),
	}
}

// CountUp returns how many of the flags are set.
func CountUp(up [4]bool) int {
	n := 0
	for _, u := range up {
		if u {
			n++
		}
	}
	return n
}
