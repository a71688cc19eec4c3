package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/handctl/internal/detector"
)

func TestClassifyLeft_Priority(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want LeftGesture
	}{
		{"fist rotates", detector.FistLandmarks(detector.Left, 0.5, 0.5), LeftRotate},
		{"index and middle glue", detector.GlueLandmarks(detector.Left, 0.5, 0.5), LeftGlue},
		{"open palm idles", detector.OpenPalmLandmarks(detector.Left, 0.5, 0.5), LeftIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLeft(&tt.hand).Gesture)
		})
	}
}

func TestClassifyLeft_ThumbIgnored(t *testing.T) {
	fist := detector.FistLandmarks(detector.Left, 0.5, 0.5)
	glue := detector.GlueLandmarks(detector.Left, 0.5, 0.5)

	for _, thumbY := range []float64{0.1, 0.5, 0.9} {
		fist.Points[detector.ThumbTip].Y = thumbY
		glue.Points[detector.ThumbTip].Y = thumbY

		assert.Equal(t, LeftRotate, ClassifyLeft(&fist).Gesture, "thumb y=%v", thumbY)
		assert.Equal(t, LeftGlue, ClassifyLeft(&glue).Gesture, "thumb y=%v", thumbY)
	}
}

func TestClassifyLeft_OtherFingerCombinations(t *testing.T) {
	// Index only, middle only, index+middle+ring: none of these are glue.
	hand := detector.GlueLandmarks(detector.Left, 0.5, 0.5)
	hand.Points[detector.MiddleTip].Y = hand.Points[detector.MiddlePIP].Y + 0.02
	assert.Equal(t, LeftIdle, ClassifyLeft(&hand).Gesture)

	hand = detector.GlueLandmarks(detector.Left, 0.5, 0.5)
	hand.Points[detector.IndexTip].Y = hand.Points[detector.IndexPIP].Y + 0.02
	assert.Equal(t, LeftIdle, ClassifyLeft(&hand).Gesture)

	hand = detector.GlueLandmarks(detector.Left, 0.5, 0.5)
	hand.Points[detector.RingTip].Y = hand.Points[detector.RingPIP].Y - 0.05
	assert.Equal(t, LeftIdle, ClassifyLeft(&hand).Gesture)
}

func TestClassifyLeft_Target(t *testing.T) {
	hand := detector.OpenPalmLandmarks(detector.Left, 0.5, 0.5)
	res := ClassifyLeft(&hand)
	assert.InDelta(t, 0.0, res.Target.X(), 1e-12)
	assert.InDelta(t, 2.0, res.Target.Y(), 1e-12)

	hand = detector.FistLandmarks(detector.Left, 0.9, 0.1)
	res = ClassifyLeft(&hand)
	assert.InDelta(t, 10.0, res.Target.X(), 1e-9)
	assert.InDelta(t, 8.0, res.Target.Y(), 1e-9)
	assert.InDelta(t, 0.9, res.Wrist.X(), 1e-12)
	assert.InDelta(t, 0.1, res.Wrist.Y(), 1e-12)
}

// rightHand builds a right hand with the thumb-index gap measured along x
// from zero, so the planar distance equals gap exactly.
func rightHand(gap float64) detector.HandLandmarks {
	hand := detector.OpenPalmLandmarks(detector.Right, 0.5, 0.5)
	hand.Points[detector.IndexTip] = detector.Point3D{X: 0, Y: 0.3}
	hand.Points[detector.ThumbTip] = detector.Point3D{X: gap, Y: 0.3}
	return hand
}

func TestClassifyRight_PinchBoundary(t *testing.T) {
	tests := []struct {
		name string
		gap  float64
		want Grab
	}{
		{"touching", 0, GrabMove},
		{"just inside", 0.0499, GrabMove},
		{"exactly at threshold", 0.05, GrabNone},
		{"apart", 0.2, GrabNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := rightHand(tt.gap)
			assert.Equal(t, tt.want, ClassifyRight(&hand).Gesture)
		})
	}
}

func TestClassifyRight_Depth(t *testing.T) {
	hand := detector.OpenPalmLandmarks(detector.Right, 0.5, 0.5)

	// Palm span of exactly 0.15 along y maps to zero depth.
	hand.Points[detector.Wrist] = detector.Point3D{X: 0.5, Y: 0.75}
	hand.Points[detector.IndexMCP] = detector.Point3D{X: 0.5, Y: 0.6}
	res := ClassifyRight(&hand)
	assert.InDelta(t, 0.15, res.PalmSize, 1e-12)
	assert.InDelta(t, 0.0, res.TargetZ, 1e-9)

	// A bigger (closer) palm moves z negative, a smaller one positive.
	hand.Points[detector.IndexMCP] = detector.Point3D{X: 0.5, Y: 0.45}
	assert.InDelta(t, -12.0, ClassifyRight(&hand).TargetZ, 1e-9)

	hand.Points[detector.IndexMCP] = detector.Point3D{X: 0.5, Y: 0.70}
	assert.InDelta(t, 8.0, ClassifyRight(&hand).TargetZ, 1e-9)
}
