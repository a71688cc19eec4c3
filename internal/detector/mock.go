package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Finger extension flags in index, middle, ring, pinky order.
var (
	fingersFist = [4]bool{false, false, false, false}
	fingersGlue = [4]bool{true, true, false, false}
	fingersOpen = [4]bool{true, true, true, true}
)

// FistLandmarks returns an upright hand with its wrist at (x, y) and all four
// fingers curled below their PIP joints. The thumb sticks out.
func FistLandmarks(h Handedness, x, y float64) HandLandmarks {
	return poseAt(h, x, y, fingersFist)
}

// GlueLandmarks returns a hand with index and middle extended and ring and
// pinky curled. The thumb is extended as well.
func GlueLandmarks(h Handedness, x, y float64) HandLandmarks {
	return poseAt(h, x, y, fingersGlue)
}

// OpenPalmLandmarks returns a hand with all fingers extended.
func OpenPalmLandmarks(h Handedness, x, y float64) HandLandmarks {
	return poseAt(h, x, y, fingersOpen)
}

// PinchLandmarks returns an open hand whose thumb tip sits gap units to the
// right of the index tip.
func PinchLandmarks(h Handedness, x, y, gap float64) HandLandmarks {
	lm := poseAt(h, x, y, fingersOpen)
	tip := lm.Points[IndexTip]
	lm.Points[ThumbTip] = Point3D{X: tip.X + gap, Y: tip.Y, Z: tip.Z}
	return lm
}

// fingerOffsets holds each finger's x offset from the wrist.
var fingerOffsets = [4]struct {
	x                float64
	mcp, pip, dip, t int
}{
	{0.03, IndexMCP, IndexPIP, IndexDIP, IndexTip},
	{0.00, MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	{-0.03, RingMCP, RingPIP, RingDIP, RingTip},
	{-0.06, PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
}

// poseAt lays out an upright hand, fingers pointing toward smaller y.
func poseAt(h Handedness, x, y float64, up [4]bool) HandLandmarks {
	lm := HandLandmarks{
		Handedness: h,
		Score:      0.95,
	}

	lm.Points[Wrist] = Point3D{X: x, Y: y}

	lm.Points[ThumbCMC] = Point3D{X: x + 0.04, Y: y - 0.03}
	lm.Points[ThumbMCP] = Point3D{X: x + 0.07, Y: y - 0.06}
	lm.Points[ThumbIP] = Point3D{X: x + 0.09, Y: y - 0.09}
	lm.Points[ThumbTip] = Point3D{X: x + 0.10, Y: y - 0.12}

	for i, f := range fingerOffsets {
		fx := x + f.x
		lm.Points[f.mcp] = Point3D{X: fx, Y: y - 0.10, Z: -0.01}
		lm.Points[f.pip] = Point3D{X: fx, Y: y - 0.15, Z: -0.02}
		if up[i] {
			lm.Points[f.dip] = Point3D{X: fx, Y: y - 0.19, Z: -0.02}
			lm.Points[f.t] = Point3D{X: fx, Y: y - 0.22, Z: -0.02}
		} else {
			lm.Points[f.dip] = Point3D{X: fx, Y: y - 0.13, Z: -0.04}
			lm.Points[f.t] = Point3D{X: fx, Y: y - 0.11, Z: -0.03}
		}
	}

	return lm
}
