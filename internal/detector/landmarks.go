// Package detector provides hand detection interfaces and types for the control pipeline.
package detector

import (
	"errors"
	"fmt"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedObservation is returned for a hand report that cannot be used:
// wrong number of points or an unrecognized handedness label.
var ErrMalformedObservation = errors.New("malformed hand observation")

// Handedness is the detector's left/right label for a hand.
type Handedness string

const (
	Left  Handedness = "Left"
	Right Handedness = "Right"
)

// ParseHandedness maps a detector label onto Left or Right.
func ParseHandedness(label string) (Handedness, error) {
	switch Handedness(label) {
	case Left:
		return Left, nil
	case Right:
		return Right, nil
	}
	return "", fmt.Errorf("%w: handedness %q", ErrMalformedObservation, label)
}

// Point3D represents a normalized landmark: x and y relative to the image
// frame (y grows downward), z a relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness Handedness            `json:"handedness"`
	Score      float64               `json:"score"`
}

// Validate reports ErrMalformedObservation if the hand carries a label other
// than Left or Right. The point count is fixed by the array type.
func (h *HandLandmarks) Validate() error {
	if h == nil {
		return fmt.Errorf("%w: nil hand", ErrMalformedObservation)
	}
	_, err := ParseHandedness(string(h.Handedness))
	return err
}

// FromPoints builds a HandLandmarks from a variable-length point slice, as
// decoded off the wire. Exactly NumLandmarks points are required.
func FromPoints(label string, score float64, points []Point3D) (HandLandmarks, error) {
	handedness, err := ParseHandedness(label)
	if err != nil {
		return HandLandmarks{}, err
	}
	if len(points) != NumLandmarks {
		return HandLandmarks{}, fmt.Errorf("%w: %d points, want %d", ErrMalformedObservation, len(points), NumLandmarks)
	}

	lm := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}
	copy(lm.Points[:], points)
	return lm, nil
}

// Wrist returns the wrist landmark.
func (h *HandLandmarks) Wrist() Point3D {
	return h.Points[Wrist]
}
