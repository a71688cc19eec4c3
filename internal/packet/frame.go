// Package packet defines the per-frame control datagram and the UDP sink
// that delivers it.
package packet

import (
	"encoding/json"

	"github.com/ayusman/handctl/internal/gesture"
)

// Frame is the control record sent once per processed frame. Field names
// are fixed by the consumer.
type Frame struct {
	HandX   float64      `json:"hand_x"`
	HandY   float64      `json:"hand_y"`
	HandZ   float64      `json:"hand_z"`
	Gesture gesture.Grab `json:"gesture"`
	Glue    bool         `json:"glue"`
	Rotate  bool         `json:"rotate"`
	RotX    float64      `json:"rot_x"`
	RotY    float64      `json:"rot_y"`
	// Snap and Scale are reserved by the consumer and always false and 1.0.
	Snap  bool    `json:"snap"`
	Scale float64 `json:"scale"`
}

// NewFrame returns a frame with the reserved fields set.
func NewFrame() Frame {
	return Frame{
		Gesture: gesture.GrabNone,
		Scale:   1.0,
	}
}

// Encode serializes a frame as a JSON object.
func Encode(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// Decode parses a datagram produced by Encode. Unknown fields are ignored.
func Decode(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}
