// Package smoothing provides the exponential moving average used to steady
// landmark-derived control axes.
package smoothing

import (
	"errors"
	"fmt"
)

// DefaultAlpha weights new samples at 60%.
const DefaultAlpha = 0.6

// ErrInvalidAlpha is returned for a smoothing factor outside (0, 1].
var ErrInvalidAlpha = errors.New("smoothing factor must be in (0, 1]")

// EMA is a one-pole exponential moving average. It holds no state of its
// own: callers keep one value per axis and step it only when that axis has
// a fresh sample, so an axis without input keeps its last value.
type EMA struct {
	Alpha float64
}

// New returns an EMA with the given factor.
func New(alpha float64) (EMA, error) {
	if !(alpha > 0 && alpha <= 1) {
		return EMA{}, fmt.Errorf("%w: %v", ErrInvalidAlpha, alpha)
	}
	return EMA{Alpha: alpha}, nil
}

// Step blends one raw sample into state.
func (e EMA) Step(state, raw float64) float64 {
	return state*(1-e.Alpha) + raw*e.Alpha
}
