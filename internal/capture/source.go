package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/handctl/internal/detector"
)

// ErrSourceUnavailable wraps any failure to produce a frame's observation.
// The frame is lost but the source stays usable.
var ErrSourceUnavailable = errors.New("landmark source unavailable")

// Observation is what a source yields for one frame.
type Observation struct {
	Hands []detector.HandLandmarks
	// Image is the frame the hands were detected in, or nil for sources
	// without pixels. The receiver must Close it.
	Image *gocv.Mat
}

// Close releases the image, if any.
func (o *Observation) Close() {
	if o.Image != nil {
		o.Image.Close()
		o.Image = nil
	}
}

// Source produces one Observation per call. Next may block until the next
// frame is ready. A source that has run out returns io.EOF.
type Source interface {
	Open() error
	Next() (Observation, error)
	Close() error
}

// DetectorSource runs a hand detector over camera frames.
type DetectorSource struct {
	camera   Camera
	detector detector.Detector
}

// NewDetectorSource combines a camera and a detector. The source owns both
// and closes both.
func NewDetectorSource(camera Camera, det detector.Detector) *DetectorSource {
	return &DetectorSource{
		camera:   camera,
		detector: det,
	}
}

// starter is implemented by detectors that need to be brought up before the
// first frame, such as the MediaPipe subprocess.
type starter interface {
	Start() error
}

// Open opens the camera and starts the detector, so that a detector that
// cannot run fails here rather than on every frame.
func (s *DetectorSource) Open() error {
	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	if st, ok := s.detector.(starter); ok {
		if err := st.Start(); err != nil {
			s.camera.Close()
			return fmt.Errorf("start detector: %w", err)
		}
	}
	return nil
}

// Next reads a frame and detects hands in it.
func (s *DetectorSource) Next() (Observation, error) {
	frame, err := s.camera.ReadFrame()
	if err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	hands, err := s.detector.Detect(frame)
	if err != nil {
		frame.Close()
		return Observation{}, fmt.Errorf("%w: detect: %v", ErrSourceUnavailable, err)
	}

	return Observation{Hands: hands, Image: frame}, nil
}

// Close releases the detector and the camera.
func (s *DetectorSource) Close() error {
	return errors.Join(s.detector.Close(), s.camera.Close())
}
