package store

import (
	"fmt"
	"io"

	"github.com/ayusman/handctl/internal/capture"
)

// ReplaySource feeds a recorded session's observations back as a landmark
// source, one recorded frame per Next call, then io.EOF.
type ReplaySource struct {
	store     *Store
	sessionID string
	frames    []RecordedFrame
	next      int
}

// NewReplaySource returns a source for the given session. Frames are loaded
// on Open.
func NewReplaySource(s *Store, sessionID string) *ReplaySource {
	return &ReplaySource{
		store:     s,
		sessionID: sessionID,
	}
}

// Open loads the session's frames.
func (r *ReplaySource) Open() error {
	if _, err := r.store.Sessions().GetByID(r.sessionID); err != nil {
		return fmt.Errorf("session %s: %w", r.sessionID, err)
	}

	frames, err := r.store.Frames().BySession(r.sessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", r.sessionID, err)
	}

	r.frames = frames
	r.next = 0
	return nil
}

// Next returns the next recorded observation.
func (r *ReplaySource) Next() (capture.Observation, error) {
	if r.next >= len(r.frames) {
		return capture.Observation{}, io.EOF
	}
	f := r.frames[r.next]
	r.next++
	return capture.Observation{Hands: f.Hands}, nil
}

// Close drops the loaded frames. The store stays open.
func (r *ReplaySource) Close() error {
	r.frames = nil
	return nil
}
