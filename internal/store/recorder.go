package store

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/handctl/internal/detector"
	"github.com/ayusman/handctl/internal/packet"
)

// recordBatchSize is how many frames are buffered before a write.
const recordBatchSize = 30

// Recorder appends the frames of one running session. It is not safe for
// concurrent use; the frame loop owns it.
type Recorder struct {
	store   *Store
	session *Session
	log     logrus.FieldLogger
	pending []RecordedFrame
	seq     int
}

// NewRecorder creates the session row and returns a recorder for it.
func NewRecorder(s *Store, sess *Session, log logrus.FieldLogger) (*Recorder, error) {
	if err := s.Sessions().Create(sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	log = log.WithField("session", sess.ID)
	log.WithField("db", s.Path()).Info("recording session")

	return &Recorder{
		store:   s,
		session: sess,
		log:     log,
		pending: make([]RecordedFrame, 0, recordBatchSize),
	}, nil
}

// SessionID returns the ID of the session being recorded.
func (r *Recorder) SessionID() string {
	return r.session.ID
}

// Record buffers one frame and writes the buffer when it is full.
func (r *Recorder) Record(hands []detector.HandLandmarks, frame packet.Frame) error {
	r.pending = append(r.pending, RecordedFrame{
		Seq:    r.seq,
		Hands:  hands,
		Packet: frame,
	})
	r.seq++

	if len(r.pending) >= recordBatchSize {
		return r.Flush()
	}
	return nil
}

// Flush writes buffered frames.
func (r *Recorder) Flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	err := r.store.Frames().AppendBatch(r.session.ID, r.pending)
	r.pending = r.pending[:0]
	return err
}

// Close flushes and marks the session ended.
func (r *Recorder) Close() error {
	err := errors.Join(r.Flush(), r.store.Sessions().End(r.session.ID, r.seq))
	r.log.WithField("frames", r.seq).Info("session closed")
	return err
}
