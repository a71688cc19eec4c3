package store

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/ayusman/handctl/internal/detector"
	"github.com/ayusman/handctl/internal/logging"
	"github.com/ayusman/handctl/internal/packet"
)

// newTestStore creates a Store in a per-test temporary directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func newSession() *Session {
	return &Session{
		Source: SourceCamera,
		Host:   "127.0.0.1",
		Port:   5052,
		Alpha:  0.6,
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := newSession()
	if err := repo.Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if sess.ID == "" {
		t.Fatal("Create should assign an ID")
	}
	if sess.StartedAt.IsZero() {
		t.Error("Create should set StartedAt")
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.Source != SourceCamera || got.Port != 5052 || got.Alpha != 0.6 {
		t.Errorf("unexpected session: %+v", got)
	}
	if got.EndedAt != nil {
		t.Error("new session should not be ended")
	}
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Sessions().GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_End(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := newSession()
	if err := repo.Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if err := repo.End(sess.ID, 42); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.EndedAt == nil {
		t.Error("EndedAt should be set")
	}
	if got.Frames != 42 {
		t.Errorf("expected 42 frames, got %d", got.Frames)
	}

	if err := repo.End("missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_ListAndDelete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	first := newSession()
	second := newSession()
	second.Source = SourceReplay
	for _, sess := range []*Session{first, second} {
		if err := repo.Create(sess); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
	}

	if err := s.Frames().Append(first.ID, RecordedFrame{Seq: 0, Packet: packet.NewFrame()}); err != nil {
		t.Fatalf("failed to append frame: %v", err)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}

	if err := repo.Delete(first.ID); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}

	n, err := s.Frames().Count(first.ID)
	if err != nil {
		t.Fatalf("failed to count frames: %v", err)
	}
	if n != 0 {
		t.Errorf("frames should be deleted with their session, %d left", n)
	}

	if err := repo.Delete(first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFrameRepository_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	sess := newSession()
	if err := s.Sessions().Create(sess); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	pkt := packet.NewFrame()
	pkt.HandY = 2.4
	pkt.Rotate = true

	frames := []RecordedFrame{
		{Seq: 0, Hands: nil, Packet: packet.NewFrame()},
		{Seq: 1, Hands: []detector.HandLandmarks{detector.FistLandmarks(detector.Left, 0.5, 0.5)}, Packet: pkt},
	}
	if err := s.Frames().AppendBatch(sess.ID, frames); err != nil {
		t.Fatalf("failed to append frames: %v", err)
	}

	got, err := s.Frames().BySession(sess.ID)
	if err != nil {
		t.Fatalf("failed to read frames: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(got))
	}
	if len(got[0].Hands) != 0 {
		t.Errorf("frame 0 should have no hands, got %d", len(got[0].Hands))
	}
	if got[1].Hands[0] != frames[1].Hands[0] {
		t.Error("hand landmarks did not survive storage")
	}
	if got[1].Packet != pkt {
		t.Errorf("packet = %+v, want %+v", got[1].Packet, pkt)
	}
}

func TestFrameRepository_DuplicateSeqRejected(t *testing.T) {
	s := newTestStore(t)
	sess := newSession()
	s.Sessions().Create(sess)

	f := RecordedFrame{Seq: 3, Packet: packet.NewFrame()}
	if err := s.Frames().Append(sess.ID, f); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := s.Frames().Append(sess.ID, f); err == nil {
		t.Error("expected duplicate seq to fail")
	}
}

func TestFrameRepository_UnknownSession(t *testing.T) {
	s := newTestStore(t)

	err := s.Frames().Append("no-such-session", RecordedFrame{Packet: packet.NewFrame()})
	if err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestRecorder_FlushesAndEnds(t *testing.T) {
	s := newTestStore(t)

	rec, err := NewRecorder(s, newSession(), logging.Discard())
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	total := recordBatchSize + 5
	for i := 0; i < total; i++ {
		if err := rec.Record(nil, packet.NewFrame()); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	n, _ := s.Frames().Count(rec.SessionID())
	if n != recordBatchSize {
		t.Errorf("expected one batch (%d) written before close, got %d", recordBatchSize, n)
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	n, _ = s.Frames().Count(rec.SessionID())
	if n != total {
		t.Errorf("expected %d frames after close, got %d", total, n)
	}

	sess, err := s.Sessions().GetByID(rec.SessionID())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sess.EndedAt == nil || sess.Frames != total {
		t.Errorf("session not closed properly: %+v", sess)
	}
}

func TestReplaySource(t *testing.T) {
	s := newTestStore(t)

	rec, err := NewRecorder(s, newSession(), logging.Discard())
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	inputs := [][]detector.HandLandmarks{
		{detector.FistLandmarks(detector.Left, 0.5, 0.5)},
		nil,
		{detector.OpenPalmLandmarks(detector.Right, 0.4, 0.4), detector.GlueLandmarks(detector.Left, 0.6, 0.6)},
	}
	for _, hands := range inputs {
		rec.Record(hands, packet.NewFrame())
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	src := NewReplaySource(s, rec.SessionID())
	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	for i, want := range inputs {
		obs, err := src.Next()
		if err != nil {
			t.Fatalf("Next() %d error = %v", i, err)
		}
		if len(obs.Hands) != len(want) {
			t.Fatalf("frame %d: expected %d hands, got %d", i, len(want), len(obs.Hands))
		}
		for j := range want {
			if obs.Hands[j] != want[j] {
				t.Errorf("frame %d hand %d differs", i, j)
			}
		}
		if obs.Image != nil {
			t.Error("replay should not carry images")
		}
	}

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
}

func TestReplaySource_UnknownSession(t *testing.T) {
	s := newTestStore(t)

	err := NewReplaySource(s, "missing").Open()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
