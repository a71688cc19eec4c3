package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ayusman/handctl/internal/detector"
	"github.com/ayusman/handctl/internal/packet"
)

// RecordedFrame is one processed frame of a session.
type RecordedFrame struct {
	Seq    int
	Hands  []detector.HandLandmarks
	Packet packet.Frame
}

// FrameRepository stores session frames.
type FrameRepository struct {
	db *sql.DB
}

// Frames returns the frame repository for this store.
func (s *Store) Frames() *FrameRepository {
	return &FrameRepository{db: s.db}
}

// Append stores one frame.
func (r *FrameRepository) Append(sessionID string, f RecordedFrame) error {
	hands, pkt, err := encodeFrame(f)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO session_frames (session_id, seq, hands, packet) VALUES (?, ?, ?, ?)`,
		sessionID, f.Seq, hands, pkt,
	)
	return err
}

// AppendBatch stores several frames in a single transaction.
func (r *FrameRepository) AppendBatch(sessionID string, frames []RecordedFrame) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO session_frames (session_id, seq, hands, packet) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range frames {
		hands, pkt, err := encodeFrame(f)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(sessionID, f.Seq, hands, pkt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// BySession returns a session's frames in sequence order.
func (r *FrameRepository) BySession(sessionID string) ([]RecordedFrame, error) {
	rows, err := r.db.Query(
		`SELECT seq, hands, packet FROM session_frames
		 WHERE session_id = ?
		 ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []RecordedFrame
	for rows.Next() {
		var f RecordedFrame
		var hands, pkt string
		if err := rows.Scan(&f.Seq, &hands, &pkt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(hands), &f.Hands); err != nil {
			return nil, fmt.Errorf("frame %d hands: %w", f.Seq, err)
		}
		if f.Packet, err = packet.Decode([]byte(pkt)); err != nil {
			return nil, fmt.Errorf("frame %d packet: %w", f.Seq, err)
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// Count returns how many frames a session has stored.
func (r *FrameRepository) Count(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM session_frames WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

func encodeFrame(f RecordedFrame) (string, string, error) {
	hands := f.Hands
	if hands == nil {
		hands = []detector.HandLandmarks{}
	}
	h, err := json.Marshal(hands)
	if err != nil {
		return "", "", fmt.Errorf("encode hands: %w", err)
	}
	p, err := packet.Encode(f.Packet)
	if err != nil {
		return "", "", fmt.Errorf("encode packet: %w", err)
	}
	return string(h), string(p), nil
}
