package recorder

import (
	"fmt"
	"image"
	"time"

	uuid "github.com/gofrs/uuid/v5"
)

// Session is the recording currently being written.
type Session struct {
	id           uuid.UUID
	name         string
	startedAt    time.Time
	fps          float64
	size         image.Point
	frames       int
	motionFrames int
}

func newSession(name string, startedAt time.Time, fps float64, size image.Point) (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	return &Session{
		id:        id,
		name:      name,
		startedAt: startedAt,
		fps:       fps,
		size:      size,
	}, nil
}

func (s *Session) ID() string {
	return s.id.String()
}

func (s *Session) Name() string {
	return s.name
}

func (s *Session) Frames() int {
	return s.frames
}

// Elapsed is the time since the first frame was written, never negative.
func (s *Session) Elapsed(now time.Time) time.Duration {
	elapsed := now.Sub(s.startedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func (s *Session) info(now time.Time, completed bool) SessionInfo {
	return SessionInfo{
		ID:           s.ID(),
		Name:         s.name,
		StartedAt:    s.startedAt,
		EndedAt:      now,
		Frames:       s.frames,
		MotionFrames: s.motionFrames,
		Fps:          s.fps,
		Size:         s.size,
		Completed:    completed,
	}
}

// SessionInfo is a snapshot of a session handed to listeners.
type SessionInfo struct {
	ID           string
	Name         string
	StartedAt    time.Time
	EndedAt      time.Time // zero while the session is running
	Frames       int
	MotionFrames int
	Fps          float64
	Size         image.Point
	Completed    bool
}

// Length is the playback length of the written frames.
func (i SessionInfo) Length() time.Duration {
	if i.Fps <= 0 {
		return 0
	}
	return time.Duration(float64(i.Frames) / i.Fps * float64(time.Second))
}
