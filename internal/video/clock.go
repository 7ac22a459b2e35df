package video

import "time"

// StreamClock tells time by stream position rather than by the wall clock.
// A file is decoded as fast as the CPU allows, so durations measured while
// reading one must follow the frame timestamps.
type StreamClock struct {
	stream *Stream
	start  time.Time
}

// NewStreamClock returns a clock that reads start at the first frame of s
// and advances by 1/fps with every frame read.
func NewStreamClock(s *Stream, start time.Time) *StreamClock {
	return &StreamClock{stream: s, start: start}
}

func (c *StreamClock) Now() time.Time {
	return c.start.Add(c.stream.Position())
}
