package recorder

import "time"

// Listener is told about session lifecycle events. Calls happen on the
// recording loop and must not block.
type Listener interface {
	SessionStarted(info SessionInfo)
	SessionCompleted(info SessionInfo)
	SessionAborted(info SessionInfo)
}

// Metrics receives per-frame measurements from the loop.
type Metrics interface {
	FrameProcessed(motion bool, took time.Duration)
	FrameWritten()
}

type listeners []Listener

func (ls listeners) SessionStarted(info SessionInfo) {
	for _, l := range ls {
		l.SessionStarted(info)
	}
}

func (ls listeners) SessionCompleted(info SessionInfo) {
	for _, l := range ls {
		l.SessionCompleted(info)
	}
}

func (ls listeners) SessionAborted(info SessionInfo) {
	for _, l := range ls {
		l.SessionAborted(info)
	}
}

type nopMetrics struct{}

func (nopMetrics) FrameProcessed(bool, time.Duration) {}
func (nopMetrics) FrameWritten()                      {}
