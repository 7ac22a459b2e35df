package frame

import "time"

// Reference is the baseline a Frame is compared against. It holds at most
// one smoothed frame together with the time it was captured.
type Reference struct {
	frame      *Frame
	capturedAt time.Time
}

func NewReference() *Reference {
	return &Reference{}
}

func (r *Reference) Empty() bool {
	return r.frame == nil
}

func (r *Reference) Frame() *Frame {
	return r.frame
}

func (r *Reference) CapturedAt() time.Time {
	return r.capturedAt
}

// Age is the time elapsed since capture. A clock reading earlier than the
// capture time yields zero.
func (r *Reference) Age(now time.Time) time.Duration {
	age := now.Sub(r.capturedAt)
	if age < 0 {
		return 0
	}
	return age
}

// Stale reports whether the reference must be replaced: it is unset or its
// age strictly exceeds window.
func (r *Reference) Stale(now time.Time, window time.Duration) bool {
	return r.Empty() || r.Age(now) > window
}

// Replace stores f as the new baseline, taking ownership of it, and
// releases the previous one.
func (r *Reference) Replace(f *Frame, now time.Time) {
	if r.frame != nil && r.frame != f {
		r.frame.Close()
	}
	r.frame = f
	r.capturedAt = now
}

func (r *Reference) Close() {
	r.frame.Close()
	r.frame = nil
	r.capturedAt = time.Time{}
}
