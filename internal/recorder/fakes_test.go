package recorder

import (
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	"github.com/smadhas/BIDFeeder/internal/clock"
	"github.com/smadhas/BIDFeeder/internal/frame"
	"github.com/smadhas/BIDFeeder/internal/frame/frametest"
)

const (
	testWidth  = 160
	testHeight = 120
	frameStep  = 50 * time.Millisecond // 20 fps
)

var testStart = time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local)

func testConfig() Config {
	return Config{
		Duration:      5 * time.Second,
		MaxRecordings: 3,
		Fps:           20,
		Size:          image.Pt(testWidth, testHeight),
		RawSuffix:     "-raw",
	}
}

// fakeSource hands out frames built by gen and advances the clock by one
// frame interval before every frame but the first.
type fakeSource struct {
	t      testing.TB
	clk    *clock.Manual
	n      int
	gen    func(t testing.TB, i int) *frame.Frame
	onNext func(i int)
	err    error

	next   int
	closes int
}

func newFakeSource(t testing.TB, clk *clock.Manual, n int, gen func(t testing.TB, i int) *frame.Frame) *fakeSource {
	return &fakeSource{t: t, clk: clk, n: n, gen: gen}
}

func (s *fakeSource) Next() (*frame.Frame, error) {
	if s.closes > 0 {
		s.t.Errorf("Next called after Close")
	}
	if s.next >= s.n {
		return nil, s.err
	}
	if s.next > 0 {
		s.clk.Advance(frameStep)
	}
	i := s.next
	s.next++
	if s.onNext != nil {
		s.onNext(i)
	}
	return s.gen(s.t, i), nil
}

func (s *fakeSource) Close() error {
	s.closes++
	return nil
}

func blankFrames(t testing.TB, i int) *frame.Frame {
	return frametest.Blank(t, i, testWidth, testHeight)
}

// squareBetween yields a bright 30x30 square for frames in [from, to).
func squareBetween(from, to int) func(t testing.TB, i int) *frame.Frame {
	return func(t testing.TB, i int) *frame.Frame {
		if i >= from && i < to {
			return frametest.WithSquares(t, i, testWidth, testHeight, frametest.Square(60, 40, 30))
		}
		return frametest.Blank(t, i, testWidth, testHeight)
	}
}

// scriptedDetector reports motion for frames selected by motion and
// returns a clone for them, like the real detector does.
type scriptedDetector struct {
	motion    func(i int) bool
	annotated map[*frame.Frame]bool
	err       error
}

func newScriptedDetector(motion func(i int) bool) *scriptedDetector {
	return &scriptedDetector{motion: motion, annotated: make(map[*frame.Frame]bool)}
}

func (d *scriptedDetector) Detect(f *frame.Frame) (*frame.Frame, bool, error) {
	if d.err != nil {
		return nil, false, d.err
	}
	if !d.motion(f.Index()) {
		return f, false, nil
	}
	clone, err := f.Clone()
	if err != nil {
		return nil, false, err
	}
	d.annotated[clone] = true
	return clone, true, nil
}

func always(int) bool { return true }

func between(from, to int) func(int) bool {
	return func(i int) bool { return i >= from && i < to }
}

type write struct {
	index int
	frame *frame.Frame
}

// fakeSink records everything and refuses to break the single open
// recording rule.
type fakeSink struct {
	t       testing.TB
	current string
	opens   []string
	sizes   []image.Point
	writes  map[string][]write
	closes  int
	exists  map[string]bool

	openErr     error
	failWriteAt int // 1-based write number that fails, 0 never
	writeCount  int
	closeErr    error
}

func newFakeSink(t testing.TB) *fakeSink {
	return &fakeSink{t: t, writes: make(map[string][]write), exists: make(map[string]bool)}
}

func (s *fakeSink) Open(name string, fps float64, size image.Point) error {
	if s.openErr != nil {
		return s.openErr
	}
	if s.current != "" {
		s.t.Errorf("open %s while %s is still open", name, s.current)
		return fmt.Errorf("already open")
	}
	s.current = name
	s.opens = append(s.opens, name)
	s.sizes = append(s.sizes, size)
	return nil
}

func (s *fakeSink) WriteFrame(f *frame.Frame) error {
	if s.current == "" {
		s.t.Errorf("write of frame %d with no open recording", f.Index())
		return errors.New("not open")
	}
	s.writeCount++
	if s.failWriteAt > 0 && s.writeCount == s.failWriteAt {
		return errors.New("disk full")
	}
	s.writes[s.current] = append(s.writes[s.current], write{index: f.Index(), frame: f})
	return nil
}

func (s *fakeSink) Close() error {
	s.closes++
	s.current = ""
	return s.closeErr
}

func (s *fakeSink) Exists(name string) bool {
	return s.exists[name]
}

func (s *fakeSink) indices(name string) []int {
	var out []int
	for _, w := range s.writes[name] {
		out = append(out, w.index)
	}
	return out
}

// recordingListener keeps every event in order.
type recordingListener struct {
	events []string
	infos  []SessionInfo
}

func (l *recordingListener) SessionStarted(info SessionInfo) {
	l.events = append(l.events, "started:"+info.Name)
	l.infos = append(l.infos, info)
}

func (l *recordingListener) SessionCompleted(info SessionInfo) {
	l.events = append(l.events, "completed:"+info.Name)
	l.infos = append(l.infos, info)
}

func (l *recordingListener) SessionAborted(info SessionInfo) {
	l.events = append(l.events, "aborted:"+info.Name)
	l.infos = append(l.infos, info)
}

type fakePreview struct {
	shown  int
	quitAt int // frame index that asks to quit, -1 never
}

func (p *fakePreview) Show(f *frame.Frame) bool {
	p.shown++
	return f.Index() == p.quitAt
}

func (p *fakePreview) Close() error { return nil }

func intRange(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
