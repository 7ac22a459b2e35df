// Package recorder runs the standby/record loop: it watches frames for
// motion and writes fixed length recordings when motion starts.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smadhas/BIDFeeder/internal/clock"
	"github.com/smadhas/BIDFeeder/internal/frame"
	"github.com/smadhas/BIDFeeder/internal/video"
)

var (
	ErrSinkUnavailable = errors.New("recording sink unavailable")
	ErrAlreadyRan      = errors.New("controller already ran")
)

// Detector decides whether a frame shows motion. The returned frame is
// either f or a new annotated frame owned by the caller.
type Detector interface {
	Detect(f *frame.Frame) (*frame.Frame, bool, error)
}

// Reason tells why Run returned.
type Reason string

const (
	ReasonSourceExhausted Reason = "source-exhausted"
	ReasonCancelled       Reason = "cancelled"
	ReasonMaxRecordings   Reason = "max-recordings"
	ReasonSinkFailure     Reason = "sink-failure"
	ReasonDetectorFailure Reason = "detector-failure"
)

// Result summarizes a run.
type Result struct {
	Reason       Reason
	Completed    int // recordings that ran their full duration
	Aborted      int // recordings closed early because the run ended
	Frames       int
	MotionFrames int
}

type Option func(*Controller)

func WithClock(clk clock.Clock) Option {
	return func(c *Controller) { c.clock = clk }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

func WithPreview(p video.Preview) Option {
	return func(c *Controller) { c.preview = p }
}

func WithListener(l Listener) Option {
	return func(c *Controller) { c.listeners = append(c.listeners, l) }
}

func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithRawSink adds a second sink that receives every recorded frame
// without motion annotations.
func WithRawSink(s video.Sink) Option {
	return func(c *Controller) { c.rawSink = s }
}

// Controller owns the frame source and the sinks for the duration of Run.
type Controller struct {
	cfg       Config
	source    video.Source
	sink      video.Sink
	rawSink   video.Sink
	detector  Detector
	preview   video.Preview
	clock     clock.Clock
	listeners listeners
	metrics   Metrics
	namer     *Namer
	log       *slog.Logger

	session      *Session
	completed    int
	aborted      int
	frames       int
	motionFrames int
	ran          bool
}

func New(src video.Source, sink video.Sink, det Detector, cfg Config, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil || sink == nil || det == nil {
		return nil, fmt.Errorf("%w: source, sink and detector are required", ErrInvalidConfig)
	}

	c := &Controller{
		cfg:      cfg,
		source:   src,
		sink:     sink,
		detector: det,
		clock:    clock.Real{},
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	c.namer = NewNamer(c.nameTaken)

	return c, nil
}

// Run blocks until the source is exhausted, ctx is cancelled, the
// operator stops the preview, MaxRecordings recordings completed or a
// sink fails. A recording still open at that point is closed, then the
// source is closed. Run may only be called once.
func (c *Controller) Run(ctx context.Context) (res Result, err error) {
	if c.ran {
		return Result{}, ErrAlreadyRan
	}
	c.ran = true

	c.log.Info("standing by for motion",
		slog.Duration("duration", c.cfg.Duration),
		slog.Int("max_recordings", c.cfg.MaxRecordings))

	defer func() {
		if aerr := c.abort(); aerr != nil && err == nil {
			res.Reason = ReasonSinkFailure
			err = aerr
		}
		if cerr := c.source.Close(); cerr != nil {
			c.log.Warn("unable to close frame source", slog.Any("error", cerr))
		}
		res.Completed = c.completed
		res.Aborted = c.aborted
		res.Frames = c.frames
		res.MotionFrames = c.motionFrames

		c.log.Info("recording loop stopped",
			slog.String("reason", string(res.Reason)),
			slog.Int("completed", res.Completed),
			slog.Int("aborted", res.Aborted),
			slog.Int("frames", res.Frames))
	}()

	for {
		select {
		case <-ctx.Done():
			return Result{Reason: ReasonCancelled}, nil
		default:
		}

		f, rerr := c.source.Next()
		if rerr != nil {
			c.log.Info("frame source failed, ending run", slog.Any("error", rerr))
			return Result{Reason: ReasonSourceExhausted}, nil
		}
		if f == nil {
			return Result{Reason: ReasonSourceExhausted}, nil
		}

		reason, serr := c.step(f)
		if serr != nil || reason != "" {
			return Result{Reason: reason}, serr
		}
	}
}

// step processes one frame. A non-empty Reason ends the run.
func (c *Controller) step(f *frame.Frame) (Reason, error) {
	defer f.Close()

	began := time.Now()
	annotated, detected, err := c.detector.Detect(f)
	if err != nil {
		return ReasonDetectorFailure, fmt.Errorf("detect motion in frame %d: %w", f.Index(), err)
	}
	if annotated != f {
		defer annotated.Close()
	}

	c.frames++
	if detected {
		c.motionFrames++
	}
	c.metrics.FrameProcessed(detected, time.Since(began))

	quit := c.preview != nil && c.preview.Show(annotated)

	now := c.clock.Now()
	switch {
	case c.session == nil && detected:
		if err := c.start(now, f, annotated); err != nil {
			return ReasonSinkFailure, err
		}
	case c.session != nil && c.session.Elapsed(now) < c.cfg.Duration:
		if detected {
			c.session.motionFrames++
		}
		if err := c.write(f, annotated); err != nil {
			return ReasonSinkFailure, err
		}
	case c.session != nil:
		if err := c.complete(now); err != nil {
			return ReasonSinkFailure, err
		}
		if c.completed >= c.cfg.MaxRecordings {
			return ReasonMaxRecordings, nil
		}
	}

	if quit {
		c.log.Info("stop requested from preview")
		return ReasonCancelled, nil
	}
	return "", nil
}

func (c *Controller) start(now time.Time, raw, annotated *frame.Frame) error {
	size := c.cfg.Size
	if actual := annotated.Size(); actual != size {
		c.log.Warn("frame size differs from configured size, recording actual size",
			slog.Int("width", actual.X), slog.Int("height", actual.Y),
			slog.Int("configured_width", size.X), slog.Int("configured_height", size.Y))
		size = actual
	}

	name := c.namer.Next(now)
	session, err := newSession(name, now, c.cfg.Fps, size)
	if err != nil {
		return err
	}

	if err := c.sink.Open(name, c.cfg.Fps, size); err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrSinkUnavailable, name, err)
	}
	if c.rawSink != nil {
		if err := c.rawSink.Open(name+c.cfg.RawSuffix, c.cfg.Fps, size); err != nil {
			c.closeQuietly(c.sink, name)
			return fmt.Errorf("%w: open %s: %w", ErrSinkUnavailable, name+c.cfg.RawSuffix, err)
		}
	}

	c.session = session
	c.session.motionFrames++
	c.log.Info("recording started",
		slog.String("session", session.Name()),
		slog.String("id", session.ID()),
		slog.Int("frame", annotated.Index()))
	c.listeners.SessionStarted(session.info(time.Time{}, false))

	return c.write(raw, annotated)
}

// write appends one frame to the open session. A failed write closes the
// session without counting it.
func (c *Controller) write(raw, annotated *frame.Frame) error {
	if err := c.sink.WriteFrame(annotated); err != nil {
		return c.fail(fmt.Errorf("%w: write %s: %w", ErrSinkUnavailable, c.session.Name(), err))
	}
	if c.rawSink != nil {
		if err := c.rawSink.WriteFrame(raw); err != nil {
			return c.fail(fmt.Errorf("%w: write %s: %w", ErrSinkUnavailable, c.session.Name()+c.cfg.RawSuffix, err))
		}
	}

	c.session.frames++
	c.metrics.FrameWritten()
	return nil
}

func (c *Controller) complete(now time.Time) error {
	session := c.session
	c.session = nil

	if err := c.closeSinks(); err != nil {
		c.listeners.SessionAborted(session.info(now, false))
		c.aborted++
		return fmt.Errorf("%w: close %s: %w", ErrSinkUnavailable, session.Name(), err)
	}

	c.completed++
	c.log.Info("recording completed",
		slog.String("session", session.Name()),
		slog.Int("frames", session.Frames()),
		slog.Int("completed", c.completed))
	c.listeners.SessionCompleted(session.info(now, true))
	return nil
}

// abort closes a session the run is leaving behind. It is not counted as
// completed.
func (c *Controller) abort() error {
	if c.session == nil {
		return nil
	}
	session := c.session
	c.session = nil
	c.aborted++

	err := c.closeSinks()
	c.log.Warn("recording closed before its duration elapsed",
		slog.String("session", session.Name()),
		slog.Int("frames", session.Frames()))
	c.listeners.SessionAborted(session.info(c.clock.Now(), false))
	if err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrSinkUnavailable, session.Name(), err)
	}
	return nil
}

// fail aborts the open session after a sink error and returns err.
func (c *Controller) fail(err error) error {
	if aerr := c.abort(); aerr != nil {
		c.log.Error("unable to close recording after failure", slog.Any("error", aerr))
	}
	return err
}

func (c *Controller) closeSinks() error {
	err := c.sink.Close()
	if c.rawSink != nil {
		err = errors.Join(err, c.rawSink.Close())
	}
	return err
}

func (c *Controller) closeQuietly(s video.Sink, name string) {
	if err := s.Close(); err != nil {
		c.log.Warn("unable to close sink", slog.String("session", name), slog.Any("error", err))
	}
}

type existsChecker interface {
	Exists(name string) bool
}

func (c *Controller) nameTaken(name string) bool {
	if ec, ok := c.sink.(existsChecker); ok && ec.Exists(name) {
		return true
	}
	if ec, ok := c.rawSink.(existsChecker); ok && ec.Exists(name+c.cfg.RawSuffix) {
		return true
	}
	return false
}
