package video

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gocv.io/x/gocv"

	"github.com/smadhas/BIDFeeder/internal/frame"
)

var ErrSourceClosed = errors.New("video source closed")

// Source supplies frames in arrival order. Next returns (nil, nil) or an
// error once no more frames can be read.
type Source interface {
	Next() (*frame.Frame, error)
	Close() error
}

// StreamConfig describes what to open and the capture format to request
// from a device.
type StreamConfig struct {
	Device int    // camera index, used when Input is empty
	Input  string // file path or stream URL
	Width  int
	Height int
	Fps    float64
}

// Stream reads frames from a gocv VideoCapture.
type Stream struct {
	video  *gocv.VideoCapture
	fps    float64
	index  int
	closed bool
	log    *slog.Logger
}

func NewDeviceStream(cfg StreamConfig, log *slog.Logger) (*Stream, error) {
	video, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("unable to open camera %d: %w", cfg.Device, err)
	}

	if cfg.Width > 0 {
		video.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		video.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Fps > 0 {
		video.Set(gocv.VideoCaptureFPS, cfg.Fps)
	}

	return newStream(video, log), nil
}

func NewFileStream(path string, log *slog.Logger) (*Stream, error) {
	video, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open video %s: %w", path, err)
	}
	return newStream(video, log), nil
}

// Open picks a file/URL stream when cfg.Input is set and the camera
// otherwise.
func Open(cfg StreamConfig, log *slog.Logger) (*Stream, error) {
	if cfg.Input != "" {
		return NewFileStream(cfg.Input, log)
	}
	return NewDeviceStream(cfg, log)
}

func newStream(video *gocv.VideoCapture, log *slog.Logger) *Stream {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Stream{video: video, fps: video.Get(gocv.VideoCaptureFPS), log: log}
}

// Next reads the next frame. A failed read is reported as end of stream.
func (s *Stream) Next() (*frame.Frame, error) {
	if s.closed {
		return nil, ErrSourceClosed
	}

	mat := gocv.NewMat()
	if ok := s.video.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		s.log.Debug("no frame from capture", slog.Int("frame", s.index))
		return nil, nil
	}

	f, err := frame.NewFrame(s.index, &mat)
	if err != nil {
		mat.Close()
		return nil, err
	}
	s.index++
	return f, nil
}

// Fps is the frame rate reported by the capture, 0 when unknown.
func (s *Stream) Fps() float64 {
	return s.fps
}

// Position is the nominal offset of the last frame returned by Next:
// its index divided by the frame rate.
func (s *Stream) Position() time.Duration {
	if s.fps <= 0 || s.index == 0 {
		return 0
	}
	return time.Duration(math.Round(float64(s.index-1) * float64(time.Second) / s.fps))
}

func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.video.Close()
}
