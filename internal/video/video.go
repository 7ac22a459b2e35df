// Package video connects the recording loop to gocv capture devices,
// container writers and preview windows.
package video

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"github.com/smadhas/BIDFeeder/internal/frame"
)

var ErrSinkNotOpen = errors.New("sink is not open")

// Sink receives the frames of one recording at a time.
type Sink interface {
	Open(name string, fps float64, size image.Point) error
	WriteFrame(f *frame.Frame) error
	Close() error
}

// FileSinkConfig selects where and how recordings are written.
type FileSinkConfig struct {
	Dir       string
	Container string // file extension without the dot, e.g. "mp4"
	Codec     string // FourCC, e.g. "mp4v"
}

// FileSink writes each recording to <Dir>/<name>.<Container>.
type FileSink struct {
	cfg    FileSinkConfig
	writer *gocv.VideoWriter
	path   string
	log    *slog.Logger
}

func NewFileSink(cfg FileSinkConfig, log *slog.Logger) (*FileSink, error) {
	if cfg.Container == "" {
		return nil, fmt.Errorf("file sink: container extension is required")
	}
	if len(cfg.Codec) != 4 {
		return nil, fmt.Errorf("file sink: codec must be a FourCC, got %q", cfg.Codec)
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	cfg.Container = strings.TrimPrefix(cfg.Container, ".")
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("file sink: create output directory: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &FileSink{cfg: cfg, log: log}, nil
}

// Path returns the file a recording called name is written to.
func (s *FileSink) Path(name string) string {
	return filepath.Join(s.cfg.Dir, name+"."+s.cfg.Container)
}

// Exists reports whether a recording called name is already on disk.
func (s *FileSink) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

func (s *FileSink) Open(name string, fps float64, size image.Point) error {
	if s.writer != nil {
		return fmt.Errorf("file sink: %s is still open", s.path)
	}

	path := s.Path(name)
	writer, err := gocv.VideoWriterFile(path, s.cfg.Codec, fps, size.X, size.Y, true)
	if err != nil {
		return fmt.Errorf("file sink: open %s: %w", path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return fmt.Errorf("file sink: open %s: writer not opened", path)
	}

	s.writer = writer
	s.path = path
	s.log.Debug("recording file opened", slog.String("path", path))
	return nil
}

func (s *FileSink) WriteFrame(f *frame.Frame) error {
	if s.writer == nil {
		return ErrSinkNotOpen
	}
	if err := s.writer.Write(*f.Mat()); err != nil {
		return fmt.Errorf("file sink: write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileSink) Close() error {
	if s.writer == nil {
		return nil
	}
	err := s.writer.Close()
	s.log.Debug("recording file closed", slog.String("path", s.path))
	s.writer = nil
	s.path = ""
	if err != nil {
		return fmt.Errorf("file sink: close: %w", err)
	}
	return nil
}
