package recorder

import (
	"errors"
	"fmt"
	"image"
	"time"
)

var ErrInvalidConfig = errors.New("invalid recorder config")

// Config holds the constants of one run.
type Config struct {
	Duration      time.Duration // length of every recording
	MaxRecordings int           // the run stops after this many completed recordings
	Fps           float64       // frame rate written into recordings
	Size          image.Point   // frame dimensions written into recordings
	RawSuffix     string        // appended to the name of the unannotated copy
}

func DefaultConfig() Config {
	return Config{
		Duration:      5 * time.Second,
		MaxRecordings: 3,
		Fps:           20,
		Size:          image.Pt(640, 480),
		RawSuffix:     "-raw",
	}
}

func (c Config) Validate() error {
	switch {
	case c.Duration <= 0:
		return fmt.Errorf("%w: recording duration must be positive, got %s", ErrInvalidConfig, c.Duration)
	case c.MaxRecordings <= 0:
		return fmt.Errorf("%w: max recordings must be positive, got %d", ErrInvalidConfig, c.MaxRecordings)
	case c.Fps <= 0:
		return fmt.Errorf("%w: frame rate must be positive, got %.2f", ErrInvalidConfig, c.Fps)
	case c.Size.X <= 0 || c.Size.Y <= 0:
		return fmt.Errorf("%w: frame dimensions must be positive, got %dx%d", ErrInvalidConfig, c.Size.X, c.Size.Y)
	}
	return nil
}
