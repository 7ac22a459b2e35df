package motion

import (
	"errors"
	"fmt"
	"image/color"
	"time"
)

var ErrInvalidConfig = errors.New("invalid motion detector config")

// Config tunes the Detector. All values are fixed for the lifetime of a
// Detector.
type Config struct {
	RefreshWindow    time.Duration // maximum age of the reference frame
	MinRegionArea    int           // minimum bounding box area of a region, in pixels
	Delta            float32       // intensity difference that marks a pixel as changed
	BlurKernel       int           // Gaussian kernel side, must be odd
	DilateIterations int
	BoxColor         color.RGBA
	BoxThickness     int
}

func DefaultConfig() Config {
	return Config{
		RefreshWindow:    5 * time.Second,
		MinRegionArea:    500,
		Delta:            25,
		BlurKernel:       21,
		DilateIterations: 2,
		BoxColor:         color.RGBA{0, 255, 0, 0},
		BoxThickness:     2,
	}
}

func (c Config) Validate() error {
	switch {
	case c.RefreshWindow <= 0:
		return fmt.Errorf("%w: refresh window must be positive, got %s", ErrInvalidConfig, c.RefreshWindow)
	case c.MinRegionArea <= 0:
		return fmt.Errorf("%w: minimum region area must be positive, got %d", ErrInvalidConfig, c.MinRegionArea)
	case c.Delta <= 0 || c.Delta >= 255:
		return fmt.Errorf("%w: delta must be in (0, 255), got %.1f", ErrInvalidConfig, c.Delta)
	case c.BlurKernel <= 0 || c.BlurKernel%2 == 0:
		return fmt.Errorf("%w: blur kernel must be a positive odd number, got %d", ErrInvalidConfig, c.BlurKernel)
	case c.DilateIterations < 0:
		return fmt.Errorf("%w: dilate iterations must not be negative, got %d", ErrInvalidConfig, c.DilateIterations)
	case c.BoxThickness <= 0:
		return fmt.Errorf("%w: box thickness must be positive, got %d", ErrInvalidConfig, c.BoxThickness)
	}
	return nil
}
