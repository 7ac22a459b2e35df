package motion

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero refresh window", func(c *Config) { c.RefreshWindow = 0 }, false},
		{"negative refresh window", func(c *Config) { c.RefreshWindow = -time.Second }, false},
		{"zero region area", func(c *Config) { c.MinRegionArea = 0 }, false},
		{"zero delta", func(c *Config) { c.Delta = 0 }, false},
		{"saturated delta", func(c *Config) { c.Delta = 255 }, false},
		{"even blur kernel", func(c *Config) { c.BlurKernel = 20 }, false},
		{"zero blur kernel", func(c *Config) { c.BlurKernel = 0 }, false},
		{"no dilation", func(c *Config) { c.DilateIterations = 0 }, true},
		{"negative dilation", func(c *Config) { c.DilateIterations = -1 }, false},
		{"zero box thickness", func(c *Config) { c.BoxThickness = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestRegionArea(t *testing.T) {
	assert.Equal(t, 900, Region{Bounds: imageRect(10, 10, 40, 40)}.Area())
	assert.Zero(t, Region{}.Area())
}

func imageRect(x0, y0, x1, y1 int) image.Rectangle {
	return image.Rect(x0, y0, x1, y1)
}
