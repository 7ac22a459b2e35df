package conf

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/smadhas/BIDFeeder/internal/logger"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings checks every section and reports all problems at once.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	add := func(err error) {
		if err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	add(validateCameraSettings(&settings.Camera))
	add(settings.MotionConfig().Validate())
	add(settings.RecorderConfig().Validate())
	add(validateRecordingSettings(&settings.Recording))
	add(validatePreviewSettings(&settings.Preview))
	add(validateTelemetrySettings(&settings.Telemetry))
	add(validateMQTTSettings(&settings.MQTT))
	if _, err := logger.ParseLevel(settings.Log.Level); err != nil {
		add(fmt.Errorf("log: %w", err))
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateCameraSettings(c *CameraSettings) error {
	switch {
	case c.Index < 0:
		return fmt.Errorf("camera: index must not be negative, got %d", c.Index)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("camera: dimensions must be positive, got %dx%d", c.Width, c.Height)
	case c.Fps <= 0:
		return fmt.Errorf("camera: fps must be positive, got %.2f", c.Fps)
	}
	return nil
}

func validateRecordingSettings(r *RecordingSettings) error {
	switch {
	case strings.TrimPrefix(r.Container, ".") == "":
		return fmt.Errorf("recording: container must not be empty")
	case len(r.Codec) != 4:
		return fmt.Errorf("recording: codec must be a FourCC, got %q", r.Codec)
	}
	return nil
}

func validatePreviewSettings(p *PreviewSettings) error {
	if p.Enabled && len([]rune(p.QuitKey)) != 1 {
		return fmt.Errorf("preview: quit key must be a single character, got %q", p.QuitKey)
	}
	return nil
}

func validateTelemetrySettings(t *TelemetrySettings) error {
	if t.Enabled && t.Listen == "" {
		return fmt.Errorf("telemetry: listen address is required when enabled")
	}
	return nil
}

func validateMQTTSettings(m *MQTTSettings) error {
	if !m.Enabled {
		return nil
	}
	if m.Topic == "" {
		return fmt.Errorf("mqtt: topic is required when enabled")
	}
	u, err := url.Parse(m.Broker)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("mqtt: invalid broker URL %q", m.Broker)
	}
	return nil
}
