// Package conf loads the FeederWatch settings from file, environment and
// command line flags.
package conf

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/smadhas/BIDFeeder/internal/logger"
	"github.com/smadhas/BIDFeeder/internal/motion"
	"github.com/smadhas/BIDFeeder/internal/recorder"
	"github.com/smadhas/BIDFeeder/internal/video"
)

const (
	ConfigName = "feederwatch"
	EnvPrefix  = "FEEDERWATCH"
)

// CameraSettings selects the frame source.
type CameraSettings struct {
	Index  int     // camera device index, used when Input is empty
	Input  string  // video file or stream URL to read instead of a camera
	Width  int     // frame width in pixels
	Height int     // frame height in pixels
	Fps    float64 // nominal frame rate
}

// MotionSettings tunes motion detection.
type MotionSettings struct {
	RefreshWindow    time.Duration // reference frame is replaced when older than this
	MinRegionArea    int           // smallest bounding box area counted as motion
	Delta            float64       // per-pixel intensity change threshold
	BlurKernel       int           // Gaussian blur kernel size, odd
	DilateIterations int
}

// RecordingSettings controls the recordings written on motion.
type RecordingSettings struct {
	Duration      time.Duration // length of each recording
	MaxRecordings int           // stop after this many recordings
	Path          string        // output directory
	Container     string        // file extension, e.g. mp4
	Codec         string        // FourCC
	RawCopy       bool          // also write a copy without motion boxes
	Reports       bool          // write a YAML report next to each recording
}

type PreviewSettings struct {
	Enabled bool
	Title   string
	QuitKey string
}

type TelemetrySettings struct {
	Enabled bool
	Listen  string
}

type MQTTSettings struct {
	Enabled  bool
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
}

type LogSettings struct {
	Level  string
	Format string
}

// Settings is the complete configuration of a run. It is read once at
// startup and not changed afterwards.
type Settings struct {
	Debug     bool
	Camera    CameraSettings
	Motion    MotionSettings
	Recording RecordingSettings
	Preview   PreviewSettings
	Telemetry TelemetrySettings
	MQTT      MQTTSettings
	Log       LogSettings
}

// NewViper returns a viper instance with defaults and environment
// overrides registered.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile, or feederwatch.yaml from the default locations
// when configFile is empty, and returns validated settings. A missing
// default config file is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		for _, path := range configPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if settings.Debug {
		settings.Log.Level = "debug"
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func configPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigName))
	}
	return append(paths, filepath.Join("/etc", ConfigName))
}

func (s *Settings) MotionConfig() motion.Config {
	cfg := motion.DefaultConfig()
	cfg.RefreshWindow = s.Motion.RefreshWindow
	cfg.MinRegionArea = s.Motion.MinRegionArea
	cfg.Delta = float32(s.Motion.Delta)
	cfg.BlurKernel = s.Motion.BlurKernel
	cfg.DilateIterations = s.Motion.DilateIterations
	return cfg
}

func (s *Settings) RecorderConfig() recorder.Config {
	cfg := recorder.DefaultConfig()
	cfg.Duration = s.Recording.Duration
	cfg.MaxRecordings = s.Recording.MaxRecordings
	cfg.Fps = s.Camera.Fps
	cfg.Size = image.Pt(s.Camera.Width, s.Camera.Height)
	return cfg
}

func (s *Settings) StreamConfig() video.StreamConfig {
	return video.StreamConfig{
		Device: s.Camera.Index,
		Input:  s.Camera.Input,
		Width:  s.Camera.Width,
		Height: s.Camera.Height,
		Fps:    s.Camera.Fps,
	}
}

func (s *Settings) FileSinkConfig() video.FileSinkConfig {
	return video.FileSinkConfig{
		Dir:       s.Recording.Path,
		Container: s.Recording.Container,
		Codec:     s.Recording.Codec,
	}
}

func (s *Settings) LoggerConfig() logger.Config {
	return logger.Config{Level: s.Log.Level, Format: s.Log.Format}
}

// QuitKey is the preview key that stops the run.
func (s *Settings) QuitKey() rune {
	r := []rune(s.Preview.QuitKey)
	if len(r) == 0 {
		return 'q'
	}
	return r[0]
}
