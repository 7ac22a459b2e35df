package recorder

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Report is the sidecar written next to every finished recording.
type Report struct {
	ID           string    `yaml:"id"`
	Name         string    `yaml:"name"`
	Status       string    `yaml:"status"`
	Started      time.Time `yaml:"started"`
	Ended        time.Time `yaml:"ended"`
	Duration     string    `yaml:"duration"`
	Frames       int       `yaml:"frames"`
	MotionFrames int       `yaml:"motion_frames"`
	Fps          float64   `yaml:"fps"`
	Width        int       `yaml:"width"`
	Height       int       `yaml:"height"`
}

const (
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
)

func NewReport(info SessionInfo) Report {
	status := StatusAborted
	if info.Completed {
		status = StatusCompleted
	}

	return Report{
		ID:           info.ID,
		Name:         info.Name,
		Status:       status,
		Started:      info.StartedAt,
		Ended:        info.EndedAt,
		Duration:     fmt.Sprintf("%.2f", info.Length().Seconds()),
		Frames:       info.Frames,
		MotionFrames: info.MotionFrames,
		Fps:          info.Fps,
		Width:        info.Size.X,
		Height:       info.Size.Y,
	}
}

// ReportWriter is a Listener that writes <dir>/<name>.yaml when a session
// ends.
type ReportWriter struct {
	dir string
	log *slog.Logger
}

func NewReportWriter(dir string, log *slog.Logger) *ReportWriter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ReportWriter{dir: dir, log: log}
}

func (w *ReportWriter) Path(name string) string {
	return filepath.Join(w.dir, name+".yaml")
}

func (w *ReportWriter) SessionStarted(SessionInfo) {}

func (w *ReportWriter) SessionCompleted(info SessionInfo) {
	w.write(info)
}

func (w *ReportWriter) SessionAborted(info SessionInfo) {
	w.write(info)
}

func (w *ReportWriter) write(info SessionInfo) {
	data, err := yaml.Marshal(NewReport(info))
	if err != nil {
		w.log.Error("unable to encode session report", slog.String("session", info.Name), slog.Any("error", err))
		return
	}

	path := w.Path(info.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.log.Error("unable to write session report", slog.String("path", path), slog.Any("error", err))
	}
}
