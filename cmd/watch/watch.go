// Package watch implements the watch command, which runs the standby and
// record loop against a camera or a video file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/smadhas/BIDFeeder/internal/clock"
	"github.com/smadhas/BIDFeeder/internal/conf"
	"github.com/smadhas/BIDFeeder/internal/logger"
	"github.com/smadhas/BIDFeeder/internal/metrics"
	"github.com/smadhas/BIDFeeder/internal/motion"
	"github.com/smadhas/BIDFeeder/internal/notify"
	"github.com/smadhas/BIDFeeder/internal/recorder"
	"github.com/smadhas/BIDFeeder/internal/video"
)

const shutdownTimeout = 5 * time.Second

// Loader returns validated settings and the root logger once flags are
// parsed.
type Loader func() (*conf.Settings, *slog.Logger, error)

// Command creates the watch command.
func Command(v *viper.Viper, load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the feeder and record when motion starts",
		Long: "Stand by on a camera or video file, start a fixed length recording " +
			"when motion is detected and stop after the configured number of recordings.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noPreview, _ := cmd.Flags().GetBool("no-preview"); noPreview {
				v.Set("preview.enabled", false)
			}
			settings, log, err := load()
			if err != nil {
				return err
			}
			return Run(cmd.Context(), settings, log)
		},
	}

	if err := setupFlags(cmd, v); err != nil {
		panic(fmt.Sprintf("setup watch flags: %v", err))
	}
	return cmd
}

func setupFlags(cmd *cobra.Command, v *viper.Viper) error {
	cmd.Flags().Int("camera", v.GetInt("camera.index"), "Camera device index")
	cmd.Flags().String("input", "", "Video file or stream URL to read instead of a camera")
	cmd.Flags().Int("max-recordings", v.GetInt("recording.maxrecordings"), "Stop after this many recordings")
	cmd.Flags().Duration("duration", v.GetDuration("recording.duration"), "Length of each recording")
	cmd.Flags().String("output", v.GetString("recording.path"), "Directory for recordings")
	cmd.Flags().Bool("no-preview", false, "Do not open the preview window")
	cmd.MarkFlagsMutuallyExclusive("camera", "input")

	bindings := map[string]string{
		"camera.index":            "camera",
		"camera.input":            "input",
		"recording.maxrecordings": "max-recordings",
		"recording.duration":      "duration",
		"recording.path":          "output",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// Run wires the components described by settings and blocks until the
// recording loop stops.
func Run(ctx context.Context, settings *conf.Settings, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream, err := video.Open(settings.StreamConfig(), logger.Module(log, "capture"))
	if err != nil {
		return err
	}
	// The controller closes the stream once it runs.
	owned := false
	defer func() {
		if !owned {
			stream.Close()
		}
	}()

	cfg := settings.RecorderConfig()
	if settings.Camera.Input != "" && stream.Fps() > 0 {
		cfg.Fps = stream.Fps()
	}
	clk := runClock(settings, stream, log)

	detector, err := motion.NewDetector(settings.MotionConfig(), clk, logger.Module(log, "motion"))
	if err != nil {
		return err
	}
	defer detector.Close()

	sinkLog := logger.Module(log, "video")
	sink, err := video.NewFileSink(settings.FileSinkConfig(), sinkLog)
	if err != nil {
		return err
	}

	opts := []recorder.Option{
		recorder.WithLogger(logger.Module(log, "recorder")),
		recorder.WithClock(clk),
	}

	if settings.Recording.RawCopy {
		raw, err := video.NewFileSink(settings.FileSinkConfig(), sinkLog)
		if err != nil {
			return err
		}
		opts = append(opts, recorder.WithRawSink(raw))
	}

	if settings.Recording.Reports {
		reports := recorder.NewReportWriter(settings.Recording.Path, logger.Module(log, "report"))
		opts = append(opts, recorder.WithListener(reports))
	}

	var registry *prometheus.Registry
	if settings.Telemetry.Enabled {
		registry = prometheus.NewRegistry()
		m, err := metrics.NewRecorderMetrics(registry)
		if err != nil {
			return err
		}
		opts = append(opts, recorder.WithMetrics(m), recorder.WithListener(m))
	}

	if settings.MQTT.Enabled {
		publisher := startPublisher(ctx, settings.MQTT, logger.Module(log, "mqtt"))
		defer publisher.Close()
		opts = append(opts, recorder.WithListener(publisher))
	}

	if settings.Preview.Enabled {
		window := video.NewWindow(settings.Preview.Title, settings.QuitKey())
		defer window.Close()
		opts = append(opts, recorder.WithPreview(window))
	}

	controller, err := recorder.New(stream, sink, detector, cfg, opts...)
	if err != nil {
		return err
	}
	owned = true

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if registry != nil {
		serveMetrics(gctx, g, settings.Telemetry.Listen, registry, logger.Module(log, "telemetry"))
	}

	res, runErr := controller.Run(gctx)
	cancel()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}

	log.Info("feeder watch finished",
		slog.String("reason", string(res.Reason)),
		slog.Int("recordings", res.Completed),
		slog.Int("aborted", res.Aborted),
		slog.Int("frames", res.Frames),
		slog.Int("motion_frames", res.MotionFrames))

	return runErr
}

// runClock follows the stream position for file input, which is decoded
// faster than real time, and the wall clock for cameras.
func runClock(settings *conf.Settings, stream *video.Stream, log *slog.Logger) clock.Clock {
	if settings.Camera.Input == "" {
		return clock.Real{}
	}
	if stream.Fps() <= 0 {
		log.Warn("input reports no frame rate, timing by wall clock",
			slog.String("input", settings.Camera.Input))
		return clock.Real{}
	}
	return video.NewStreamClock(stream, time.Now())
}

func serveMetrics(ctx context.Context, g *errgroup.Group, listen string, registry *prometheus.Registry, log *slog.Logger) {
	srv := metrics.NewServer(listen, registry, log)
	g.Go(func() error {
		log.Info("serving metrics", slog.String("listen", listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics endpoint: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// startPublisher connects to the broker. A failed connection is logged
// and the run continues; events are skipped until the client reconnects.
func startPublisher(ctx context.Context, s conf.MQTTSettings, log *slog.Logger) *notify.Publisher {
	cfg := notify.Config{
		Broker:   s.Broker,
		ClientID: s.ClientID,
		Username: s.Username,
		Password: s.Password,
		Topic:    s.Topic,
	}
	publisher := notify.NewPublisher(notify.NewClient(cfg), cfg, log)
	if err := publisher.Connect(ctx); err != nil {
		log.Warn("unable to connect to MQTT broker", slog.Any("error", err))
	}
	return publisher
}
