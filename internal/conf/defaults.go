package conf

import (
	"time"

	"github.com/spf13/viper"
)

// SetDefaults registers the default value of every setting. Keys without
// a default are not picked up from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("camera.index", 0)
	v.SetDefault("camera.input", "")
	v.SetDefault("camera.width", 640)
	v.SetDefault("camera.height", 480)
	v.SetDefault("camera.fps", 20.0)

	v.SetDefault("motion.refreshwindow", 5*time.Second)
	v.SetDefault("motion.minregionarea", 500)
	v.SetDefault("motion.delta", 25.0)
	v.SetDefault("motion.blurkernel", 21)
	v.SetDefault("motion.dilateiterations", 2)

	v.SetDefault("recording.duration", 5*time.Second)
	v.SetDefault("recording.maxrecordings", 3)
	v.SetDefault("recording.path", ".")
	v.SetDefault("recording.container", "mp4")
	v.SetDefault("recording.codec", "mp4v")
	v.SetDefault("recording.rawcopy", false)
	v.SetDefault("recording.reports", true)

	v.SetDefault("preview.enabled", true)
	v.SetDefault("preview.title", "Bird Feeder Camera")
	v.SetDefault("preview.quitkey", "q")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.listen", "localhost:9101")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "feederwatch")
	v.SetDefault("mqtt.clientid", "feederwatch")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
