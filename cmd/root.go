// Package cmd holds the feederwatch command line.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/smadhas/BIDFeeder/cmd/watch"
	"github.com/smadhas/BIDFeeder/internal/conf"
	"github.com/smadhas/BIDFeeder/internal/logger"
)

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	v := conf.NewViper()
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "feederwatch",
		Short:        "Record short clips when something moves at the bird feeder",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default feederwatch.yaml in ., ~/.config/feederwatch or /etc/feederwatch)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	if err := v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(fmt.Sprintf("bind debug flag: %v", err))
	}

	load := func() (*conf.Settings, *slog.Logger, error) {
		settings, err := conf.Load(v, configFile)
		if err != nil {
			return nil, nil, err
		}
		log, err := logger.New(os.Stderr, settings.LoggerConfig())
		if err != nil {
			return nil, nil, err
		}
		if file := v.ConfigFileUsed(); file != "" {
			log.Debug("loaded config file", slog.String("path", file))
		}
		return settings, log, nil
	}

	rootCmd.AddCommand(watch.Command(v, load))

	return rootCmd
}
