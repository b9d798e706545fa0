package main

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"thermodo"
)

var (
	// Global flags
	cfgFile  string
	envFile  string
	logLevel string
	simulate bool

	cfg    *thermodo.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "thermodo",
	Short: "Thermodo headset jack thermometer",
	Long: `Thermodo plays a probe signal on the headset output, records it back
through the dongle and turns the recording into a temperature.

Examples:
  # Measure with the terminal UI
  thermodo measure

  # Measure without hardware, simulating a 25°C sensor
  thermodo measure --simulate --resistance 100 --noui

  # Record the sweep to a file and decode it
  thermodo synth --kind sweep -o sweep.wav
  thermodo decode sweep.wav
`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		cfg, err = thermodo.LoadConfig(cfgFile, envFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if simulate {
			cfg.Simulate.Enabled = true
		}

		logger, err = thermodo.NewLogger(cfg.Log)
		return err
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with THERMODO_* variables")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false, "use the loopback simulator instead of audio devices")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(measureCmd)
}

// openDevices returns the recorder and player selected by cfg. The returned
// function releases them.
func openDevices() (thermodo.Recorder, thermodo.Player, func(), error) {
	if cfg.Simulate.Enabled {
		mode := thermodo.LoopbackDongle
		if cfg.Simulate.Headset {
			mode = thermodo.LoopbackHeadset
		}

		lb := thermodo.NewLoopback(cfg.Simulate.Resistance, mode)
		lb.Noise = cfg.Simulate.Noise
		lb.Realtime = true

		logger.Info("using loopback simulator",
			zap.Float64("resistance", lb.Resistance),
			zap.Stringer("mode", mode))

		return lb, lb.Playback(), func() {}, nil
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, nil, nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	rec, err := thermodo.NewPortAudioRecorder(cfg.Input, logger)
	if err != nil {
		portaudio.Terminate()
		return nil, nil, nil, err
	}

	play, err := thermodo.NewPortAudioPlayer(cfg.Output, logger)
	if err != nil {
		portaudio.Terminate()
		return nil, nil, nil, err
	}

	logger.Info("using audio devices",
		zap.String("input", rec.Name),
		zap.String("output", play.Name))

	release := func() {
		play.Stop()
		rec.Stop()
		portaudio.Terminate()
	}

	return rec, play, release, nil
}
