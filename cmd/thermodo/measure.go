package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"thermodo"
)

var (
	measureNoUI        bool
	measureMode        string
	measureResistance  float64
	measureHeadset     bool
	measureDeviceCheck bool
)

var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Measure the temperature continuously",
	Long: `Play the probe and decode the microphone until interrupted.

Without an input device in the configuration the terminal UI asks for one.
With --noui every reading is printed on its own line.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("resistance") {
			cfg.Simulate.Resistance = measureResistance
		}
		if cmd.Flags().Changed("headset") {
			cfg.Simulate.Headset = measureHeadset
		}
		if cmd.Flags().Changed("device-check") {
			cfg.DeviceCheck = measureDeviceCheck
		}
		if measureMode != "" {
			cfg.Mode = measureMode
		}

		mode, err := thermodo.ParseMode(cfg.Mode)
		if err != nil {
			return err
		}

		if !measureNoUI && cfg.Log.File == "" {
			// stderr belongs to the terminal UI
			logger = zap.NewNop()
		}

		if !measureNoUI && !cfg.Simulate.Enabled && cfg.Input == "" {
			dev, ok, err := selectDevice()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			cfg.Input = dev
		}

		rec, play, release, err := openDevices()
		if err != nil {
			return err
		}
		defer release()

		session := thermodo.NewSession(rec, play,
			thermodo.WithLogger(logger),
			thermodo.WithMode(mode),
			thermodo.WithDeviceCheck(cfg.DeviceCheck),
			thermodo.WithBufferSize(cfg.BufferSize),
			thermodo.WithPresence(cfg.Presence))
		defer session.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if err := session.Start(ctx); err != nil {
			return err
		}

		// there is no jack sense on a desktop, the dongle is assumed plugged
		session.Plugged(true)

		if measureNoUI {
			return printEvents(ctx, session)
		}

		return runUI(ctx, session)
	},
}

func init() {
	measureCmd.Flags().BoolVar(&measureNoUI, "noui", false, "no user interface, write readings to stdout")
	measureCmd.Flags().StringVar(&measureMode, "mode", "", "decode mode: default or simplified")
	measureCmd.Flags().Float64Var(&measureResistance, "resistance", thermodo.RefResistance, "simulated sensor resistance (with --simulate)")
	measureCmd.Flags().BoolVar(&measureHeadset, "headset", false, "simulate a plain headset (with --simulate)")
	measureCmd.Flags().BoolVar(&measureDeviceCheck, "device-check", false, "check for the dongle before measuring")
}

func printEvents(ctx context.Context, session *thermodo.Session) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-session.Events():
			if line := describe(ev); line != "" {
				fmt.Println(line)
			}
			if e, ok := ev.(thermodo.EventError); ok {
				return e.Err
			}
			if e, ok := ev.(thermodo.EventDetection); ok && !e.Detected {
				return nil
			}
		}
	}
}

// describe renders an event as one line of text.
func describe(ev thermodo.Event) string {
	switch e := ev.(type) {
	case thermodo.EventStarted:
		return "measuring started"
	case thermodo.EventStopped:
		return "measuring stopped"
	case thermodo.EventPlugged:
		if e.Plugged {
			return "plugged in"
		}
		return "unplugged"
	case thermodo.EventDetection:
		if e.Detected {
			return "Thermodo detected"
		}
		return "Thermodo not detected"
	case thermodo.EventError:
		return "error: " + e.Err.Error()
	case thermodo.EventReading:
		return reading(e)
	}

	return ""
}

func reading(e thermodo.EventReading) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s ", string(e.Level.Bars[:]))

	switch r := e.Result; {
	case r.Err != nil:
		fmt.Fprintf(&sb, "%-24s", r.Err)
	case r.Undetermined():
		fmt.Fprintf(&sb, "out of range  %8.3f ohm    ", r.Resistance)
	default:
		fmt.Fprintf(&sb, "%7.2f°C  %8.3f ohm    ", r.Temperature, r.Resistance)
	}

	fmt.Fprintf(&sb, " frames:%d peak:%5d tone:%4.0fHz", e.Result.NumberOfFrames, e.Level.Peak, e.Level.Tone)
	return sb.String()
}
