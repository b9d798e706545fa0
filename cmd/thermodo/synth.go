package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"thermodo"
)

var (
	synthKind      string
	synthOutput    string
	synthFrequency int
	synthDuration  int
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Write a probe waveform to a WAV file",
	Long: `Write one of the probe waveforms as a 16-bit stereo WAV file.

Kinds:
  sweep     the calibration sweep of the default mode
  twophase  the left then right tone of the simplified mode
  tone      the presence test tone`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var pcm *thermodo.StereoPCM

		switch synthKind {
		case "sweep":
			pcm = thermodo.DefaultSweep()
		case "twophase":
			pcm = thermodo.TwoPhase(synthDuration, synthFrequency)
		case "tone":
			pcm = thermodo.TestTone(synthDuration, synthFrequency)
		default:
			return fmt.Errorf("unknown waveform kind: %q", synthKind)
		}

		f, err := os.Create(synthOutput)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := thermodo.WriteWAV(f, pcm); err != nil {
			return err
		}

		fmt.Printf("%s: %d frames, %v\n", synthOutput, pcm.Frames(), pcm.Duration())
		return nil
	},
}

func init() {
	synthCmd.Flags().StringVar(&synthKind, "kind", "sweep", "waveform: sweep, twophase or tone")
	synthCmd.Flags().StringVarP(&synthOutput, "output", "o", "", "output WAV file")
	synthCmd.Flags().IntVar(&synthFrequency, "frequency", thermodo.Frequency, "tone frequency in Hz (twophase, tone)")
	synthCmd.Flags().IntVar(&synthDuration, "duration", thermodo.TestToneDuration, "duration in ms (per channel for twophase)")
	synthCmd.MarkFlagRequired("output")
}
