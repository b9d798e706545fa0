package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"thermodo"
)

var decodeMode string

var decodeCmd = &cobra.Command{
	Use:   "decode <file.wav>",
	Short: "Decode a recorded WAV file",
	Long: `Decode a WAV recording of the microphone, one capture buffer at a
time, and print one reading per buffer. Multi-channel files are mixed down
to mono first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if decodeMode == "" {
			decodeMode = cfg.Mode
		}

		mode, err := thermodo.ParseMode(decodeMode)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		samples, err := thermodo.ReadWAV(f)
		if err != nil {
			return err
		}

		size := mode.BufferSize()
		if mode == thermodo.ModeDefault {
			size = cfg.BufferSize
		}

		dec := thermodo.NewDecoder(mode, logger)

		for off := 0; off < len(samples); off += size {
			buf := samples[off:min(off+size, len(samples))]
			res := dec.Decode(buf)

			fmt.Printf("%8.3fs %v\n", float64(off)/thermodo.SampleRate, res)
		}

		return nil
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeMode, "mode", "", "decode mode: default or simplified")
}
