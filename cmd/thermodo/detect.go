package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"thermodo"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Check whether the dongle is plugged in",
	Long: `Record a moment of silence, then play a short tone and record again.
The dongle feeds the tone back into the microphone, a plain headset does not.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		rec, play, release, err := openDevices()
		if err != nil {
			return err
		}
		defer release()

		if thermodo.NewPresenceDetector(rec, play, cfg.Presence, logger).Detect(ctx) {
			fmt.Println("Thermodo detected")
		} else {
			fmt.Println("Thermodo not detected")
		}

		return nil
	},
}
