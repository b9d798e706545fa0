// Command thermodo drives the Thermodo thermometer dongle from the headset
// jack.
//
// Usage:
//
//	thermodo [flags] <command> [args]
//
// Commands:
//
//	devices  - list audio devices
//	synth    - write a probe waveform to a WAV file
//	decode   - decode a recorded WAV file
//	detect   - check whether the dongle is plugged in
//	measure  - measure continuously (terminal UI or plain output)
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
