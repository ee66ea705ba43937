// SPDX-License-Identifier: MIT
package main

import (
	"os"

	"notetrack/cmd"
	"notetrack/internal/log"
	"notetrack/pkg/build"
)

// main is the entry point for notetrack.
// The program flow is divided into three phases:
//
// 1. Startup Phase:
//   - Initialize build information
//   - Parse command line arguments and load the configuration
//   - Execute one-off commands (devices, notes)
//
// 2. Analysis Phase:
//   - Load the clip from a WAV file or record it from an input device
//   - Run the pipeline: low-pass, envelope gate, estimation, segmentation
//   - Publish the report to the configured transports
//
// 3. Output Phase:
//   - Print the summary, write the report and the filtered WAV
//   - Browse the notes in the terminal if requested
//   - Keep serving WebSocket clients until interrupted
func main() {
	// ==================== STARTUP PHASE ====================

	buildErr := build.Initialize()

	config, opts, err := cmd.ParseArgs()
	if err != nil {
		log.Fatal(err)
	}
	if config == nil {
		// help or --version
		return
	}

	log.SetLevel(config.Level())
	if buildErr != nil {
		log.Debugf("Build: unstamped binary: %v", buildErr)
	}
	log.Infof("%s", build.GetBuildFlags().Summary())

	if err := executeCommand(config, opts, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
