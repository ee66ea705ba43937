// SPDX-License-Identifier: MIT
/*
Package audio owns everything that touches sound outside the analysis core:
- WAV decoding with cropping and mono down-mix
- WAV export of processed signals
- PortAudio device discovery
- Fixed-length capture from an input device into a complete buffer

Every path ends in a Clip: normalized mono float samples plus the rate they
were taken at. Clips are never modified after construction.
*/
package audio

import "time"

// Clip is a complete mono buffer ready for analysis.
type Clip struct {
	Source     string    // file path or device name
	Samples    []float64 // mono, nominally in [-1, 1]
	SampleRate float64   // Hz
	Channels   int       // channel count before down-mix
	Offset     float64   // seconds cropped from the start of the source
}

// Duration returns the length of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / c.SampleRate * float64(time.Second))
}

// Seconds returns the length of the clip in seconds.
func (c *Clip) Seconds() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / c.SampleRate
}
