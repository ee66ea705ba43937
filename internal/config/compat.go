// SPDX-License-Identifier: MIT
package config

import (
	"notetrack/internal/log"
	"notetrack/internal/spectrum"
)

// Cutoff returns the low-pass -3 dB frequency in Hz.
func (c *Config) Cutoff() float64 {
	return c.Filter.CutoffHigh * c.Filter.CutoffFactor
}

// Overlap returns the analysis overlap in samples with the -1 default resolved.
func (c *Config) Overlap() int {
	if c.Analysis.Overlap < 0 {
		return c.Analysis.WindowSize / 8
	}
	return c.Analysis.Overlap
}

// HopSize returns the distance between consecutive analysis windows.
func (c *Config) HopSize() int {
	return c.Analysis.WindowSize - c.Overlap()
}

// WindowFunc returns the parsed analysis window. Validate has already
// rejected unknown names.
func (c *Config) WindowFunc() spectrum.WindowFunc {
	w, _ := spectrum.ParseWindowFunc(c.Analysis.Window)
	return w
}

// Level returns the parsed log level.
func (c *Config) Level() log.LogLevel {
	l, _ := log.ParseLevel(c.LogLevel)
	return l
}
