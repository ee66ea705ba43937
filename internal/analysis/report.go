// SPDX-License-Identifier: MIT
package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"notetrack/internal/pitch"
	"notetrack/internal/segment"
)

// Report is the full result of one pipeline run, as handed to the
// visualisation side.
type Report struct {
	Source     string                `json:"source"`
	SampleRate float64               `json:"sample_rate"`
	Duration   float64               `json:"duration"` // seconds
	Estimator  string                `json:"estimator"`
	Cutoff     float64               `json:"cutoff"`    // Hz
	Threshold  float64               `json:"threshold"` // mean envelope
	A4         float64               `json:"a4"`
	CacheHit   bool                  `json:"cache_hit"`
	Frames     []segment.Frame       `json:"frames"`
	Events     []segment.NoteEvent   `json:"events"`
	NoteLines  []pitch.NoteFrequency `json:"note_lines,omitempty"`
	Envelope   []float64             `json:"envelope,omitempty"`

	// Filtered is the low-passed signal the estimator saw.
	Filtered []float64 `json:"-"`
}

// NoteEvents returns the onsets. Transports use it to publish events without
// depending on this package.
func (r *Report) NoteEvents() []segment.NoteEvent { return r.Events }

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// SaveJSON writes the report to path.
func (r *Report) SaveJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := r.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

// WriteSummary prints one line per note event.
func (r *Report) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "%s: %.2f s at %.0f Hz, %d frames, %d notes\n",
		r.Source, r.Duration, r.SampleRate, len(r.Frames), len(r.Events))
	for _, e := range r.Events {
		fmt.Fprintf(w, "  %7.2f s  %-4s %7.1f Hz  (frame %d)\n", e.Time, e.Note, e.Y, e.Frame)
	}
}
