// SPDX-License-Identifier: MIT
//
// Package segment turns a frame-wise pitch track into a sparse list of note
// onsets.
package segment

import (
	"fmt"
	"math"

	"notetrack/internal/errs"
	"notetrack/internal/pitch"
)

// Frame is one pitch estimate. Confidence is in [0, 1].
type Frame struct {
	Time       float64 `json:"time"`
	Frequency  float64 `json:"frequency"`
	Confidence float64 `json:"confidence"`
}

// NoteEvent marks the frame where the detected pitch changes to a new note.
type NoteEvent struct {
	Frame int        `json:"frame"`
	Time  float64    `json:"time"`
	Y     float64    `json:"y"` // display placement, the frame frequency in Hz
	Note  pitch.Note `json:"note"`
}

func (e NoteEvent) String() string {
	return fmt.Sprintf("#%d t=%.2fs %s (%.1f Hz)", e.Frame, e.Time, e.Note, e.Y)
}

// Segmenter is the onset state machine. The zero value is not usable; call New.
type Segmenter struct {
	minConfidence float64
	a4            float64

	previous *pitch.Note
	index    int
}

// New returns a Segmenter that treats frames with confidence at or below
// minConfidence as unvoiced and maps pitches against a4.
func New(minConfidence, a4 float64) (*Segmenter, error) {
	if math.IsNaN(minConfidence) {
		return nil, errs.Invalid("minimum confidence is NaN")
	}
	if !(a4 > 0) || math.IsInf(a4, 0) {
		return nil, errs.Invalid("A4 reference must be positive, got %v", a4)
	}
	return &Segmenter{minConfidence: minConfidence, a4: a4}, nil
}

// Push consumes the next frame. It reports an event when a voiced frame maps
// to a note different from the previous voiced frame, or when it is the first
// voiced frame after an unvoiced one. The frame counter advances on every
// call, including failed ones.
func (s *Segmenter) Push(f Frame) (NoteEvent, bool, error) {
	idx := s.index
	s.index++

	if !(f.Confidence > s.minConfidence) {
		s.previous = nil
		return NoteEvent{}, false, nil
	}

	note, err := pitch.NoteFor(f.Frequency, s.a4)
	if err != nil {
		return NoteEvent{}, false, fmt.Errorf("frame %d at %.3fs: %w", idx, f.Time, err)
	}
	if s.previous != nil && *s.previous == note {
		return NoteEvent{}, false, nil
	}

	s.previous = &note
	return NoteEvent{Frame: idx, Time: f.Time, Y: f.Frequency, Note: note}, true, nil
}

// Index returns the number of frames pushed so far.
func (s *Segmenter) Index() int { return s.index }

// Reset clears the previous note and the frame counter.
func (s *Segmenter) Reset() {
	s.previous = nil
	s.index = 0
}

// Segment runs a fresh Segmenter over frames and returns the onsets in
// frame order.
func Segment(frames []Frame, minConfidence, a4 float64) ([]NoteEvent, error) {
	s, err := New(minConfidence, a4)
	if err != nil {
		return nil, err
	}
	var events []NoteEvent
	for _, f := range frames {
		ev, ok, err := s.Push(f)
		if err != nil {
			return nil, err
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

// NoteLines returns the rows of the note table that lie between the lowest
// and the highest detected note, inclusive. It returns nil when there are
// no events.
func NoteLines(events []NoteEvent, a4 float64, octaves int) ([]pitch.NoteFrequency, error) {
	if len(events) == 0 {
		return nil, nil
	}
	table, err := pitch.NoteTable(a4, octaves)
	if err != nil {
		return nil, err
	}

	lo, hi := events[0].Note.Semitone(), events[0].Note.Semitone()
	for _, e := range events[1:] {
		lo = min(lo, e.Note.Semitone())
		hi = max(hi, e.Note.Semitone())
	}

	var lines []pitch.NoteFrequency
	for _, row := range table {
		if s := row.Note.Semitone(); s >= lo && s <= hi {
			lines = append(lines, row)
		}
	}
	return lines, nil
}
