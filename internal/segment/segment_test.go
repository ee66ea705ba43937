// SPDX-License-Identifier: MIT
package segment

import (
	"errors"
	"testing"

	"notetrack/internal/errs"
	"notetrack/internal/pitch"
)

func notes(events []NoteEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Note.String()
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSegment_SustainedPitchEmitsOnce(t *testing.T) {
	frames := []Frame{
		{Time: 0.00, Frequency: 440, Confidence: 0.9},
		{Time: 0.01, Frequency: 440, Confidence: 0.9},
		{Time: 0.02, Frequency: 442, Confidence: 0.8},
	}
	events, err := Segment(frames, 0.5, 440)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Frame != 0 || events[0].Note.String() != "A4" {
		t.Fatalf("events = %v, want one A4 at frame 0", events)
	}
}

func TestSegment_GapForcesReonset(t *testing.T) {
	frames := []Frame{
		{Time: 0.00, Frequency: 440, Confidence: 0.9},
		{Time: 0.01, Frequency: 0, Confidence: 0.1},
		{Time: 0.02, Frequency: 440, Confidence: 0.9},
	}
	events, err := Segment(frames, 0.5, 440)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(events), events)
	}
	if events[0].Frame != 0 || events[1].Frame != 2 {
		t.Errorf("frames = %d, %d; want 0, 2", events[0].Frame, events[1].Frame)
	}
}

func TestSegment_ConfidenceAtThresholdIsUnvoiced(t *testing.T) {
	events, err := Segment([]Frame{{Frequency: 440, Confidence: 0.65}}, 0.65, 440)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("events = %v, want none", events)
	}
}

func TestSegment_TwoTonesWithSilence(t *testing.T) {
	// 10 ms frames: 1 s of A4, 0.2 s silence, 0.8 s of C5.
	var frames []Frame
	for i := range 200 {
		f := Frame{Time: float64(i) * 0.01}
		switch {
		case i < 100:
			f.Frequency, f.Confidence = 440, 1
		case i < 120:
			f.Frequency, f.Confidence = 0, 0
		default:
			f.Frequency, f.Confidence = 523.25, 1
		}
		frames = append(frames, f)
	}

	events, err := Segment(frames, 0.5, 440)
	if err != nil {
		t.Fatal(err)
	}
	if got := notes(events); !equal(got, []string{"A4", "C5"}) {
		t.Fatalf("notes = %v, want [A4 C5]", got)
	}
	if events[0].Frame != 0 || events[1].Frame != 120 {
		t.Errorf("frames = %d, %d; want 0, 120", events[0].Frame, events[1].Frame)
	}
	if events[1].Y != 523.25 {
		t.Errorf("Y = %v, want the frame frequency", events[1].Y)
	}
}

func TestSegment_OrderedAndNoConsecutiveDuplicates(t *testing.T) {
	freqs := []float64{220, 221, 247, 247, 262, 220, 220, 330, 330, 329}
	var frames []Frame
	for i, f := range freqs {
		frames = append(frames, Frame{Time: float64(i) / 100, Frequency: f, Confidence: 1})
	}
	events, err := Segment(frames, 0.5, 440)
	if err != nil {
		t.Fatal(err)
	}
	if got := notes(events); !equal(got, []string{"A3", "B3", "C4", "A3", "E4"}) {
		t.Errorf("notes = %v", got)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Frame <= events[i-1].Frame {
			t.Errorf("frame index not increasing at %d", i)
		}
		if events[i].Note == events[i-1].Note {
			t.Errorf("consecutive duplicate %s at %d", events[i].Note, i)
		}
	}
}

func TestSegmenter_VoicedZeroFrequencyFails(t *testing.T) {
	s, err := New(0.5, 440)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = s.Push(Frame{Frequency: 0, Confidence: 0.9})
	if !errors.Is(err, errs.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if s.Index() != 1 {
		t.Errorf("Index() = %d, want 1", s.Index())
	}
}

func TestSegmenter_Reset(t *testing.T) {
	s, err := New(0.5, 440)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Push(Frame{Frequency: 440, Confidence: 1}); !ok {
		t.Fatal("first voiced frame should emit")
	}
	s.Reset()
	ev, ok, _ := s.Push(Frame{Frequency: 440, Confidence: 1})
	if !ok || ev.Frame != 0 {
		t.Errorf("after Reset: ok=%v frame=%d, want emission at frame 0", ok, ev.Frame)
	}
}

func TestNew_InvalidA4(t *testing.T) {
	if _, err := New(0.5, 0); !errors.Is(err, errs.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestNoteLines(t *testing.T) {
	events := []NoteEvent{
		{Note: pitch.Note{Class: pitch.A, Octave: 3}},
		{Note: pitch.Note{Class: pitch.C, Octave: 4}},
	}
	lines, err := NoteLines(events, 440, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"A3", "A#3", "B3", "C4"}
	got := make([]string, len(lines))
	for i, l := range lines {
		got[i] = l.Note.String()
	}
	if !equal(got, want) {
		t.Errorf("lines = %v, want %v", got, want)
	}

	if lines, err := NoteLines(nil, 440, 8); err != nil || lines != nil {
		t.Errorf("NoteLines(nil) = %v, %v", lines, err)
	}
}
