// SPDX-License-Identifier: MIT
package pitch

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"notetrack/internal/errs"
)

func TestNoteFor(t *testing.T) {
	tests := []struct {
		freq float64
		a4   float64
		want string
	}{
		{440, 440, "A4"},
		{261.63, 440, "C4"},
		{523.25, 440, "C5"},
		{16.35, 440, "C0"},
		{27.5, 440, "A0"},
		{466.16, 440, "A#4"},
		{8, 440, "C-1"},
		{432, 432, "A4"},
		{440, 415, "A#4"},
		{4186.01, 440, "C8"},
	}
	for _, tt := range tests {
		got, err := NoteFor(tt.freq, tt.a4)
		if err != nil {
			t.Fatalf("NoteFor(%v, %v) error: %v", tt.freq, tt.a4, err)
		}
		if got.String() != tt.want {
			t.Errorf("NoteFor(%v, %v) = %s, want %s", tt.freq, tt.a4, got, tt.want)
		}
	}
}

func TestNoteFor_StructuralEquality(t *testing.T) {
	a, _ := NoteFor(440, 440)
	b, _ := NoteFor(441.5, 440)
	if a != b || a != (Note{Class: A, Octave: 4}) {
		t.Errorf("expected equal A4 notes, got %v and %v", a, b)
	}
}

func TestNoteFor_Monotonic(t *testing.T) {
	prev := math.MinInt
	for f := 20.0; f < 5000; f *= 1.003 {
		n, err := NoteFor(f, 440)
		if err != nil {
			t.Fatal(err)
		}
		if s := n.Semitone(); s < prev {
			t.Fatalf("semitone decreased at %.2f Hz: %d < %d", f, s, prev)
		} else {
			prev = s
		}
	}
}

func TestNoteFor_InvalidParameter(t *testing.T) {
	for _, tt := range []struct{ freq, a4 float64 }{
		{0, 440}, {-440, 440}, {math.NaN(), 440}, {math.Inf(1), 440}, {440, 0},
	} {
		if _, err := NoteFor(tt.freq, tt.a4); !errors.Is(err, errs.ErrInvalidParameter) {
			t.Errorf("NoteFor(%v, %v): expected ErrInvalidParameter, got %v", tt.freq, tt.a4, err)
		}
	}
}

func TestNoteFrequency_RoundTrip(t *testing.T) {
	for semitone := 0; semitone < 96; semitone++ {
		n := Note{Class: PitchClass(semitone % 12), Octave: semitone / 12}
		got, err := NoteFor(n.Frequency(440), 440)
		if err != nil {
			t.Fatal(err)
		}
		if got != n {
			t.Errorf("NoteFor(%s.Frequency()) = %s", n, got)
		}
	}
	if f := (Note{Class: A, Octave: 4}).Frequency(440); math.Abs(f-440) > 1e-9 {
		t.Errorf("A4 frequency = %v, want 440", f)
	}
}

func TestNoteTable(t *testing.T) {
	table, err := NoteTable(440, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 60 {
		t.Fatalf("len(table) = %d, want 60", len(table))
	}

	want := map[string]float64{
		"C0":  16.35,
		"C#0": 17.71,
		"A0":  28.62,
		"C4":  261.63,
		"A4":  457.84,
	}
	for _, row := range table {
		if w, ok := want[row.Note.String()]; ok && row.Frequency != w {
			t.Errorf("%s = %v, want %v", row.Note, row.Frequency, w)
		}
	}
	for i := 1; i < len(table); i++ {
		if table[i].Frequency <= table[i-1].Frequency {
			t.Errorf("table not increasing at %s", table[i].Note)
		}
	}

	if _, err := NoteTable(440, 0); !errors.Is(err, errs.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for zero octaves, got %v", err)
	}
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		in      string
		want    Note
		wantErr bool
	}{
		{"A4", Note{A, 4}, false},
		{"c#3", Note{CSharp, 3}, false},
		{" G-1 ", Note{G, -1}, false},
		{"B10", Note{B, 10}, false},
		{"H2", Note{}, true},
		{"A", Note{}, true},
		{"", Note{}, true},
	}
	for _, tt := range tests {
		got, err := ParseNote(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNote(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseNote(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNote_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		N Note `json:"n"`
	}{Note{FSharp, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"n":"F#2"}` {
		t.Errorf("Marshal = %s", data)
	}

	var back struct {
		N Note `json:"n"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.N != (Note{FSharp, 2}) {
		t.Errorf("Unmarshal = %v", back.N)
	}
}
