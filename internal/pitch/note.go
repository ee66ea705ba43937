// SPDX-License-Identifier: MIT
//
// Package pitch maps frequencies onto 12-tone equal-tempered note names
// anchored to an adjustable A4 reference.
package pitch

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"notetrack/internal/errs"
)

// DefaultA4 is the concert pitch reference in Hz.
const DefaultA4 = 440.0

// PitchClass is a note name within one octave, C = 0 through B = 11.
type PitchClass int

const (
	C PitchClass = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

var classNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (p PitchClass) String() string {
	if p < C || p > B {
		return "PitchClass(" + strconv.Itoa(int(p)) + ")"
	}
	return classNames[p]
}

// Note is a pitch class in a given octave. Notes compare with ==.
type Note struct {
	Class  PitchClass
	Octave int
}

// String renders scientific pitch notation, e.g. "A4" or "C#-1".
func (n Note) String() string {
	return n.Class.String() + strconv.Itoa(n.Octave)
}

// Semitone returns the distance from C0 in semitones.
func (n Note) Semitone() int {
	return n.Octave*12 + int(n.Class)
}

// Frequency returns the equal-tempered centre frequency of n for the given A4.
func (n Note) Frequency(a4 float64) float64 {
	return C0(a4) * math.Pow(2, float64(n.Semitone())/12)
}

// MarshalText encodes the note as its name so reports read "A4" rather
// than a struct.
func (n Note) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText parses a note name produced by MarshalText.
func (n *Note) UnmarshalText(text []byte) error {
	parsed, err := ParseNote(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// ParseNote parses names such as "A4", "c#3" or "G-1". Flats are not accepted.
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Note{}, errs.Invalid("empty note name")
	}
	upper := strings.ToUpper(s)
	nameLen := 1
	if len(upper) > 1 && upper[1] == '#' {
		nameLen = 2
	}
	class := PitchClass(-1)
	for i, name := range classNames {
		if name == upper[:nameLen] {
			class = PitchClass(i)
			break
		}
	}
	if class < 0 {
		return Note{}, errs.Invalid("unknown note name %q", s)
	}
	octave, err := strconv.Atoi(upper[nameLen:])
	if err != nil {
		return Note{}, errs.Invalid("bad octave in note %q", s)
	}
	return Note{Class: class, Octave: octave}, nil
}

// C0 returns the frequency of C in octave 0 for the given A4 reference.
func C0(a4 float64) float64 {
	return a4 * math.Pow(2, -4.75)
}

// NoteFor returns the equal-tempered note nearest to freq.
//
// The semitone distance from C0 is rounded half to even, so a frequency
// exactly between two notes resolves to the note with the even semitone.
func NoteFor(freq, a4 float64) (Note, error) {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return Note{}, errs.Invalid("frequency must be positive, got %v", freq)
	}
	if !(a4 > 0) || math.IsInf(a4, 0) {
		return Note{}, errs.Invalid("A4 reference must be positive, got %v", a4)
	}

	h := int(math.RoundToEven(12 * math.Log2(freq/C0(a4))))
	octave := floorDiv(h, 12)
	return Note{Class: PitchClass(h - octave*12), Octave: octave}, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// NoteFrequency is one row of a note table.
type NoteFrequency struct {
	Note      Note    `json:"note"`
	Frequency float64 `json:"frequency"`
}

// NoteTable lists all twelve notes of octaves 0 through octaves-1.
//
// Frequencies inside an octave are spaced linearly between successive C
// frequencies rather than geometrically, and rounded to two decimals, so only
// the C entries are exact equal-tempered values. Display code draws note
// guides from this table.
func NoteTable(a4 float64, octaves int) ([]NoteFrequency, error) {
	if !(a4 > 0) || math.IsInf(a4, 0) {
		return nil, errs.Invalid("A4 reference must be positive, got %v", a4)
	}
	if octaves < 1 {
		return nil, errs.Invalid("octave count must be >= 1, got %d", octaves)
	}

	c0 := C0(a4)
	table := make([]NoteFrequency, 0, octaves*12)
	for octave := range octaves {
		cn := math.Pow(2, float64(octave)) * c0
		cn1 := 2 * cn
		for idx := range 12 {
			f := (cn1-cn)/12*float64(idx) + cn
			table = append(table, NoteFrequency{
				Note:      Note{Class: PitchClass(idx), Octave: octave},
				Frequency: math.Round(f*100) / 100,
			})
		}
	}
	return table, nil
}

// Describe is a short human form used in log lines, e.g. "A4 (440.0 Hz)".
func Describe(n Note, a4 float64) string {
	return fmt.Sprintf("%s (%.1f Hz)", n, n.Frequency(a4))
}
