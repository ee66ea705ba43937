// SPDX-License-Identifier: MIT
package analysis

import (
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"notetrack/internal/log"
	"notetrack/internal/segment"
)

// PredictionFile reads frames produced by an external pitch model, stored
// as CSV with a time,frequency,confidence header (the layout CREPE writes).
// Column order is taken from the header and extra columns are ignored.
// Confidence comes from the file; the envelope gate is not consulted.
type PredictionFile struct {
	Path string
}

// Describe includes a digest of the file so a rewritten file never replays
// cached frames. An unreadable file is described by its path alone; Estimate
// reports the error.
func (p *PredictionFile) Describe() string {
	sum, err := digestFile(p.Path)
	if err != nil {
		return "frames file=" + p.Path
	}
	return fmt.Sprintf("frames file=%s sha256=%x", p.Path, sum[:8])
}

func digestFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

func (p *PredictionFile) Estimate(Input) ([]segment.Frame, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frames file: %w", err)
	}
	defer f.Close()

	frames, err := ReadFrames(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Path, err)
	}
	log.Infof("Analysis: read %d frames from %s", len(frames), p.Path)
	return frames, nil
}

// ReadFrames parses CSV frames. Rows must be in time order.
func ReadFrames(r io.Reader) ([]segment.Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	col := map[string]int{"time": -1, "frequency": -1, "confidence": -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := col[name]; ok {
			col[name] = i
		}
	}
	for name, i := range col {
		if i < 0 {
			return nil, fmt.Errorf("missing %q column in header %v", name, header)
		}
	}

	var frames []segment.Frame
	prev := -1.0
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var vals [3]float64
		for j, name := range []string{"time", "frequency", "confidence"} {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col[name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s %q", line, name, rec[col[name]])
			}
			vals[j] = v
		}
		if vals[0] < prev {
			return nil, fmt.Errorf("line %d: time %v goes backwards", line, vals[0])
		}
		prev = vals[0]
		frames = append(frames, segment.Frame{Time: vals[0], Frequency: vals[1], Confidence: vals[2]})
	}
	return frames, nil
}

// WriteFrames writes frames in the layout ReadFrames accepts.
func WriteFrames(w io.Writer, frames []segment.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "frequency", "confidence"}); err != nil {
		return err
	}
	for _, f := range frames {
		rec := []string{
			strconv.FormatFloat(f.Time, 'f', 3, 64),
			strconv.FormatFloat(f.Frequency, 'f', 3, 64),
			strconv.FormatFloat(f.Confidence, 'f', 6, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
