// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"

	"notetrack/internal/errs"
	"notetrack/internal/log"
)

// LoadWAV decodes a PCM WAV file into a mono Clip. start and end are in
// seconds; a negative value leaves that bound open.
func LoadWAV(path string, start, end float64) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	channels := int(dec.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}
	sampleRate := float64(dec.SampleRate)

	mono, err := Downmix(buf.Data, channels, bitDepth)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	clip := &Clip{Source: path, Samples: mono, SampleRate: sampleRate, Channels: channels}
	if err := clip.crop(start, end); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Infof("Audio: loaded %s (%d ch, %d bit, %.0f Hz), %.2f s analysed",
		path, channels, bitDepth, sampleRate, clip.Seconds())
	return clip, nil
}

// Downmix converts interleaved integer PCM to mono floats by averaging the
// channels of each frame and scaling by the bit depth. A trailing partial
// frame is dropped.
func Downmix(data []int, channels, bitDepth int) ([]float64, error) {
	if channels < 1 {
		return nil, errs.Invalid("channel count must be >= 1, got %d", channels)
	}
	if bitDepth < 8 || bitDepth > 32 {
		return nil, errs.Invalid("unsupported bit depth %d", bitDepth)
	}

	scale := 1 / math.Pow(2, float64(bitDepth-1))
	// 8-bit WAV is unsigned.
	var bias float64
	if bitDepth == 8 {
		bias = 128
	}

	frames := len(data) / channels
	out := make([]float64, frames)
	inv := 1 / float64(channels)
	for i := range out {
		var sum float64
		for c := range channels {
			sum += float64(data[i*channels+c]) - bias
		}
		out[i] = sum * inv * scale
	}
	return out, nil
}

func (c *Clip) crop(start, end float64) error {
	n := len(c.Samples)
	from, to := 0, n
	if start >= 0 {
		from = int(math.Round(start * c.SampleRate))
	}
	if end >= 0 {
		to = min(n, int(math.Round(end*c.SampleRate)))
	}
	if from >= n {
		return errs.Invalid("start %.3fs is past the end of the clip (%.3fs)", start, c.Seconds())
	}
	if to <= from {
		return errs.Invalid("time range [%.3f, %.3f]s selects no samples", start, end)
	}
	if from == 0 && to == n {
		return nil
	}

	c.Samples = append([]float64(nil), c.Samples[from:to]...)
	c.Offset = float64(from) / c.SampleRate
	return nil
}
