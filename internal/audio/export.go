// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"notetrack/internal/errs"
)

const exportBitDepth = 16

// ExportWAV writes mono samples as 16-bit PCM. Samples outside [-1, 1] are
// clipped.
func ExportWAV(path string, samples []float64, sampleRate float64) error {
	if sampleRate <= 0 {
		return errs.Invalid("sample rate must be positive, got %v", sampleRate)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	enc := wav.NewEncoder(file, int(sampleRate), exportBitDepth, 1, 1)

	const full = 1<<(exportBitDepth-1) - 1
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: int(sampleRate)},
		Data:           make([]int, len(samples)),
		SourceBitDepth: exportBitDepth,
	}
	for i, s := range samples {
		buf.Data[i] = int(math.Round(math.Max(-1, math.Min(1, s)) * full))
	}

	if err := enc.Write(buf); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return file.Close()
}
