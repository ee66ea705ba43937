// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"notetrack/internal/config"
	"notetrack/internal/errs"
	"notetrack/pkg/utils"
)

const (
	testSampleRate = 16000
	testFrameSize  = 512
)

func TestExportLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := utils.GenerateSineWave(testSampleRate, testSampleRate, 440, 0.5)

	if err := ExportWAV(path, in, testSampleRate); err != nil {
		t.Fatalf("ExportWAV() error: %v", err)
	}
	clip, err := LoadWAV(path, -1, -1)
	if err != nil {
		t.Fatalf("LoadWAV() error: %v", err)
	}

	if clip.SampleRate != testSampleRate || clip.Channels != 1 {
		t.Errorf("format = %.0f Hz, %d ch", clip.SampleRate, clip.Channels)
	}
	if len(clip.Samples) != len(in) {
		t.Fatalf("got %d samples, want %d", len(clip.Samples), len(in))
	}
	for i := range in {
		if math.Abs(clip.Samples[i]-in[i]) > 2.0/32768 {
			t.Fatalf("sample %d = %v, want %v", i, clip.Samples[i], in[i])
		}
	}
	if clip.Duration() != time.Second {
		t.Errorf("Duration() = %v, want 1s", clip.Duration())
	}
}

func TestExportClipsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hot.wav")
	if err := ExportWAV(path, []float64{2, -2, 0}, 8000); err != nil {
		t.Fatal(err)
	}
	clip, err := LoadWAV(path, -1, -1)
	if err != nil {
		t.Fatal(err)
	}
	if clip.Samples[0] < 0.999 || clip.Samples[1] > -0.999 {
		t.Errorf("samples not clipped to full scale: %v", clip.Samples)
	}
}

func TestLoadWAV_Crop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.wav")
	in := utils.GenerateToneSequence(testSampleRate,
		utils.Tone{Frequency: 440, Duration: 1, Amplitude: 0.5},
		utils.Tone{Frequency: 880, Duration: 1, Amplitude: 0.5},
	)
	if err := ExportWAV(path, in, testSampleRate); err != nil {
		t.Fatal(err)
	}

	clip, err := LoadWAV(path, 0.5, 1.25)
	if err != nil {
		t.Fatal(err)
	}
	if len(clip.Samples) != 12000 {
		t.Errorf("cropped length = %d, want 12000", len(clip.Samples))
	}
	if clip.Offset != 0.5 {
		t.Errorf("Offset = %v, want 0.5", clip.Offset)
	}

	tail, err := LoadWAV(path, 1.5, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail.Samples) != 8000 {
		t.Errorf("open-ended crop length = %d, want 8000", len(tail.Samples))
	}

	for _, r := range [][2]float64{{3, -1}, {1, 0.5}} {
		if _, err := LoadWAV(path, r[0], r[1]); !errors.Is(err, errs.ErrInvalidParameter) {
			t.Errorf("range %v: expected ErrInvalidParameter, got %v", r, err)
		}
	}
}

func TestLoadWAV_StereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           []int{16384, 0, -16384, -16384, 8192, 24576},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	clip, err := LoadWAV(path, -1, -1)
	if err != nil {
		t.Fatal(err)
	}
	if clip.Channels != 2 {
		t.Errorf("Channels = %d, want 2", clip.Channels)
	}
	want := []float64{0.25, -0.5, 0.5}
	if len(clip.Samples) != len(want) {
		t.Fatalf("got %d frames, want %d", len(clip.Samples), len(want))
	}
	for i := range want {
		if clip.Samples[i] != want[i] {
			t.Errorf("frame %d = %v, want %v", i, clip.Samples[i], want[i])
		}
	}
}

func TestLoadWAV_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadWAV(filepath.Join(dir, "missing.wav"), -1, -1); err == nil {
		t.Error("expected error for missing file")
	}
	junk := filepath.Join(dir, "junk.wav")
	if err := os.WriteFile(junk, []byte("not a riff file at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWAV(junk, -1, -1); err == nil {
		t.Error("expected error for invalid WAV")
	}
}

func TestDownmix(t *testing.T) {
	got, err := Downmix([]int{128, 255, 0, 1}, 1, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0 || got[2] != -1 {
		t.Errorf("8-bit scaling = %v", got)
	}

	// A trailing partial frame is dropped.
	got, err = Downmix([]int{2, 4, 6}, 2, 16)
	if err != nil || len(got) != 1 {
		t.Errorf("Downmix partial frame = %v, %v", got, err)
	}

	if _, err := Downmix(nil, 0, 16); !errors.Is(err, errs.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for zero channels, got %v", err)
	}
	if _, err := Downmix(nil, 1, 4); !errors.Is(err, errs.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for 4-bit audio, got %v", err)
	}
}

func newTestRecorder(frames int) *Recorder {
	r := &Recorder{
		config: &config.CaptureConfig{
			SampleRate:      testSampleRate,
			Channels:        2,
			FramesPerBuffer: testFrameSize,
		},
	}
	r.reset(frames)
	return r
}

func TestRecorder_ProcessInputStream(t *testing.T) {
	r := newTestRecorder(testFrameSize + testFrameSize/2)

	in := make([]int32, testFrameSize*2)
	for i := 0; i < len(in); i += 2 {
		in[i] = math.MaxInt32 / 2
		in[i+1] = 0
	}

	r.processInputStream(in)
	select {
	case <-r.done:
		t.Fatal("done signalled before the buffer was full")
	default:
	}

	r.processInputStream(in)
	select {
	case <-r.done:
	default:
		t.Fatal("done not signalled after the buffer filled")
	}

	// Extra callbacks after completion are ignored.
	r.processInputStream(in)

	if got := int(r.filled.Load()); got != len(r.samples) {
		t.Fatalf("filled = %d, want %d", got, len(r.samples))
	}
	for i, s := range r.samples {
		if math.Abs(s-0.25) > 1e-6 {
			t.Fatalf("sample %d = %v, want 0.25", i, s)
		}
	}
}

func TestRecorder_ProcessInputStreamZeroAllocs(t *testing.T) {
	r := newTestRecorder(1 << 20)
	in := make([]int32, testFrameSize*2)

	allocs := testing.AllocsPerRun(100, func() {
		r.processInputStream(in)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in capture callback, got %.1f", allocs)
	}
}
