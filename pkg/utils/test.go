// SPDX-License-Identifier: MIT
//
// Package utils holds test fixtures shared across packages: deterministic
// signal generators and a transport double.
package utils

import (
	"math"
	"sync"
)

// MockTransport records every payload it is asked to send.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Closed bool
}

// Send stores the data for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Last returns the most recent payload, or nil.
func (m *MockTransport) Last() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return m.Sent[len(m.Sent)-1]
}

// Tone is one segment of a generated test signal. A zero Frequency is silence.
type Tone struct {
	Frequency float64 // Hz
	Duration  float64 // seconds
	Amplitude float64 // peak, 0..1
}

// GenerateSineWave returns size samples of a sine at frequency with the given peak amplitude.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = amplitude * math.Sin(2*math.Pi*frequency*t)
	}
	return buffer
}

// GenerateComplexWave returns a 440 Hz fundamental with its 2nd and 3rd harmonics.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
	}
	return buffer
}

// GenerateToneSequence concatenates tones into one mono buffer.
// Each tone starts at phase zero.
func GenerateToneSequence(sampleRate float64, tones ...Tone) []float64 {
	var out []float64
	for _, tone := range tones {
		n := int(math.Round(tone.Duration * sampleRate))
		if tone.Frequency <= 0 {
			out = append(out, make([]float64, n)...)
			continue
		}
		out = append(out, GenerateSineWave(n, sampleRate, tone.Frequency, tone.Amplitude)...)
	}
	return out
}

// FindPeakBin returns the index of the largest value in magnitudes[startBin:endBin+1].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
