// SPDX-License-Identifier: MIT
//
// Package cache stores estimated pitch frames keyed by an input fingerprint,
// so re-running an analysis on the same filtered clip skips estimation.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"slices"
	"sync"

	"notetrack/internal/segment"
)

// Cache is a fingerprint to frames store. Implementations must return
// copies so callers may modify what they get back.
type Cache interface {
	Lookup(key string) ([]segment.Frame, bool, error)
	Store(key string, frames []segment.Frame) error
	Close() error
}

// Fingerprint derives a cache key from the samples fed to the estimator, their
// sample rate and a description of the estimator configuration.
func Fingerprint(samples []float64, sampleRate float64, estimator string) string {
	h := sha256.New()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(sampleRate))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(samples)))
	h.Write(buf[:])
	for _, s := range samples {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s))
		h.Write(buf[:])
	}
	h.Write([]byte(estimator))

	return hex.EncodeToString(h.Sum(nil))
}

// Memory is an in-process Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]segment.Frame
}

var _ Cache = (*Memory)(nil)

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]segment.Frame)}
}

func (m *Memory) Lookup(key string) ([]segment.Frame, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	frames, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(frames), true, nil
}

func (m *Memory) Store(key string, frames []segment.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = slices.Clone(frames)
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
