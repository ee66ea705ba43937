// SPDX-License-Identifier: MIT
//
// Package analysis runs the batch pipeline: low-pass, envelope gate, frame
// frequency estimation, note segmentation.
package analysis

import (
	"fmt"

	"notetrack/internal/cache"
	"notetrack/internal/config"
	"notetrack/internal/envelope"
	"notetrack/internal/errs"
	"notetrack/internal/filter"
	"notetrack/internal/log"
	"notetrack/internal/pitch"
	"notetrack/internal/segment"
	"notetrack/internal/transport"
)

// Pipeline is configured once and may then run any number of clips. It holds
// no per-run state.
type Pipeline struct {
	config     *config.Config
	estimator  Estimator
	cache      cache.Cache
	transports []transport.Transport
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithCache stores and reuses estimated frames.
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithTransport publishes every finished Report to t.
func WithTransport(t transport.Transport) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.transports = append(p.transports, t)
		}
	}
}

// WithEstimator overrides the estimator chosen from the configuration.
func WithEstimator(e Estimator) Option {
	return func(p *Pipeline) { p.estimator = e }
}

// NewPipeline validates cfg and selects the estimator.
func NewPipeline(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{config: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.estimator == nil {
		e, err := NewEstimator(cfg)
		if err != nil {
			return nil, err
		}
		p.estimator = e
	}
	log.Infof("Analysis: %s, cutoff %.1f Hz (order %d), min confidence %.2f, A4 %.1f Hz",
		p.estimator.Describe(), cfg.Cutoff(), cfg.Filter.Order, cfg.Segmenter.MinConfidence, cfg.Segmenter.A4)
	return p, nil
}

// Estimator returns the selected estimator.
func (p *Pipeline) Estimator() Estimator { return p.estimator }

// Run analyses a complete mono buffer. samples is not modified.
func (p *Pipeline) Run(source string, samples []float64, sampleRate float64) (*Report, error) {
	cfg := p.config
	if len(samples) == 0 {
		return nil, errs.Invalid("%s: no samples to analyse", source)
	}
	if sampleRate <= 0 {
		return nil, errs.Invalid("%s: sample rate must be positive, got %v", source, sampleRate)
	}

	// Parameter checks that depend on the clip, before any filtering.
	coeffs, err := filter.ButterworthLowpass(cfg.Cutoff(), sampleRate, cfg.Filter.Order)
	if err != nil {
		return nil, err
	}
	if cfg.Analysis.EnvelopeWindow > len(samples) {
		return nil, errs.Invalid("envelope window %d exceeds clip length %d", cfg.Analysis.EnvelopeWindow, len(samples))
	}

	input := samples
	if cfg.Filter.ClipLimit > 0 {
		if input, err = envelope.ZeroClipped(samples, cfg.Filter.ClipLimit); err != nil {
			return nil, err
		}
	}
	filtered, err := filter.Apply(coeffs, input)
	if err != nil {
		return nil, err
	}

	env, err := envelope.Compute(filtered, cfg.Analysis.EnvelopeWindow)
	if err != nil {
		return nil, err
	}
	gate, err := envelope.NewGate(env)
	if err != nil {
		return nil, err
	}
	log.Infof("Analysis: mean envelope %.5f", gate.Threshold())

	frames, hit, err := p.frames(Input{Samples: filtered, SampleRate: sampleRate, Gate: gate})
	if err != nil {
		return nil, err
	}

	events, err := p.segment(frames)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Source:     source,
		SampleRate: sampleRate,
		Duration:   float64(len(samples)) / sampleRate,
		Estimator:  p.estimator.Describe(),
		Cutoff:     cfg.Cutoff(),
		Threshold:  gate.Threshold(),
		A4:         cfg.Segmenter.A4,
		CacheHit:   hit,
		Frames:     frames,
		Events:     events,
		Filtered:   filtered,
	}
	if cfg.Segmenter.NoteLines {
		if report.NoteLines, err = segment.NoteLines(events, cfg.Segmenter.A4, cfg.Segmenter.Octaves); err != nil {
			return nil, err
		}
	}
	if cfg.Output.IncludeEnvelope {
		report.Envelope = env
	}

	for _, t := range p.transports {
		if err := t.Send(report); err != nil {
			log.Errorf("Analysis: publishing report: %v", err)
		}
	}
	return report, nil
}

// frames consults the cache before running the estimator.
func (p *Pipeline) frames(in Input) ([]segment.Frame, bool, error) {
	var key string
	if p.cache != nil {
		// The gate feeds confidence, so its window is part of the key.
		desc := fmt.Sprintf("%s env=%d", p.estimator.Describe(), p.config.Analysis.EnvelopeWindow)
		key = cache.Fingerprint(in.Samples, in.SampleRate, desc)
		frames, ok, err := p.cache.Lookup(key)
		if err != nil {
			log.Warnf("Analysis: cache lookup failed, estimating: %v", err)
		} else if ok {
			log.Infof("Analysis: %d frames loaded from cache", len(frames))
			return frames, true, nil
		}
	}

	frames, err := p.estimator.Estimate(in)
	if err != nil {
		return nil, false, fmt.Errorf("estimating frames: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Store(key, frames); err != nil {
			log.Warnf("Analysis: cache store failed: %v", err)
		} else {
			log.Debugf("Analysis: %d frames cached", len(frames))
		}
	}
	return frames, false, nil
}

func (p *Pipeline) segment(frames []segment.Frame) ([]segment.NoteEvent, error) {
	s, err := segment.New(p.config.Segmenter.MinConfidence, p.config.Segmenter.A4)
	if err != nil {
		return nil, err
	}

	var events []segment.NoteEvent
	for _, f := range frames {
		ev, ok, err := s.Push(f)
		if err != nil {
			return nil, err
		}
		if ok {
			events = append(events, ev)
		}
		if log.GetLevel() == log.LevelDebug {
			logFrame(f, p.config.Segmenter.MinConfidence, p.config.Segmenter.A4)
		}
	}
	log.Infof("Analysis: %d frames, %d note events", len(frames), len(events))
	return events, nil
}

func logFrame(f segment.Frame, minConfidence, a4 float64) {
	if f.Confidence <= minConfidence {
		log.Debugf("t = %.2f sec silent", f.Time)
		return
	}
	n, err := pitch.NoteFor(f.Frequency, a4)
	if err != nil {
		return
	}
	log.Debugf("t = %.2f sec ; note = %s F = %.1f hz", f.Time, n, f.Frequency)
}
