// SPDX-License-Identifier: MIT
//
// Package udp streams note events to a visualiser as compact binary packets.
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"notetrack/internal/log"
	"notetrack/internal/pitch"
	"notetrack/internal/segment"
	"notetrack/internal/transport"
)

/*
UDP Packet Structure (BigEndian)

+------------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description              |
|-------------------|----------------|--------------|--------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing |
| Timestamp         | int64          | 8            | Nanoseconds since epoch  |
| Total Events      | uint32         | 4            | Events in the whole set  |
| Offset            | uint32         | 4            | Index of the first event |
| Event Count       | uint16         | 2            | Events in this packet (N)|
| Events            | []event        | N * 14       | See below                |
+------------------------------------------------------------------------------+

Event:

|<-- 4 Bytes -->|<-- 4 Bytes -->|<-- 4 Bytes -->|<- 1 Byte ->|<- 1 Byte ->|
+---------------+---------------+---------------+------------+------------+
|     Frame     |     Time      |   Frequency   |   Class    |   Octave   |
|    (uint32)   |   (float32)   |   (float32)   |  (uint8)   |   (int8)   |
+---------------+---------------+---------------+------------+------------+

An event set larger than MaxEventsPerPacket is split over consecutive
packets sharing Total.
*/

const (
	headerSize = 4 + 8 + 4 + 4 + 2
	eventSize  = 4 + 4 + 4 + 1 + 1

	// MaxEventsPerPacket keeps a packet inside a 1400 byte payload.
	MaxEventsPerPacket = (1400 - headerSize) / eventSize
)

// Packet is one decoded datagram.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Total     uint32
	Offset    uint32
	Events    []segment.NoteEvent
}

type wireEvent struct {
	Frame     uint32
	Time      float32
	Frequency float32
	Class     uint8
	Octave    int8
}

type wireHeader struct {
	Sequence  uint32
	Timestamp int64
	Total     uint32
	Offset    uint32
	Count     uint16
}

// UDPPublisher sends note events to a UDP target. Every Send publishes at
// once; with a positive interval the latest set is also re-sent on each
// tick so a visualiser started late catches up.
type UDPPublisher struct {
	sender   *UDPSender
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex // guards everything below and serialises publishing

	latest       []segment.NoteEvent
	sequenceNum  uint32
	packetBuffer *bytes.Buffer
}

// NewUDPPublisher creates a publisher on sender. An interval <= 0 disables
// the periodic re-send.
func NewUDPPublisher(interval time.Duration, sender *UDPSender) (*UDPPublisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: UDP sender cannot be nil")
	}
	log.Infof("UDPPublisher: initialising (resend interval: %s)", interval)
	return &UDPPublisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Send publishes note events. data may be a segment.NoteEvent, a slice of
// them, or anything with a NoteEvents method such as an analysis report.
func (p *UDPPublisher) Send(data any) error {
	var events []segment.NoteEvent
	switch v := data.(type) {
	case segment.NoteEvent:
		events = []segment.NoteEvent{v}
	case []segment.NoteEvent:
		events = v
	case interface{ NoteEvents() []segment.NoteEvent }:
		events = v.NoteEvents()
	default:
		return fmt.Errorf("UDPPublisher: cannot publish %T", data)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = append(p.latest[:0], events...)
	return p.publishLocked()
}

// Start begins the periodic re-send. It is a no-op without an interval or
// when already running.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.interval <= 0 || p.ticker != nil {
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	ticker, done := p.ticker, p.doneChan

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				p.mu.Lock()
				if err := p.publishLocked(); err != nil {
					log.Warnf("UDPPublisher: %v", err)
				}
				p.mu.Unlock()
			case <-done:
				return
			}
		}
	}()
}

// Stop ends the periodic re-send and waits for it to finish. It is safe to
// call more than once.
func (p *UDPPublisher) Stop() {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return
	}
	close(p.doneChan)
	p.ticker.Stop()
	p.ticker = nil
	p.mu.Unlock()

	p.wg.Wait()
}

// Close stops the publisher and closes its sender.
func (p *UDPPublisher) Close() error {
	p.Stop()
	return p.sender.Close()
}

// publishLocked sends p.latest, split into as many packets as needed. An
// empty set still sends one packet so receivers can clear their display.
func (p *UDPPublisher) publishLocked() error {
	total := len(p.latest)
	for offset := 0; offset == 0 || offset < total; offset += MaxEventsPerPacket {
		end := min(offset+MaxEventsPerPacket, total)
		p.sequenceNum++
		if err := p.encode(p.latest[offset:end], total, offset); err != nil {
			return fmt.Errorf("packing packet %d: %w", p.sequenceNum, err)
		}
		if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
			return err
		}
		log.Debugf("UDPPublisher: sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	}
	return nil
}

func (p *UDPPublisher) encode(events []segment.NoteEvent, total, offset int) error {
	p.packetBuffer.Reset()
	h := wireHeader{
		Sequence:  p.sequenceNum,
		Timestamp: time.Now().UnixNano(),
		Total:     uint32(total),
		Offset:    uint32(offset),
		Count:     uint16(len(events)),
	}
	if err := binary.Write(p.packetBuffer, binary.BigEndian, h); err != nil {
		return err
	}
	for _, e := range events {
		w := wireEvent{
			Frame:     uint32(e.Frame),
			Time:      float32(e.Time),
			Frequency: float32(e.Y),
			Class:     uint8(e.Note.Class),
			Octave:    int8(e.Note.Octave),
		}
		if err := binary.Write(p.packetBuffer, binary.BigEndian, w); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses one datagram produced by UDPPublisher.
func Decode(b []byte) (Packet, error) {
	r := bytes.NewReader(b)
	var h wireHeader
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return Packet{}, fmt.Errorf("short header: %w", err)
	}
	if r.Len() != int(h.Count)*eventSize {
		return Packet{}, fmt.Errorf("packet %d: %d payload bytes for %d events", h.Sequence, r.Len(), h.Count)
	}

	pkt := Packet{
		Sequence:  h.Sequence,
		Timestamp: h.Timestamp,
		Total:     h.Total,
		Offset:    h.Offset,
		Events:    make([]segment.NoteEvent, h.Count),
	}
	for i := range pkt.Events {
		var w wireEvent
		if err := binary.Read(r, binary.BigEndian, &w); err != nil {
			return Packet{}, err
		}
		pkt.Events[i] = segment.NoteEvent{
			Frame: int(w.Frame),
			Time:  float64(w.Time),
			Y:     float64(w.Frequency),
			Note:  pitch.Note{Class: pitch.PitchClass(w.Class), Octave: int(w.Octave)},
		}
	}
	return pkt, nil
}

var _ transport.Transport = (*UDPPublisher)(nil)
