// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"notetrack/internal/log"
	"notetrack/internal/pitch"
	"notetrack/internal/segment"
)

type payload struct {
	Name   string              `json:"name"`
	Events []segment.NoteEvent `json:"events"`
}

func (p payload) NoteEvents() []segment.NoteEvent { return p.Events }

func newPayload(name string) payload {
	return payload{
		Name: name,
		Events: []segment.NoteEvent{
			{Frame: 0, Time: 0.06, Y: 440, Note: pitch.Note{Class: pitch.A, Octave: 4}},
		},
	}
}

func dial(t *testing.T, wst *WebSocketTransport) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+wst.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readPayload(t *testing.T, conn *websocket.Conn) payload {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got payload
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return got
}

func TestWebSocketTransport_Broadcast(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport() error = %v", err)
	}
	defer wst.Close()

	conn := dial(t, wst)
	waitFor(t, func() bool { return wst.Clients() == 1 })

	if err := wst.Send(newPayload("first")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	got := readPayload(t, conn)
	if got.Name != "first" {
		t.Errorf("Name = %q, want %q", got.Name, "first")
	}
	if len(got.Events) != 1 || got.Events[0].Note.String() != "A4" {
		t.Errorf("Events = %+v, want one A4", got.Events)
	}
}

func TestWebSocketTransport_ReplaysLast(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport() error = %v", err)
	}
	defer wst.Close()

	early := dial(t, wst)
	waitFor(t, func() bool { return wst.Clients() == 1 })
	wst.Send(newPayload("report"))
	readPayload(t, early)

	late := dial(t, wst)
	if got := readPayload(t, late); got.Name != "report" {
		t.Errorf("late client got %q, want the last report", got.Name)
	}
}

func TestWebSocketTransport_Close(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport() error = %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := wst.Send(newPayload("late")); err == nil {
		t.Error("Send() after Close succeeded")
	}
}

func TestWebSocketTransport_BadAddress(t *testing.T) {
	if _, err := NewWebSocketTransport("256.0.0.1:x"); err == nil {
		t.Error("expected listen error")
	}
}

func TestLoggingTransport(t *testing.T) {
	buf := new(bytes.Buffer)
	log.SetOutput(buf)
	prev := log.GetLevel()
	log.SetLevel(log.LevelDebug)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(prev)
	})

	lt := NewLoggingTransport()
	if err := lt.Send(newPayload("x")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := lt.Send(map[string]int{"frames": 3}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "A4") {
		t.Errorf("event line missing: %q", out)
	}
	if !strings.Contains(out, `{"frames":3}`) {
		t.Errorf("JSON payload missing: %q", out)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
