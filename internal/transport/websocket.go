// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"notetrack/internal/log"
)

// WebSocketTransport serves /ws and broadcasts every payload as JSON to the
// connected clients. The most recent payload is replayed to clients that
// connect later, so a browser opened after the analysis still gets it.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	last      any
	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	listener  net.Listener
	server    *http.Server
}

// NewWebSocketTransport listens on addr and starts serving. Use ":0" to pick
// a free port; Addr reports the one chosen.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // the viewer is served from elsewhere
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 16),
		done:      make(chan struct{}),
		listener:  ln,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	wst.server = &http.Server{Handler: mux}

	go func() {
		log.Infof("WebSocketTransport: serving on ws://%s/ws", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("WebSocketTransport: server error: %v", err)
		}
	}()
	go wst.handleBroadcasts()

	return wst, nil
}

// Addr returns the address the server is bound to.
func (wst *WebSocketTransport) Addr() net.Addr {
	return wst.listener.Addr()
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocketTransport: upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	if wst.last != nil {
		if err := conn.WriteJSON(wst.last); err != nil {
			wst.clientsMu.Unlock()
			log.Warnf("WebSocketTransport: replay to new client failed: %v", err)
			conn.Close()
			return
		}
	}
	wst.clients[conn] = true
	n := len(wst.clients)
	wst.clientsMu.Unlock()
	log.Infof("WebSocketTransport: client connected, total: %d", n)

	// Clients only listen; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	n := len(wst.clients)
	wst.clientsMu.Unlock()
	conn.Close()
	if ok {
		log.Infof("WebSocketTransport: client disconnected, total: %d", n)
	}
}

func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case data := <-wst.broadcast:
			wst.clientsMu.Lock()
			wst.last = data
			for client := range wst.clients {
				if err := client.WriteJSON(data); err != nil {
					log.Warnf("WebSocketTransport: error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Send queues data for broadcast. A full queue drops the payload.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return errors.New("websocket transport is closed")
	default:
	}
	select {
	case wst.broadcast <- data:
	default:
		log.Warnf("WebSocketTransport: queue full, dropping %T", data)
	}
	return nil
}

// Close disconnects every client and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		log.Infof("WebSocketTransport: closing server")
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		err = wst.server.Close()
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
