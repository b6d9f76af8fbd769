// internal/httpserver/ws.go
//
// Websocket transport for the game session.
// Responsibilities:
//   - Upgrade GET /ws, assign a ClientID and register the connection.
//   - Fan session output out to the addressed connections (Hub.Send).
//   - Pump inbound text frames into the session.
//   - Keep idle connections alive with ping frames.
//
// Notes:
//   - A connection whose send buffer is full is dropped rather than
//     stalling the session goroutine.
package httpserver

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/game"
)

const (
	wsIdlePingInterval = 30 * time.Second
	wsWriteWait        = 10 * time.Second
	wsMaxMessage       = 4096
	wsSendBuffer       = 32
)

// GameSession is the part of game.Session the transport needs.
type GameSession interface {
	Connect(id game.ClientID, token string) error
	Disconnect(id game.ClientID) error
	Message(id game.ClientID, raw []byte) error
}

type wsClient struct {
	id   game.ClientID
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks live websocket connections. It implements game.Sender.
type Hub struct {
	mu      sync.Mutex
	clients map[game.ClientID]*wsClient
	nextID  atomic.Uint64
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[game.ClientID]*wsClient)}
}

// Send queues payload for the given clients, or for everyone when to is nil.
func (h *Hub) Send(to []game.ClientID, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if to == nil {
		for _, c := range h.clients {
			h.queue(c, payload)
		}
		return
	}
	for _, id := range to {
		if c, ok := h.clients[id]; ok {
			h.queue(c, payload)
		}
	}
}

// queue must be called with h.mu held.
func (h *Hub) queue(c *wsClient, payload []byte) {
	select {
	case c.send <- payload:
	default:
		log.Warn().Uint64("client", uint64(c.id)).Msg("send buffer full, dropping client")
		delete(h.clients, c.id)
		close(c.send)
	}
}

func (h *Hub) register(conn *websocket.Conn) *wsClient {
	c := &wsClient{
		id:   game.ClientID(h.nextID.Add(1)),
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

// Len reports the number of live connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll sends a close frame to every connection; used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		delete(h.clients, id)
		close(c.send)
	}
}

func newUpgrader(origin string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || origin == "*" || o == origin
		},
	}
}

// handleWS upgrades the connection and runs its read loop until the peer
// goes away. The write loop runs on its own goroutine.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	c := s.hub.register(conn)
	log.Debug().Uint64("client", uint64(c.id)).Str("remote", r.RemoteAddr).Msg("websocket connected")

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, c.send); err != nil {
			log.Debug().Err(err).Uint64("client", uint64(c.id)).Msg("websocket write")
		}
	}()

	if err := s.session.Connect(c.id, r.URL.Query().Get("token")); err != nil {
		s.hub.unregister(c)
		return
	}

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(2 * wsIdlePingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * wsIdlePingInterval))
	})
	for {
		typ, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * wsIdlePingInterval))
		if typ != websocket.TextMessage {
			continue
		}
		if err := s.session.Message(c.id, raw); err != nil {
			break
		}
	}
	s.hub.unregister(c)
	_ = s.session.Disconnect(c.id)
	log.Debug().Uint64("client", uint64(c.id)).Msg("websocket closed")
}

// writeWSWithHeartbeat drains send onto conn, pinging when the connection
// has been idle for wsIdlePingInterval. It returns when send is closed.
func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
