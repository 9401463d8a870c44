package ipc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	apperrors "whisper-relay/internal/app/errors"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Outbound messages queued per connection.
	sendBuffer = 64
)

// Request is one channel invocation sent by the shell
type Request struct {
	ID      string            `json:"id"`
	Channel string            `json:"channel"`
	Args    []json.RawMessage `json:"args"`
}

// Response answers the Request with the same ID. Exactly one of Result and
// Error is set.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Bridge upgrades HTTP connections to websockets and serves invocations
// concurrently, one goroutine per request.
type Bridge struct {
	dispatcher     *Dispatcher
	upgrader       websocket.Upgrader
	maxMessageSize int64
	logger         *zap.Logger

	mu       sync.Mutex
	closed   bool
	sessions map[*session]struct{}
	inflight sync.WaitGroup
}

// NewBridge creates a bridge. maxMessageSize bounds a single inbound message.
func NewBridge(dispatcher *Dispatcher, maxMessageSize int64, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		dispatcher:     dispatcher,
		maxMessageSize: maxMessageSize,
		logger:         logger,
		sessions:       make(map[*session]struct{}),
		upgrader: websocket.Upgrader{
			// the shell loads its renderer from file:// or a local dev server
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 4 * 1024,
		},
	}
}

// ServeHTTP handles the websocket upgrade
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		http.Error(w, "IPC bridge is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	if !b.register(s) {
		cancel()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	b.logger.Info("IPC client connected", zap.String("remote", r.RemoteAddr))

	go b.writePump(s)
	go b.readPump(s)
}

// Close disconnects every client and waits for in-flight invocations
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	sessions := make([]*session, 0, len(b.sessions))
	for s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	b.inflight.Wait()
}

// register adds s unless Close already ran
func (b *Bridge) register(s *session) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.sessions[s] = struct{}{}
	return true
}

func (b *Bridge) forget(s *session) {
	b.mu.Lock()
	delete(b.sessions, s)
	b.mu.Unlock()
	s.close()
}

// track registers an in-flight invocation unless the bridge is closing
func (b *Bridge) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.inflight.Add(1)
	return true
}

func (b *Bridge) readPump(s *session) {
	defer b.forget(s)

	if b.maxMessageSize > 0 {
		s.conn.SetReadLimit(b.maxMessageSize)
	}
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Warn("IPC connection closed", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			b.logger.Warn("Received unknown message type", zap.Int("type", messageType))
			continue
		}

		var req Request
		if err := json.Unmarshal(message, &req); err != nil {
			b.reply(s, Response{Error: "invalid message: " + err.Error()})
			continue
		}

		if !b.track() {
			return
		}
		go func() {
			defer b.inflight.Done()
			b.reply(s, b.handle(s.ctx, req))
		}()
	}
}

func (b *Bridge) handle(ctx context.Context, req Request) Response {
	start := time.Now()
	result, err := b.dispatcher.Invoke(ctx, req.Channel, req.Args)

	b.logger.Debug("IPC invocation",
		zap.String("id", req.ID),
		zap.String("channel", req.Channel),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("failed", err != nil),
	)
	if err != nil {
		b.logger.Warn("IPC invocation failed",
			zap.String("id", req.ID),
			zap.String("channel", req.Channel),
			zap.String("kind", string(apperrors.KindOf(err))),
		)
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (b *Bridge) reply(s *session, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		b.logger.Error("Failed to encode IPC response", zap.String("id", resp.ID), zap.Error(err))
		return
	}
	if !s.enqueue(payload) {
		b.logger.Debug("IPC client gone, dropping response", zap.String("id", resp.ID))
	}
}

func (b *Bridge) writePump(s *session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
		s.conn.Close()
	}()

	for {
		select {
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				b.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// session is one connected shell
type session struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (s *session) enqueue(payload []byte) bool {
	select {
	case s.send <- payload:
		return true
	case <-s.done:
		return false
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		s.cancel()
	})
}
