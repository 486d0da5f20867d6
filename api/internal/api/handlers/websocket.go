package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/irgordon/helix/api/internal/core/domain"
	"github.com/irgordon/helix/api/internal/telemetry"
)

// ==============================================================================
// 1. WebSocket Configuration & Constants
// ==============================================================================

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. (We only stream OUT, so inbound is tiny).
	maxMessageSize = 512
)

// ==============================================================================
// 2. The Handler Struct (Dependency Injection)
// ==============================================================================

type WebSocketHandler struct {
	Hub      *telemetry.Hub
	Logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler only accepts upgrades from the configured dashboard
// origins. An empty list keeps gorilla's same-origin default.
func NewWebSocketHandler(hub *telemetry.Hub, logger *slog.Logger, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		Hub:    hub,
		Logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	if len(allowedOrigins) > 0 {
		allowed := make(map[string]struct{}, len(allowedOrigins))
		for _, o := range allowedOrigins {
			allowed[o] = struct{}{}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // Non-browser clients (CLI, probes)
			}
			_, ok := allowed[origin]
			return ok
		}
	}
	return h
}

// ==============================================================================
// 3. HTTP Methods (The Upgrader)
// ==============================================================================

// StreamAnalytics handles GET /api/v1/ws/analytics?kind=encode|decode
func (h *WebSocketHandler) StreamAnalytics(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r.URL.Query().Get("kind"))
	if !ok {
		return
	}

	// Subscribe before the handshake completes so no event emitted after the
	// client sees the 101 can be missed.
	events := h.Hub.Subscribe(kind)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Hub.Unsubscribe(kind, events)
		h.Logger.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
		return
	}

	done := make(chan struct{})

	// The Read Pump handles incoming control messages (like Ping/Pong) and
	// notices when the dashboard goes away.
	go h.readPump(ws, done)

	// Blocks until the browser disconnects.
	h.writePump(ws, events, done)
	h.Hub.Unsubscribe(kind, events)
}

// ==============================================================================
// 4. The Write Pump (Streaming History Events to the Dashboard)
// ==============================================================================

func (h *WebSocketHandler) writePump(ws *websocket.Conn, events <-chan domain.HistoryEntry, done <-chan struct{}) {
	defer ws.Close()

	// Ticker for sending periodic Ping messages to ensure the browser hasn't silently dropped off
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case entry, ok := <-events:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"))
				return
			}
			if err := ws.WriteJSON(entry); err != nil {
				h.Logger.Warn("Failed to write JSON to WebSocket", slog.String("error", err.Error()))
				return // Drop the connection if writing fails (e.g., broken pipe)
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Browser disconnected, exit the loop
			}
		}
	}
}

// ==============================================================================
// 5. The Read Pump (Connection Keep-Alive)
// ==============================================================================

func (h *WebSocketHandler) readPump(ws *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))

	// Every time we receive a Pong from the browser, we reset the deadline
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// One-way stream: inbound text is discarded, we only read to process
	// control frames and detect disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Logger.Warn("WebSocket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
	}
}
