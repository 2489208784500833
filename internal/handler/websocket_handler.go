package handler

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Baaaki/message-board/internal/broker"
	"github.com/Baaaki/message-board/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second // Time allowed to write a message to the peer
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // 54 seconds
	maxMessageSize = 512                 // clients only send control frames
)

// Subscriber hands out change-feed subscriptions
type Subscriber interface {
	Subscribe(ctx context.Context) (broker.Subscription, error)
}

// WebSocketHandler streams message change events to connected clients
type WebSocketHandler struct {
	events   Subscriber
	upgrader websocket.Upgrader
	clients  atomic.Int64
}

type wsClient struct {
	id          string
	conn        *websocket.Conn
	connectedAt time.Time
}

func NewWebSocketHandler(events Subscriber, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

// GET /api/ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// Subscribe before upgrading so nothing published after the handshake is missed
	sub, err := h.events.Subscribe(c.Request.Context())
	if err != nil {
		logger.Log.Error("Failed to subscribe to message events", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "change feed unavailable",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		logger.Log.Warn("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &wsClient{
		id:          uuid.New().String(),
		conn:        conn,
		connectedAt: time.Now(),
	}

	total := h.clients.Add(1)
	logger.Log.Info("WebSocket client connected",
		zap.String("client_id", client.id),
		zap.Int64("total", total),
	)

	defer h.removeClient(client)

	h.serveClient(client, sub)
}

// ConnectedClients returns the number of open feed connections
func (h *WebSocketHandler) ConnectedClients() int64 {
	return h.clients.Load()
}

// serveClient writes events until the client leaves or the subscription ends
func (h *WebSocketHandler) serveClient(client *wsClient, sub broker.Subscription) {
	done := make(chan struct{})
	go h.readPump(client, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				h.closeClientGracefully(client, "change feed closed")
				return
			}

			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteJSON(event); err != nil {
				logger.Log.Debug("Failed to send event",
					zap.String("client_id", client.id),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.Debug("Ping failed",
					zap.String("client_id", client.id),
					zap.Error(err),
				)
				return
			}

		case <-done:
			return
		}
	}
}

// readPump processes pongs and close frames; the feed is one-way so payloads are discarded
func (h *WebSocketHandler) readPump(client *wsClient, done chan<- struct{}) {
	defer close(done)

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debug("WebSocket read error",
					zap.String("client_id", client.id),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (h *WebSocketHandler) closeClientGracefully(client *wsClient, reason string) {
	client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
	); err != nil {
		logger.Log.Debug("Failed to send close frame", zap.Error(err))
	}
}

func (h *WebSocketHandler) removeClient(client *wsClient) {
	_ = client.conn.Close()

	remaining := h.clients.Add(-1)
	logger.Log.Info("WebSocket client disconnected",
		zap.String("client_id", client.id),
		zap.Duration("session_duration", time.Since(client.connectedAt).Round(time.Second)),
		zap.Int64("remaining", remaining),
	)
}

// originChecker mirrors the CORS setting: "*" or no list accepts every origin
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || (len(allowed) == 1 && allowed[0] == "*") {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || lo.Contains(allowed, origin)
	}
}
