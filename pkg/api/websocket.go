package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antibyte/lexana/pkg/analyzer"
	"github.com/antibyte/lexana/pkg/configuration"
	"github.com/antibyte/lexana/pkg/logger"
)

// WebSocket tuning values come from the [Network] section in settings.cfg.

func getWriteWait() time.Duration {
	return configuration.GetDuration("Network", "write_wait_timeout", 10*time.Second)
}

func getPongWait() time.Duration {
	return configuration.GetDuration("Network", "pong_timeout", 90*time.Second)
}

func getPingPeriod() time.Duration {
	pongWait := getPongWait()
	return (pongWait * 9) / 10
}

func getMaxMessageSize() int64 {
	return int64(configuration.GetInt("Network", "max_message_size_kb", 256) * 1024)
}

func getMaxMessagesPerSecond() int {
	return configuration.GetInt("Network", "max_messages_per_second", 20)
}

// liveRequest is one frame from the editor: retokenize the current buffer.
type liveRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

// liveResponse wraps either a result or a frame-level error.
type liveResponse struct {
	Result *analyzer.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin browser clients plus non-browser tools. The
		// endpoint carries no credentials and mutates nothing.
		return true
	},
}

// HandleLiveAnalyze upgrades to WebSocket and retokenizes every frame the
// client sends. Used by the editor for as-you-type feedback where HTTP
// round-trips per keystroke would be wasteful.
func (h *Handler) HandleLiveAnalyze(w http.ResponseWriter, r *http.Request) {
	ipAddress := r.RemoteAddr
	forwardedFor := r.Header.Get("X-Forwarded-For")
	if forwardedFor != "" {
		parts := strings.Split(forwardedFor, ",")
		if len(parts) > 0 {
			ipAddress = strings.TrimSpace(parts[0])
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WebSocketError("upgrade failed for %s: %v", ipAddress, err)
		return
	}
	logger.WebSocketInfo("live analysis connection from %s", ipAddress)

	go h.serveLiveConn(&liveConn{conn: conn}, ipAddress)
}

// liveConn serializes writes: the keepalive ticker and the response
// writer must never write concurrently on a gorilla connection.
type liveConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *liveConn) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
	return c.conn.WriteMessage(messageType, data)
}

func (c *liveConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
	return c.conn.WriteJSON(v)
}

func (h *Handler) serveLiveConn(client *liveConn, ipAddress string) {
	conn := client.conn
	defer conn.Close()

	conn.SetReadLimit(getMaxMessageSize())
	conn.SetReadDeadline(time.Now().Add(getPongWait()))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(getPongWait()))
		return nil
	})

	// Keepalive pings run beside the read loop; done stops the ticker
	// when the client goes away.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(getPingPeriod())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := client.writeMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Sliding one-second window for the per-connection message budget.
	windowStart := time.Now()
	windowCount := 0

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WebSocketWarn("connection from %s closed unexpectedly: %v", ipAddress, err)
			}
			return
		}

		now := time.Now()
		if now.Sub(windowStart) > time.Second {
			windowStart = now
			windowCount = 0
		}
		windowCount++
		if windowCount > getMaxMessagesPerSecond() {
			logger.SecurityWarn("message rate limit exceeded for %s", ipAddress)
			h.writeLiveResponse(client, liveResponse{Error: "Rate limit exceeded"})
			return
		}

		req, err := decodeLiveFrame(message)
		if err != nil {
			h.writeLiveResponse(client, liveResponse{Error: err.Error()})
			continue
		}
		if len(req.Code) > maxSourceSize() {
			h.writeLiveResponse(client, liveResponse{Error: "Source code too large"})
			continue
		}

		result, err := analyzer.Analyze(req.Code, req.Language)
		if err != nil {
			h.writeLiveResponse(client, liveResponse{Error: "Unsupported language: " + req.Language})
			continue
		}
		if !h.writeLiveResponse(client, liveResponse{Result: result}) {
			return
		}
	}
}

func (h *Handler) writeLiveResponse(client *liveConn, resp liveResponse) bool {
	if err := client.writeJSON(resp); err != nil {
		logger.WebSocketError("write failed: %v", err)
		return false
	}
	return true
}

// decodeLiveFrame parses one incoming frame strictly: it must be a JSON
// object with no fields beyond code and language. Strict decoding keeps
// junk frames from silently analyzing an empty buffer.
func decodeLiveFrame(message []byte) (liveRequest, error) {
	var req liveRequest
	decoder := json.NewDecoder(bytes.NewReader(message))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, errors.New("Invalid message format")
	}
	return req, nil
}
