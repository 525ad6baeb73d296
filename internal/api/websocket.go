package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsMaxMessage = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsMessage is one inbound chat frame. UserID falls back to the
// connection's user_id query parameter.
type wsMessage struct {
	UserID uint   `json:"user_id"`
	Text   string `json:"text"`
}

// wsConnection maintains the WebSocket connection with the client
type wsConnection struct {
	conn   *websocket.Conn
	send   chan []byte
	api    *API
	userID uint
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// ChatWebSocket upgrades to a WebSocket that carries chat messages
func (a *API) ChatWebSocket(c *gin.Context) {
	var userID uint
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		userID = uint(id)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.Logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ws := &wsConnection{
		conn:   conn,
		send:   make(chan []byte, 16),
		api:    a,
		userID: userID,
		ctx:    ctx,
		cancel: cancel,
		logger: a.Logger.Named("ws"),
	}

	go ws.writePump()
	go ws.readPump()
}

// readPump handles messages one at a time so replies keep their order
func (w *wsConnection) readPump() {
	defer func() {
		w.cancel()
		close(w.send)
	}()

	w.conn.SetReadLimit(wsMaxMessage)
	w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	w.conn.SetPongHandler(func(string) error {
		return w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				w.logger.Warn("websocket error", zap.Error(err))
			}
			return
		}
		w.handleMessage(data)
	}
}

func (w *wsConnection) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		w.conn.Close()
	}()

	for {
		select {
		case message, ok := <-w.send:
			w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				w.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := w.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (w *wsConnection) handleMessage(data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		w.sendError("invalid message format")
		return
	}
	if msg.UserID == 0 {
		msg.UserID = w.userID
	}
	text := strings.TrimSpace(msg.Text)
	switch {
	case msg.UserID == 0:
		w.sendError("user_id is required")
		return
	case text == "" || len([]rune(text)) > 500:
		w.sendError("text must be between 1 and 500 characters")
		return
	case !w.api.allow(msg.UserID):
		w.sendError("Too many messages, slow down")
		return
	}

	resp := w.api.ChatService.HandleMessage(w.ctx, msg.UserID, text)
	w.sendJSON(resp)
}

func (w *wsConnection) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		w.logger.Error("failed to marshal message", zap.Error(err))
		return
	}

	select {
	case w.send <- data:
	default:
		w.logger.Warn("websocket buffer full, dropping message")
	}
}

func (w *wsConnection) sendError(message string) {
	w.sendJSON(gin.H{"error": message})
}
