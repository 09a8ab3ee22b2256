package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/hertz-contrib/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

var upgrader = websocket.HertzUpgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(c *app.RequestContext) bool {
		return true
	},
}

// ConnectionMessage 连接建立后发给客户端的第一条消息
type ConnectionMessage struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connection_id"`
}

// Hub 按连接ID管理 websocket 客户端，向指定客户端推送进度
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zerolog.Logger
	now     func() time.Time
}

// NewHub l 为 nil 时使用全局日志
func NewHub(l *zerolog.Logger) *Hub {
	if l == nil {
		l = &logger.Logger
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  l,
		now:     time.Now,
	}
}

// Client 单个 websocket 连接
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func newClient(h *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{ID: id, hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
}

// Register 同一ID的旧连接会被替换
func (h *Hub) Register(c *Client) {
	if h == nil || c == nil {
		return
	}
	h.mu.Lock()
	if old, ok := h.clients[c.ID]; ok && old != c {
		close(old.send)
	}
	h.clients[c.ID] = c
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info().Str("connection_id", c.ID).Int("total_clients", total).Msg("WS客户端已连接")
}

// Unregister 仅当登记的仍是该连接时才移除
func (h *Hub) Unregister(c *Client) {
	if h == nil || c == nil {
		return
	}
	h.mu.Lock()
	if cur, ok := h.clients[c.ID]; ok && cur == c {
		delete(h.clients, c.ID)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info().Str("connection_id", c.ID).Int("total_clients", total).Msg("WS客户端已断开")
}

// Send 向指定连接投递消息，连接不存在或缓冲区已满时返回 false
func (h *Hub) Send(connectionID string, payload []byte) bool {
	if h == nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connectionID]
	if !ok {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		h.logger.Warn().Str("connection_id", connectionID).Msg("WS发送缓冲区已满，丢弃消息")
		return false
	}
}

// Notify 实现 processor.ProgressNotifier
func (h *Hub) Notify(_ context.Context, sessionID, message string, percent int) {
	if h == nil || sessionID == "" {
		return
	}
	payload, err := json.Marshal(storage.ProgressMessage{
		SessionID: sessionID,
		Message:   message,
		Percent:   percent,
		Timestamp: h.now().UTC(),
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("序列化进度消息失败")
		return
	}
	h.Send(sessionID, payload)
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS 升级为 websocket，connectionId 缺失时生成新的ID
func (h *Hub) ServeWS(_ context.Context, c *app.RequestContext) {
	id := c.Query("connectionId")
	if id == "" {
		id = uuid.NewString()
	}

	err := upgrader.Upgrade(c, func(conn *websocket.Conn) {
		client := newClient(h, conn, id)
		hello, _ := json.Marshal(ConnectionMessage{Type: "connection", ConnectionID: id})
		client.send <- hello
		h.Register(client)

		go client.writePump()
		client.readPump()
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("connection_id", id).Msg("WS升级失败")
	}
}

// readPump 只处理 pong 和关闭，客户端不发送业务消息
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("connection_id", c.ID).Msg("WS连接异常关闭")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
