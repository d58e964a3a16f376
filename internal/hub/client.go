package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/dto"
	"guess-who-arena/internal/service"
)

var (
	ErrClientClosed   = errors.New("hub: client is closed")
	ErrSendBufferFull = errors.New("hub: client send buffer full")
)

// MessageHandler 处理客户端的动作消息与断线
type MessageHandler interface {
	HandleMessage(ctx context.Context, conn service.Connection, raw []byte)
	HandleDisconnect(ctx context.Context, conn service.Connection)
}

// Client 代表一个连接到 Hub 的 WebSocket 客户端，实现 service.Connection。
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	handler MessageHandler
	id      string
	userID  uint
	send    chan []byte

	mu     sync.Mutex // 保护 closed 与 send 的关闭
	closed bool

	disconnectOnce sync.Once
}

// NewClient 创建一个新的 Client 实例，userID 为 0 表示未认证
func NewClient(hub *Hub, conn *websocket.Conn, handler MessageHandler, userID uint) *Client {
	if hub == nil || conn == nil || handler == nil {
		panic("hub, conn and handler cannot be nil for Client")
	}
	return &Client{
		hub:     hub,
		conn:    conn,
		handler: handler,
		id:      uuid.NewString(),
		userID:  userID,
		send:    make(chan []byte, 256),
	}
}

// Run 启动客户端的读写 goroutine，读循环计入 Hub 的 Drain
func (c *Client) Run() {
	c.hub.pumps.Add(1)
	go c.WritePump()
	go func() {
		defer c.hub.pumps.Done()
		c.ReadPump()
	}()
}

func (c *Client) ID() string   { return c.id }
func (c *Client) UserID() uint { return c.userID }

// Send 序列化事件并放入发送队列，队列满时丢弃并返回错误
func (c *Client) Send(event string, payload interface{}) error {
	data, err := json.Marshal(dto.OutgoingMessage{Event: event, Data: payload})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close 关闭发送队列。WritePump 写完剩余消息后发送关闭帧并关闭连接。
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) logFields() logrus.Fields {
	return logrus.Fields{"conn_id": c.id, "user_id": c.userID}
}

// disconnect 在读循环结束后恰好执行一次
func (c *Client) disconnect() {
	c.disconnectOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		c.handler.HandleDisconnect(ctx, c)
	})
}

// ReadPump 从 WebSocket 读取消息并按顺序交给处理器，在自己的 goroutine 中运行。
func (c *Client) ReadPump() {
	defer func() {
		// 先做断线清理，再注销，保证清理时频道成员关系仍然可见
		c.disconnect()
		if !c.hub.QueueMessage(HubMessage{Type: "unregister", Client: c}) {
			c.Close()
		}
		c.conn.Close()
		logrus.WithFields(c.logFields()).Info("readPump exited, client unregistered")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithFields(c.logFields())
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			logrus.WithFields(c.logFields()).Debugf("Received non-text message type: %d", messageType)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		c.handler.HandleMessage(ctx, c, message)
		cancel()
	}
}

// WritePump 将发送队列中的消息写入 WebSocket 连接，在自己的 goroutine 中运行。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithFields(c.logFields()).Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 发送队列已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithFields(c.logFields()).WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithFields(c.logFields()).WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}
