package hub

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/service"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// 单个动作的处理超时
	actionTimeout = 10 * time.Second
)

// HubMessage 是在 Hub 内部通道传递的消息
type HubMessage struct {
	Type   string // "register", "unregister"
	Client *Client
}

// Hub 维护所有在线客户端以及按房间名划分的广播频道。
// 它实现 service.Channels。
type Hub struct {
	messageChan chan HubMessage
	done        chan struct{}
	stopOnce    sync.Once

	// 仍在运行的读循环 (含断线清理)
	pumps sync.WaitGroup

	// 只由 Run 所在的 goroutine 访问
	clients map[*Client]bool

	// map[room]map[connID]Connection
	rooms   map[string]map[string]service.Connection
	roomsMu sync.RWMutex
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub() *Hub {
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		done:        make(chan struct{}),
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[string]service.Connection),
	}
}

// Run 启动 Hub 的主事件处理循环，应在单独的 goroutine 中运行。
// Stop 被调用后关闭所有客户端并返回。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for {
		select {
		case msg := <-h.messageChan:
			h.handle(msg)
		case <-h.done:
			// 先处理队列中尚未处理的注册，保证所有客户端都会被关闭
			for pending := true; pending; {
				select {
				case msg := <-h.messageChan:
					h.handle(msg)
				default:
					pending = false
				}
			}
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			log.Info("Hub is shutting down...")
			return
		}
	}
}

func (h *Hub) handle(msg HubMessage) {
	switch msg.Type {
	case "register":
		h.registerClient(msg.Client)
	case "unregister":
		h.unregisterClient(msg.Client)
	default:
		logrus.WithField("component", "hub").Warnf("Hub: Received unknown message type: %s", msg.Type)
	}
}

// Stop 让 Run 退出，可重复调用
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Drain 等待所有客户端的读循环及其断线清理结束，应在 Stop 之后调用
func (h *Hub) Drain(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		h.pumps.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	h.clients[client] = true
	logrus.WithFields(logrus.Fields{
		"conn_id": client.ID(),
		"user_id": client.UserID(),
		"clients": len(h.clients),
	}).Info("Client registered to Hub")
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"conn_id": client.ID(),
		"user_id": client.UserID(),
	})
	if _, ok := h.clients[client]; !ok {
		logCtx.Warn("Client not found during unregister")
		return
	}
	delete(h.clients, client)
	// 断线清理通常已经离开了频道，这里兜底
	h.leaveAll(client.ID())
	client.Close()
	logCtx.Info("Client unregistered from Hub")
}

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)。
// 返回 false 表示队列已满或 Hub 已停止。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// Join 把连接加入房间频道
func (h *Hub) Join(room string, conn service.Connection) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]service.Connection)
		h.rooms[room] = members
	}
	members[conn.ID()] = conn
}

// Leave 把连接移出房间频道，频道为空时删除
func (h *Hub) Leave(room string, connID string) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) leaveAll(connID string) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	for room, members := range h.rooms {
		if _, ok := members[connID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// IsMember 判断连接是否在房间频道中
func (h *Hub) IsMember(room string, connID string) bool {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	_, ok := h.rooms[room][connID]
	return ok
}

// Broadcast 将事件发送给房间频道内的连接，排除 exceptConnID
func (h *Hub) Broadcast(room string, event string, payload interface{}, exceptConnID string) {
	h.roomsMu.RLock()
	members := h.rooms[room]
	// 复制接收者列表，避免发送时持有锁
	recipients := make([]service.Connection, 0, len(members))
	for id, conn := range members {
		if id != exceptConnID {
			recipients = append(recipients, conn)
		}
	}
	h.roomsMu.RUnlock()

	if len(recipients) == 0 {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"room":            room,
		"event":           event,
		"recipient_count": len(recipients),
	})
	logCtx.Debug("Broadcasting event to room")

	for _, conn := range recipients {
		if err := conn.Send(event, payload); err != nil {
			logCtx.WithField("receiver_conn_id", conn.ID()).WithError(err).Warn("Failed to deliver broadcast, skipping this client")
		}
	}
}

// RoomSize 返回房间频道内的连接数
func (h *Hub) RoomSize(room string) int {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return len(h.rooms[room])
}
