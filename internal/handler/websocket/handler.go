package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/hub"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	handler  hub.MessageHandler
}

// NewWebSocketHandler 创建 WebSocketHandler 实例。
// allowedOrigins 为空时接受任意来源。
func NewWebSocketHandler(h *hub.Hub, handler hub.MessageHandler, allowedOrigins []string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if handler == nil {
		panic("MessageHandler cannot be nil for WebSocketHandler")
	}

	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			return origins[r.Header.Get("Origin")]
		},
	}

	return &WebSocketHandler{
		upgrader: upgrader,
		hub:      h,
		handler:  handler,
	}
}

// HandleConnection 处理 GET /ws。认证中间件设置的 user_id 为可选项，
// 未认证的连接以消息中的 userId 作为身份。
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	var userID uint
	if v, exists := c.Get("user_id"); exists {
		id, ok := v.(uint)
		if !ok {
			logrus.Error("WS Handler: User ID in context is not uint")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		userID = id
	}
	logCtx := logrus.WithField("user_id", userID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写回了 HTTP 错误
		logCtx.WithError(err).Warn("WS Handler: Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, h.handler, userID)
	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", Client: client}) {
		logCtx.Error("WS Handler: Hub unavailable, failed to register client")
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"))
		conn.Close()
		return
	}

	client.Run()
	logCtx.WithField("conn_id", client.ID()).Info("WS Handler: Client connected")
}
