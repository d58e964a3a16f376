package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/service"
)

// RoomHandler 提供房间的只读查询接口
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService}
}

// RoomResponse 是 GET /api/rooms/:name 的响应体
type RoomResponse struct {
	ID            uint           `json:"id"`
	Name          string         `json:"name"`
	Status        string         `json:"status"`
	Mode          string         `json:"mode"`
	Category      string         `json:"category,omitempty"`
	DeckID        *uint          `json:"deckId,omitempty"`
	HostPlayerID  uint           `json:"hostPlayerId"`
	GuestPlayerID *uint          `json:"guestPlayerId,omitempty"`
	Started       bool           `json:"started"`
	CreatedAt     time.Time      `json:"createdAt"`
	Images        []domain.Image `json:"images"`
}

// GetRoom 返回房间状态及其图片。角色选择不对外暴露。
func (h *RoomHandler) GetRoom(c *gin.Context) {
	details, err := h.roomService.GetRoomDetails(c.Request.Context(), c.Param("name"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	room := details.Room
	SuccessResponse(c, http.StatusOK, RoomResponse{
		ID:            room.ID,
		Name:          room.Name,
		Status:        room.Status,
		Mode:          room.Mode,
		Category:      room.Category,
		DeckID:        room.DeckID,
		HostPlayerID:  room.HostPlayerID,
		GuestPlayerID: room.GuestPlayerID,
		Started:       room.Started(),
		CreatedAt:     room.CreatedAt,
		Images:        details.Images,
	})
}
