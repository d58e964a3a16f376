package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"guess-who-arena/internal/service"
)

// UserHandler 提供玩家资料查询
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	if users == nil {
		panic("UserService cannot be nil for UserHandler")
	}
	return &UserHandler{users: users}
}

// ProfileResponse 是 GET /api/users/:id 的响应体
type ProfileResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Title    string `json:"title"`
}

// GetProfile 返回玩家的名字、分数和称号
func (h *UserHandler) GetProfile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		HandleServiceError(c, fmt.Errorf("%w: invalid user id '%s'", service.ErrInvalidInput, c.Param("id")))
		return
	}
	user, err := h.users.GetProfile(c.Request.Context(), uint(id))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, ProfileResponse{
		ID:       user.ID,
		Username: user.Username,
		Score:    user.Score,
		Title:    user.Title,
	})
}
