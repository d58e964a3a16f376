package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"guess-who-arena/internal/service"
)

// ImageHandler 提供图片分类查询
type ImageHandler struct {
	content *service.ContentResolver
}

func NewImageHandler(content *service.ContentResolver) *ImageHandler {
	if content == nil {
		panic("ContentResolver cannot be nil for ImageHandler")
	}
	return &ImageHandler{content: content}
}

// ListCategories 处理 GET /api/images/categories
func (h *ImageHandler) ListCategories(c *gin.Context) {
	categories, err := h.content.Categories(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	SuccessResponse(c, http.StatusOK, gin.H{"categories": categories})
}
