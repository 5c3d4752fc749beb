package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
	"campus_parking/internal/service"
)

type SupportHandler struct {
	supportService *service.SupportService
}

func NewSupportHandler(supportService *service.SupportService) *SupportHandler {
	return &SupportHandler{supportService: supportService}
}

// Contact xử lý POST /auth/contact — endpoint công khai, không cần đăng nhập.
func (h *SupportHandler) Contact(c *gin.Context) {
	var dto domain.ContactAdminDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}

	msg, err := h.supportService.Contact(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi gửi tin nhắn"})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListMessages xử lý GET /support (admin)
func (h *SupportHandler) ListMessages(c *gin.Context) {
	messages, err := h.supportService.ListMessages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy danh sách tin nhắn"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// MarkRead xử lý POST /support/:id/mark_read (admin)
func (h *SupportHandler) MarkRead(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID tin nhắn không hợp lệ"})
		return
	}

	if err := h.supportService.MarkRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy tin nhắn"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi cập nhật trạng thái"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã đánh dấu đã đọc"})
}

// Reply xử lý POST /support/:id/reply (admin) — gửi email trả lời rồi mới
// chuyển trạng thái sang replied.
func (h *SupportHandler) Reply(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID tin nhắn không hợp lệ"})
		return
	}
	var dto domain.ReplyMessageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}

	if err := h.supportService.Reply(c.Request.Context(), id, dto.ReplyText); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy tin nhắn"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi gửi email trả lời", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã gửi trả lời"})
}
