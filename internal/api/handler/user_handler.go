package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus_parking/internal/api/middleware"
	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
	"campus_parking/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Dashboard xử lý GET /me/dashboard
func (h *UserHandler) Dashboard(c *gin.Context) {
	userID := c.GetInt(middleware.UserIDKey)

	dto, err := h.userService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy người dùng"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy dữ liệu dashboard"})
		return
	}
	c.JSON(http.StatusOK, dto)
}

// Analytics xử lý GET /me/analytics
func (h *UserHandler) Analytics(c *gin.Context) {
	userID := c.GetInt(middleware.UserIDKey)

	stats, err := h.userService.Analytics(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi tính thống kê"})
		return
	}
	if stats == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Chưa có xe nào được đăng ký"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdatePreferences xử lý PUT /me/preferences
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID := c.GetInt(middleware.UserIDKey)

	var dto domain.UpdatePreferencesDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}

	if err := h.userService.UpdatePreferences(c.Request.Context(), userID, dto.Order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cập nhật thứ tự ưu tiên thành công"})
}
