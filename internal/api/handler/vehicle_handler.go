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

type VehicleHandler struct {
	vehicleService *service.VehicleService
}

func NewVehicleHandler(vehicleService *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// Register xử lý POST /vehicles — gửi yêu cầu đăng ký xe, chờ admin duyệt.
func (h *VehicleHandler) Register(c *gin.Context) {
	userID := c.GetInt(middleware.UserIDKey)

	var dto domain.RegisterVehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}

	record, err := h.vehicleService.RegisterVehicle(c.Request.Context(), userID, dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVehicleExists):
			c.JSON(http.StatusConflict, gin.H{"error": "Biển số này đã được đăng ký hoặc đang chờ duyệt"})
		case errors.Is(err, service.ErrInvalidPlate), errors.Is(err, service.ErrInvalidDL):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi đăng ký xe"})
		}
		return
	}
	c.JSON(http.StatusCreated, record)
}

// MyVehicles xử lý GET /vehicles — xe đã duyệt kèm yêu cầu đang chờ.
func (h *VehicleHandler) MyVehicles(c *gin.Context) {
	userID := c.GetInt(middleware.UserIDKey)

	vehicles, err := h.vehicleService.MyVehicles(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy danh sách xe"})
		return
	}
	pending, err := h.vehicleService.MyPending(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy danh sách chờ duyệt"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles, "pending": pending})
}

// Delete xử lý DELETE /vehicles/:plate
func (h *VehicleHandler) Delete(c *gin.Context) {
	userID := c.GetInt(middleware.UserIDKey)
	plate := c.Param("plate")

	if err := h.vehicleService.DeleteVehicle(c.Request.Context(), userID, plate); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi xóa xe"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Xóa xe thành công"})
}

// ListPending xử lý GET /approvals (admin)
func (h *VehicleHandler) ListPending(c *gin.Context) {
	list, err := h.vehicleService.ListPendingApprovals(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy danh sách chờ duyệt"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Approve xử lý POST /approvals/:plate/approve (admin)
func (h *VehicleHandler) Approve(c *gin.Context) {
	plate := c.Param("plate")

	vehicle, err := h.vehicleService.Approve(c.Request.Context(), plate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy yêu cầu chờ duyệt"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi duyệt xe"})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// Reject xử lý POST /approvals/:plate/reject (admin)
func (h *VehicleHandler) Reject(c *gin.Context) {
	plate := c.Param("plate")

	if err := h.vehicleService.Reject(c.Request.Context(), plate); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy yêu cầu chờ duyệt"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi từ chối yêu cầu"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã từ chối yêu cầu đăng ký xe"})
}
