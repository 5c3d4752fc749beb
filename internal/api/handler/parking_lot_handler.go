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

type ParkingLotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingLotHandler(parkingService *service.ParkingService) *ParkingLotHandler {
	return &ParkingLotHandler{parkingService: parkingService}
}

// CreateLot xử lý POST /lots
func (h *ParkingLotHandler) CreateLot(c *gin.Context) {
	var dto domain.ParkingLotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}

	lot, err := h.parkingService.CreateLot(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, lot)
}

// GetAllLots xử lý GET /lots
func (h *ParkingLotHandler) GetAllLots(c *gin.Context) {
	lots, err := h.parkingService.GetAllLots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy danh sách bãi đỗ"})
		return
	}
	c.JSON(http.StatusOK, lots)
}

// GetLot xử lý GET /lots/:id
func (h *ParkingLotHandler) GetLot(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID bãi không hợp lệ"})
		return
	}

	lot, err := h.parkingService.GetLot(c.Request.Context(), lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bãi đỗ"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy thông tin bãi đỗ"})
		return
	}
	c.JSON(http.StatusOK, lot)
}

// GetLotSpots xử lý GET /lots/:id/spots
func (h *ParkingLotHandler) GetLotSpots(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID bãi không hợp lệ"})
		return
	}

	spots, err := h.parkingService.GetLotSpots(c.Request.Context(), lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bãi đỗ"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy danh sách chỗ đỗ"})
		return
	}
	c.JSON(http.StatusOK, spots)
}

// EditCapacity xử lý PUT /lots/:id/capacity
func (h *ParkingLotHandler) EditCapacity(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID bãi không hợp lệ"})
		return
	}
	var dto domain.EditLotCapacityDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}

	if err := h.parkingService.EditCapacity(c.Request.Context(), lotID, dto.Capacity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bãi đỗ"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cập nhật sức chứa thành công"})
}

// DeleteLot xử lý DELETE /lots/:id
func (h *ParkingLotHandler) DeleteLot(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID bãi không hợp lệ"})
		return
	}

	if err := h.parkingService.DeleteLot(c.Request.Context(), lotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy bãi đỗ"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Xóa bãi đỗ thành công"})
}

// ToggleFacultyReserved xử lý POST /lots/:id/spots/:spot_number/toggle_faculty
func (h *ParkingLotHandler) ToggleFacultyReserved(c *gin.Context) {
	lotID, spotNumber, ok := lotAndSpotParams(c)
	if !ok {
		return
	}

	spot, err := h.parkingService.ToggleFacultyReserved(c.Request.Context(), lotID, spotNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, spot)
}

// SpotDetails xử lý GET /lots/:id/spots/:spot_number
func (h *ParkingLotHandler) SpotDetails(c *gin.Context) {
	lotID, spotNumber, ok := lotAndSpotParams(c)
	if !ok {
		return
	}

	details, err := h.parkingService.SpotDetails(c.Request.Context(), lotID, spotNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrNoOpenTransaction) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chỗ này hiện không có xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy thông tin chỗ đỗ"})
		return
	}
	c.JSON(http.StatusOK, details)
}

func lotAndSpotParams(c *gin.Context) (int, int, bool) {
	lotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID bãi không hợp lệ"})
		return 0, 0, false
	}
	spotNumber, err := strconv.Atoi(c.Param("spot_number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Số chỗ không hợp lệ"})
		return 0, 0, false
	}
	return lotID, spotNumber, true
}
