package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus_parking/internal/domain"
	"campus_parking/internal/service"
)

// GateHandler phục vụ ba endpoint của trạm gác: quét biển số vào, xác minh
// thẻ, và quét ra. Body luôn là GateResult; HTTP status suy từ Reason để
// console trạm gác phân biệt từ chối với lỗi hệ thống.
type GateHandler struct {
	gateService *service.GateService
}

func NewGateHandler(gateService *service.GateService) *GateHandler {
	return &GateHandler{gateService: gateService}
}

// ScanPlateEntry xử lý POST /gate/scan_plate_entry
func (h *GateHandler) ScanPlateEntry(c *gin.Context) {
	var req domain.ScanPlateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}
	result := h.gateService.ScanPlateEntry(c.Request.Context(), req.ManualPlate)
	c.JSON(gateStatusCode(result), result)
}

// VerifyID xử lý POST /gate/verify_id_and_grant
func (h *GateHandler) VerifyID(c *gin.Context) {
	var req domain.VerifyIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}
	result := h.gateService.VerifyIDAndGrant(c.Request.Context(), req.Plate, req.ExpectedUSN, req.ManualID)
	c.JSON(gateStatusCode(result), result)
}

// ScanExit xử lý POST /gate/scan_exit_id
func (h *GateHandler) ScanExit(c *gin.Context) {
	var req domain.ScanExitRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ", "details": err.Error()})
		return
	}
	result := h.gateService.ScanExitID(c.Request.Context(), req.ManualID)
	c.JSON(gateStatusCode(result), result)
}

func gateStatusCode(result *domain.GateResult) int {
	if result.Status == domain.GateError {
		return http.StatusInternalServerError
	}
	switch result.Reason {
	case domain.ReasonNoPlateFound, domain.ReasonNotInside:
		return http.StatusNotFound
	case domain.ReasonAlreadyInside, domain.ReasonCampusFull, domain.ReasonIDMismatch:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}
