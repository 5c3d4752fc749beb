package domain

import "time"

type GateStatus string

const (
	GateAllowed      GateStatus = "allowed"
	GateDenied       GateStatus = "denied"
	GateStep1Success GateStatus = "step1_success"
	GateError        GateStatus = "error"
)

// GateDenyReason để handler chọn HTTP status code phù hợp,
// không serialize ra JSON.
type GateDenyReason string

const (
	ReasonNone          GateDenyReason = ""
	ReasonNoPlateFound  GateDenyReason = "no_plate_found"
	ReasonAlreadyInside GateDenyReason = "already_inside"
	ReasonIDMismatch    GateDenyReason = "id_mismatch"
	ReasonCampusFull    GateDenyReason = "campus_full"
	ReasonNotInside     GateDenyReason = "not_inside"
	ReasonCamera        GateDenyReason = "camera_unreachable"
)

type ScanPlateEntryRequest struct {
	ManualPlate string `json:"manual_plate"`
}

type VerifyIDRequest struct {
	Plate       string `json:"plate" binding:"required"`
	ExpectedUSN string `json:"expected_usn" binding:"required"`
	ManualID    string `json:"manual_id"`
}

type ScanExitRequest struct {
	ManualID string `json:"manual_id"`
}

// GateResult là kết quả có cấu trúc của một bước tại cổng. Mọi nhánh đều trả
// về GateResult — không có lỗi "chết người" ở subsystem này, operator luôn có
// thể quét lại hoặc nhập tay.
type GateResult struct {
	Status GateStatus `json:"status"`
	Msg    string     `json:"msg,omitempty"`

	Plate       string `json:"plate,omitempty"`
	OwnerName   string `json:"owner,omitempty"`
	ExpectedUSN string `json:"expected_usn,omitempty"`
	Lot         string `json:"lot,omitempty"`
	Spot        int    `json:"spot,omitempty"`

	// Soup OCR thô, trả lại cho operator khi từ chối để nhập tay
	DebugOCR string `json:"debug_ocr,omitempty"`

	Reason GateDenyReason `json:"-"`
}

// GateConsoleEvent đẩy qua websocket cho màn hình console trực cổng.
type GateConsoleEvent struct {
	Action    string     `json:"action"` // "entry_plate", "entry_id", "exit"
	Status    GateStatus `json:"status"`
	Plate     string     `json:"plate,omitempty"`
	Lot       string     `json:"lot,omitempty"`
	Spot      int        `json:"spot,omitempty"`
	Msg       string     `json:"msg,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
