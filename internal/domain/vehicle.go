package domain

import "time"

type Vehicle struct {
	ID           int       `json:"id"`
	LicensePlate string    `json:"license_plate"` // Viết hoa, không khoảng trắng/gạch ngang
	Model        string    `json:"model"`
	DLNumber     string    `json:"dl_number,omitempty"`
	UserID       int       `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterVehicleDTO struct {
	LicensePlate string `json:"license_plate" binding:"required"`
	Model        string `json:"model"`
	DLNumber     string `json:"dl_number" binding:"required"`
}

// PendingVehicle là một bản ghi trong hàng đợi chờ admin duyệt
// (lưu file JSON, chưa vào bảng vehicles).
type PendingVehicle struct {
	ID           string    `json:"id"`
	UserID       int       `json:"user_id"`
	LicensePlate string    `json:"license_plate"`
	Model        string    `json:"model"`
	DLNumber     string    `json:"dl_number"`
	Status       string    `json:"status"` // "pending"
	SubmittedAt  time.Time `json:"submitted_at"`

	// Thông tin bổ sung từ bảng users, chỉ dùng khi trả về API duyệt xe
	UserName  string `json:"user_name,omitempty"`
	UserDept  string `json:"user_dept,omitempty"`
	UserUSN   string `json:"user_usn,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}
