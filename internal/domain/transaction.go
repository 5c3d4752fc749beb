package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// ParkingTransaction ghi lại một phiên đỗ xe. exit_time null nghĩa là phiên
// đang mở; mỗi biển số chỉ có tối đa một phiên mở tại một thời điểm.
// Bản ghi không bao giờ bị xóa — đây là audit trail.
type ParkingTransaction struct {
	ID           int       `json:"id"`
	LicensePlate string    `json:"license_plate"`
	LotID        int       `json:"lot_id"`
	SpotNumber   int       `json:"spot_number"`
	EntryTime    time.Time `json:"entry_time"`
	ExitTime     null.Time `json:"exit_time"`
}

// SpotOccupantDTO trả về cho admin xem ai đang đỗ tại một chỗ cụ thể.
type SpotOccupantDTO struct {
	SpotNumber int    `json:"spot"`
	Plate      string `json:"plate"`
	OwnerName  string `json:"owner"`
	OwnerRole  string `json:"role"`
	OwnerPhone string `json:"phone"`
	EntryTime  string `json:"entry_time"`
}

// UserAnalyticsDTO thống kê cá nhân trên trang analytics.
type UserAnalyticsDTO struct {
	Sessions    int     `json:"sessions"`
	Hours       float64 `json:"hours"`
	FavoriteLot string  `json:"favorite"`
	AvgDuration float64 `json:"avg_duration"`
}
