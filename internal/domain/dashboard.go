package domain

// DashboardDTO gom toàn bộ dữ liệu trang chính của người dùng.
type DashboardDTO struct {
	User           *User                `json:"user"`
	Vehicles       []Vehicle            `json:"vehicles"`
	Pending        []PendingVehicle     `json:"pending"`
	ActiveTxn      *ParkingTransaction  `json:"active_txn,omitempty"`
	CurrentLotName string               `json:"current_lot_name,omitempty"`
	History        []ParkingTransaction `json:"history"`
	Lots           []ParkingLot         `json:"lots"`
}
