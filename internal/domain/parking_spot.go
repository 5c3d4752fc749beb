package domain

type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotOccupied  SpotStatus = "occupied"
)

// ParkingSpot: spot_number là duy nhất và liên tục 1..capacity trong một bãi.
type ParkingSpot struct {
	ID                 int        `json:"id"`
	LotID              int        `json:"lot_id"`
	SpotNumber         int        `json:"spot_number"`
	Status             SpotStatus `json:"status"`
	ReservedForFaculty bool       `json:"reserved_for_faculty"`
}
