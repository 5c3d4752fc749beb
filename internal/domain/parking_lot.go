package domain

type ParkingLot struct {
	ID            int    `json:"id"`
	Location      string `json:"location"`
	NumberOfSpots int    `json:"number_of_spots"`
}

type ParkingLotDTO struct {
	Location string `json:"location" binding:"required"`
	Capacity int    `json:"capacity" binding:"required"`
}

type EditLotCapacityDTO struct {
	Capacity int `json:"capacity" binding:"required"`
}
