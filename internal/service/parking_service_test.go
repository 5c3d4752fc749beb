package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
)

func newParkingFixture() (*ParkingService, *fakeLotRepo, *fakeSpotRepo, *fakeTxnRepo, *fakeVehicleRepo, *fakeUserRepo) {
	lots := &fakeLotRepo{}
	spots := &fakeSpotRepo{}
	txns := &fakeTxnRepo{}
	vehicles := &fakeVehicleRepo{}
	users := newFakeUserRepo()
	return NewParkingService(lots, spots, txns, vehicles, users), lots, spots, txns, vehicles, users
}

func TestCreateLotGeneratesSpots(t *testing.T) {
	svc, _, spots, _, _, _ := newParkingFixture()

	lot, err := svc.CreateLot(context.Background(), domain.ParkingLotDTO{Location: "CSE Ground", Capacity: 10})
	require.NoError(t, err)

	created, err := spots.FindByLotID(context.Background(), lot.ID)
	require.NoError(t, err)
	require.Len(t, created, 10)

	reserved := 0
	for _, s := range created {
		assert.Equal(t, domain.SpotAvailable, s.Status)
		if s.ReservedForFaculty {
			reserved++
			// 20% đầu tiên theo số thứ tự
			assert.LessOrEqual(t, s.SpotNumber, 2)
		}
	}
	assert.Equal(t, 2, reserved)
}

func TestEditCapacityGrow(t *testing.T) {
	svc, lots, spots, _, _, _ := newParkingFixture()
	lot, err := svc.CreateLot(context.Background(), domain.ParkingLotDTO{Location: "Near RVU", Capacity: 5})
	require.NoError(t, err)

	require.NoError(t, svc.EditCapacity(context.Background(), lot.ID, 8))

	all, err := spots.FindByLotID(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Len(t, all, 8)
	updated, err := lots.FindByID(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.NumberOfSpots)

	// Chỗ thêm mới không dành riêng giảng viên
	for _, s := range all {
		if s.SpotNumber > 5 {
			assert.False(t, s.ReservedForFaculty)
		}
	}
}

func TestEditCapacityShrinkBlockedByOccupiedSpot(t *testing.T) {
	svc, _, spots, _, _, _ := newParkingFixture()
	lot, err := svc.CreateLot(context.Background(), domain.ParkingLotDTO{Location: "Near RVU", Capacity: 5})
	require.NoError(t, err)

	spot, err := spots.FindByLotAndNumber(context.Background(), lot.ID, 5)
	require.NoError(t, err)
	require.NoError(t, spots.UpdateStatus(context.Background(), spot.ID, domain.SpotOccupied))

	err = svc.EditCapacity(context.Background(), lot.ID, 3)
	assert.Error(t, err)

	all, err := spots.FindByLotID(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Len(t, all, 5, "giảm thất bại thì không chỗ nào bị xóa")
}

func TestEditCapacityShrink(t *testing.T) {
	svc, lots, spots, _, _, _ := newParkingFixture()
	lot, err := svc.CreateLot(context.Background(), domain.ParkingLotDTO{Location: "Near RVU", Capacity: 5})
	require.NoError(t, err)

	require.NoError(t, svc.EditCapacity(context.Background(), lot.ID, 3))

	all, err := spots.FindByLotID(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	updated, err := lots.FindByID(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.NumberOfSpots)
}

func TestDeleteLotBlockedWhileOccupied(t *testing.T) {
	svc, lots, spots, _, _, _ := newParkingFixture()
	lot, err := svc.CreateLot(context.Background(), domain.ParkingLotDTO{Location: "B Quad", Capacity: 4})
	require.NoError(t, err)

	spot, err := spots.FindByLotAndNumber(context.Background(), lot.ID, 3)
	require.NoError(t, err)
	require.NoError(t, spots.UpdateStatus(context.Background(), spot.ID, domain.SpotOccupied))

	assert.Error(t, svc.DeleteLot(context.Background(), lot.ID))

	require.NoError(t, spots.UpdateStatus(context.Background(), spot.ID, domain.SpotAvailable))
	require.NoError(t, svc.DeleteLot(context.Background(), lot.ID))
	_, err = lots.FindByID(context.Background(), lot.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestToggleFacultyReserved(t *testing.T) {
	svc, _, spots, txns, vehicles, users := newParkingFixture()
	lot, err := svc.CreateLot(context.Background(), domain.ParkingLotDTO{Location: "Mech Parking Lot", Capacity: 5})
	require.NoError(t, err)

	t.Run("chỗ trống đảo cờ bình thường", func(t *testing.T) {
		spot, err := svc.ToggleFacultyReserved(context.Background(), lot.ID, 4)
		require.NoError(t, err)
		assert.True(t, spot.ReservedForFaculty)

		spot, err = svc.ToggleFacultyReserved(context.Background(), lot.ID, 4)
		require.NoError(t, err)
		assert.False(t, spot.ReservedForFaculty)
	})

	t.Run("chặn khi sinh viên đang đỗ", func(t *testing.T) {
		student := &domain.User{ID: 1, Name: "Ravi", Role: domain.RoleStudent}
		users.users[1] = student
		_, err := vehicles.Create(context.Background(), &domain.Vehicle{LicensePlate: "KA05CD4321", UserID: 1})
		require.NoError(t, err)

		spot, err := spots.FindByLotAndNumber(context.Background(), lot.ID, 3)
		require.NoError(t, err)
		require.NoError(t, spots.UpdateStatus(context.Background(), spot.ID, domain.SpotOccupied))
		_, err = txns.Create(context.Background(), &domain.ParkingTransaction{
			LicensePlate: "KA05CD4321", LotID: lot.ID, SpotNumber: 3, EntryTime: time.Now().UTC(),
		})
		require.NoError(t, err)

		_, err = svc.ToggleFacultyReserved(context.Background(), lot.ID, 3)
		assert.Error(t, err)
	})
}

func TestSpotDetails(t *testing.T) {
	svc, _, spots, txns, vehicles, users := newParkingFixture()
	lot, err := svc.CreateLot(context.Background(), domain.ParkingLotDTO{Location: "CSE Ground", Capacity: 3})
	require.NoError(t, err)

	users.users[7] = &domain.User{ID: 7, Name: "Anita", Phone: "9876543210", Role: domain.RoleFaculty}
	_, err = vehicles.Create(context.Background(), &domain.Vehicle{LicensePlate: "KA09ZZ7777", UserID: 7})
	require.NoError(t, err)

	spot, err := spots.FindByLotAndNumber(context.Background(), lot.ID, 2)
	require.NoError(t, err)
	require.NoError(t, spots.UpdateStatus(context.Background(), spot.ID, domain.SpotOccupied))
	_, err = txns.Create(context.Background(), &domain.ParkingTransaction{
		LicensePlate: "KA09ZZ7777", LotID: lot.ID, SpotNumber: 2, EntryTime: time.Now().UTC(),
	})
	require.NoError(t, err)

	details, err := svc.SpotDetails(context.Background(), lot.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "KA09ZZ7777", details.Plate)
	assert.Equal(t, "Anita", details.OwnerName)
	assert.Equal(t, "FACULTY", details.OwnerRole)

	// Chỗ trống thì không có chi tiết
	_, err = svc.SpotDetails(context.Background(), lot.ID, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
