package repository

import (
	"context"
	"errors"
	"time"

	"campus_parking/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")
var ErrNoOpenTransaction = errors.New("không có phiên đỗ xe đang mở cho biển số này")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUSN(ctx context.Context, usn string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	UpdatePreferences(ctx context.Context, id int, preferences string) error
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
	FindByUserID(ctx context.Context, userID int) ([]domain.Vehicle, error)
	FindAll(ctx context.Context) ([]domain.Vehicle, error)
	Delete(ctx context.Context, plate string, userID int) error
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	UpdateCapacity(ctx context.Context, id int, capacity int) error
	// Delete xóa bãi; các spot thuộc bãi bị xóa theo (ON DELETE CASCADE).
	Delete(ctx context.Context, id int) error
}

type ParkingSpotRepository interface {
	CreateBatch(ctx context.Context, spots []domain.ParkingSpot) error
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error)
	FindByLotAndNumber(ctx context.Context, lotID int, spotNumber int) (*domain.ParkingSpot, error)
	// FindFirstAvailable trả về spot trống có số nhỏ nhất trong bãi;
	// excludeFacultyReserved=true thì bỏ qua các chỗ dành riêng giảng viên.
	FindFirstAvailable(ctx context.Context, lotID int, excludeFacultyReserved bool) (*domain.ParkingSpot, error)
	UpdateStatus(ctx context.Context, id int, status domain.SpotStatus) error
	SetFacultyReserved(ctx context.Context, id int, reserved bool) error
	CountOccupiedByLot(ctx context.Context, lotID int) (int, error)
	DeleteAboveNumber(ctx context.Context, lotID int, spotNumber int) error
	FindOccupiedAboveNumber(ctx context.Context, lotID int, spotNumber int) ([]domain.ParkingSpot, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.ParkingTransaction) (*domain.ParkingTransaction, error)
	FindOpenByPlate(ctx context.Context, plate string) (*domain.ParkingTransaction, error)
	FindOpenByPlates(ctx context.Context, plates []string) (*domain.ParkingTransaction, error)
	FindOpenBySpot(ctx context.Context, lotID int, spotNumber int) (*domain.ParkingTransaction, error)
	// Close đặt exit_time cho phiên đang mở. Phiên không bao giờ bị xóa.
	Close(ctx context.Context, id int, exitTime time.Time) error
	FindCompletedByPlates(ctx context.Context, plates []string, limit int) ([]domain.ParkingTransaction, error)
	CountByPlates(ctx context.Context, plates []string) (int, error)
	// FavoriteLotID trả về lot id xuất hiện nhiều nhất trong các phiên của
	// các biển số cho trước, ErrNotFound nếu chưa có phiên nào.
	FavoriteLotID(ctx context.Context, plates []string) (int, error)
}

type SupportMessageRepository interface {
	Create(ctx context.Context, msg *domain.SupportMessage) (*domain.SupportMessage, error)
	FindAll(ctx context.Context) ([]domain.SupportMessage, error)
	FindByID(ctx context.Context, id int) (*domain.SupportMessage, error)
	UpdateStatus(ctx context.Context, id int, status domain.SupportMessageStatus) error
}
