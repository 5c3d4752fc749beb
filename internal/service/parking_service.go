package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
)

// ParkingService xử lý CRUD bãi/chỗ đỗ cho admin.
type ParkingService struct {
	lotRepo     repository.ParkingLotRepository
	spotRepo    repository.ParkingSpotRepository
	txnRepo     repository.TransactionRepository
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
}

func NewParkingService(
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	txnRepo repository.TransactionRepository,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
) *ParkingService {
	return &ParkingService{
		lotRepo:     lotRepo,
		spotRepo:    spotRepo,
		txnRepo:     txnRepo,
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
	}
}

// CreateLot tạo bãi mới và sinh sẵn chỗ đỗ 1..capacity; 20% đầu tiên dành
// riêng cho giảng viên.
func (s *ParkingService) CreateLot(ctx context.Context, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	if dto.Capacity <= 0 {
		return nil, fmt.Errorf("sức chứa phải lớn hơn 0")
	}
	lot, err := s.lotRepo.Create(ctx, &domain.ParkingLot{
		Location:      dto.Location,
		NumberOfSpots: dto.Capacity,
	})
	if err != nil {
		return nil, err
	}

	spots := make([]domain.ParkingSpot, 0, dto.Capacity)
	for i := 1; i <= dto.Capacity; i++ {
		spots = append(spots, domain.ParkingSpot{
			LotID:              lot.ID,
			SpotNumber:         i,
			Status:             domain.SpotAvailable,
			ReservedForFaculty: float64(i) <= float64(dto.Capacity)*0.2,
		})
	}
	if err := s.spotRepo.CreateBatch(ctx, spots); err != nil {
		return nil, fmt.Errorf("lỗi sinh chỗ đỗ cho bãi %d: %w", lot.ID, err)
	}
	return lot, nil
}

func (s *ParkingService) GetLot(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return s.lotRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetAllLots(ctx context.Context) ([]domain.ParkingLot, error) {
	return s.lotRepo.FindAll(ctx)
}

func (s *ParkingService) GetLotSpots(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return nil, err
	}
	return s.spotRepo.FindByLotID(ctx, lotID)
}

// EditCapacity tăng/giảm sức chứa của bãi. Tăng thì thêm chỗ đánh số tiếp
// theo (không dành riêng); giảm bị từ chối nếu còn chỗ nào trên ngưỡng mới
// đang có xe.
func (s *ParkingService) EditCapacity(ctx context.Context, lotID int, newCapacity int) error {
	if newCapacity <= 0 {
		return fmt.Errorf("sức chứa phải lớn hơn 0")
	}
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return err
	}

	switch {
	case newCapacity > lot.NumberOfSpots:
		spots := make([]domain.ParkingSpot, 0, newCapacity-lot.NumberOfSpots)
		for i := lot.NumberOfSpots + 1; i <= newCapacity; i++ {
			spots = append(spots, domain.ParkingSpot{
				LotID:      lotID,
				SpotNumber: i,
				Status:     domain.SpotAvailable,
			})
		}
		if err := s.spotRepo.CreateBatch(ctx, spots); err != nil {
			return fmt.Errorf("lỗi thêm chỗ đỗ: %w", err)
		}

	case newCapacity < lot.NumberOfSpots:
		occupied, err := s.spotRepo.FindOccupiedAboveNumber(ctx, lotID, newCapacity)
		if err != nil {
			return fmt.Errorf("lỗi kiểm tra chỗ đang có xe: %w", err)
		}
		if len(occupied) > 0 {
			return fmt.Errorf("không thể giảm sức chứa: chỗ #%d đang có xe", occupied[0].SpotNumber)
		}
		if err := s.spotRepo.DeleteAboveNumber(ctx, lotID, newCapacity); err != nil {
			return fmt.Errorf("lỗi xóa chỗ đỗ thừa: %w", err)
		}

	default:
		return nil
	}

	return s.lotRepo.UpdateCapacity(ctx, lotID, newCapacity)
}

// DeleteLot xóa bãi (các chỗ đỗ bị xóa theo); từ chối khi vẫn còn xe đỗ.
func (s *ParkingService) DeleteLot(ctx context.Context, lotID int) error {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return err
	}
	occupiedCount, err := s.spotRepo.CountOccupiedByLot(ctx, lotID)
	if err != nil {
		return fmt.Errorf("lỗi đếm chỗ đang có xe: %w", err)
	}
	if occupiedCount > 0 {
		return fmt.Errorf("không thể xóa bãi: vẫn còn %d xe đang đỗ", occupiedCount)
	}
	return s.lotRepo.Delete(ctx, lotID)
}

// ToggleFacultyReserved đảo cờ dành-riêng-giảng-viên của một chỗ. Bị từ
// chối khi chỗ đang có xe của sinh viên — không đẩy xe đang đỗ ra ngoài.
func (s *ParkingService) ToggleFacultyReserved(ctx context.Context, lotID int, spotNumber int) (*domain.ParkingSpot, error) {
	spot, err := s.spotRepo.FindByLotAndNumber(ctx, lotID, spotNumber)
	if err != nil {
		return nil, err
	}

	if spot.Status == domain.SpotOccupied {
		txn, err := s.txnRepo.FindOpenBySpot(ctx, lotID, spotNumber)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lỗi tìm phiên đang mở của chỗ #%d: %w", spotNumber, err)
		}
		if txn != nil {
			vehicle, err := s.vehicleRepo.FindByPlate(ctx, txn.LicensePlate)
			if err != nil {
				return nil, fmt.Errorf("lỗi tìm xe đang đỗ: %w", err)
			}
			owner, err := s.userRepo.FindByID(ctx, vehicle.UserID)
			if err != nil {
				return nil, fmt.Errorf("lỗi tìm chủ xe: %w", err)
			}
			if owner.Role == domain.RoleStudent {
				return nil, fmt.Errorf("chỗ #%d đang có xe của sinh viên, không đổi được", spotNumber)
			}
		}
	}

	// Tính giá trị mới một lần trước khi ghi — repo có thể trả về tham chiếu
	// sống vào bản ghi, đọc lại sau khi ghi sẽ thấy cờ đã đảo.
	reserved := !spot.ReservedForFaculty
	if err := s.spotRepo.SetFacultyReserved(ctx, spot.ID, reserved); err != nil {
		return nil, err
	}
	spot.ReservedForFaculty = reserved
	return spot, nil
}

// SpotDetails cho admin xem ai đang đỗ tại một chỗ cụ thể.
func (s *ParkingService) SpotDetails(ctx context.Context, lotID int, spotNumber int) (*domain.SpotOccupantDTO, error) {
	txn, err := s.txnRepo.FindOpenBySpot(ctx, lotID, spotNumber)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicleRepo.FindByPlate(ctx, txn.LicensePlate)
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm xe theo biển số %s: %w", txn.LicensePlate, err)
	}
	owner, err := s.userRepo.FindByID(ctx, vehicle.UserID)
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm chủ xe: %w", err)
	}

	return &domain.SpotOccupantDTO{
		SpotNumber: spotNumber,
		Plate:      txn.LicensePlate,
		OwnerName:  owner.Name,
		OwnerRole:  strings.ToUpper(string(owner.Role)),
		OwnerPhone: owner.Phone,
		EntryTime:  txn.EntryTime.Format("15:04:05"),
	}, nil
}
