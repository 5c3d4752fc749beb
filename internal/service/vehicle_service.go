package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"campus_parking/internal/domain"
	"campus_parking/internal/pendingqueue"
	"campus_parking/internal/repository"
)

var (
	platePattern = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z]{1,2}\d{4}$`)
	dlPattern    = regexp.MustCompile(`^[A-Z]{2}\d{13}$`)
)

var ErrVehicleExists = errors.New("xe đã được đăng ký")
var ErrInvalidPlate = errors.New("biển số không đúng định dạng (ví dụ: KA01AB1234)")
var ErrInvalidDL = errors.New("số giấy phép lái xe phải đủ 15 ký tự (ví dụ: KA0120220001234)")

// VehicleService quản lý vòng đời đăng ký xe: người dùng gửi yêu cầu vào
// hàng đợi JSON, admin duyệt thì xe mới vào bảng vehicles.
type VehicleService struct {
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
	pending     pendingqueue.Store
}

func NewVehicleService(vehicleRepo repository.VehicleRepository, userRepo repository.UserRepository, pending pendingqueue.Store) *VehicleService {
	return &VehicleService{vehicleRepo: vehicleRepo, userRepo: userRepo, pending: pending}
}

// RegisterVehicle chuẩn hóa + kiểm tra định dạng rồi xếp yêu cầu vào hàng
// đợi chờ duyệt.
func (s *VehicleService) RegisterVehicle(ctx context.Context, userID int, dto domain.RegisterVehicleDTO) (*domain.PendingVehicle, error) {
	plate := sanitizePlate(dto.LicensePlate)
	if !platePattern.MatchString(plate) {
		return nil, ErrInvalidPlate
	}
	dlNumber := sanitizePlate(dto.DLNumber)
	if !dlPattern.MatchString(dlNumber) {
		return nil, ErrInvalidDL
	}

	existing, err := s.vehicleRepo.FindByPlate(ctx, plate)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lỗi kiểm tra biển số: %w", err)
	}
	if existing != nil {
		return nil, ErrVehicleExists
	}

	queued, err := s.pending.List(func(v domain.PendingVehicle) bool { return v.LicensePlate == plate })
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc hàng đợi: %w", err)
	}
	if len(queued) > 0 {
		return nil, ErrVehicleExists
	}

	model := dto.Model
	if model == "" {
		model = "Unknown"
	}
	record := domain.PendingVehicle{
		ID:           uuid.NewString(),
		UserID:       userID,
		LicensePlate: plate,
		Model:        model,
		DLNumber:     dlNumber,
		Status:       "pending",
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.pending.Enqueue(record); err != nil {
		return nil, fmt.Errorf("lỗi xếp yêu cầu vào hàng đợi: %w", err)
	}
	return &record, nil
}

func (s *VehicleService) MyVehicles(ctx context.Context, userID int) ([]domain.Vehicle, error) {
	return s.vehicleRepo.FindByUserID(ctx, userID)
}

// MyPending trả về các yêu cầu chờ duyệt của một người dùng, bỏ qua yêu
// cầu có biển số đã vào bảng vehicles.
func (s *VehicleService) MyPending(ctx context.Context, userID int) ([]domain.PendingVehicle, error) {
	vehicles, err := s.vehicleRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	approved := make(map[string]bool, len(vehicles))
	for _, v := range vehicles {
		approved[v.LicensePlate] = true
	}
	return s.pending.List(func(v domain.PendingVehicle) bool {
		return v.UserID == userID && !approved[v.LicensePlate]
	})
}

// DeleteVehicle gỡ xe đã duyệt khỏi DB, hoặc nếu không có thì xóa yêu cầu
// đang chờ của chính người dùng đó.
func (s *VehicleService) DeleteVehicle(ctx context.Context, userID int, plate string) error {
	plate = sanitizePlate(plate)
	err := s.vehicleRepo.Delete(ctx, plate, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	removed, err := s.pending.Remove(func(v domain.PendingVehicle) bool {
		return v.LicensePlate == plate && v.UserID == userID
	})
	if err != nil {
		return fmt.Errorf("lỗi xóa yêu cầu trong hàng đợi: %w", err)
	}
	if removed == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListPendingApprovals trả về hàng đợi kèm thông tin chủ xe cho trang
// duyệt của admin. Bản ghi có user_id không còn tồn tại bị bỏ qua.
func (s *VehicleService) ListPendingApprovals(ctx context.Context) ([]domain.PendingVehicle, error) {
	records, err := s.pending.List(nil)
	if err != nil {
		return nil, err
	}

	enriched := make([]domain.PendingVehicle, 0, len(records))
	for _, record := range records {
		owner, err := s.userRepo.FindByID(ctx, record.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Printf("Bỏ qua yêu cầu %s: user %d không tồn tại", record.LicensePlate, record.UserID)
				continue
			}
			return nil, err
		}
		record.UserName = owner.Name
		record.UserDept = owner.Department
		record.UserUSN = owner.USN
		record.UserEmail = owner.Email
		enriched = append(enriched, record)
	}
	return enriched, nil
}

// Approve chuyển một yêu cầu từ hàng đợi vào bảng vehicles.
func (s *VehicleService) Approve(ctx context.Context, plate string) (*domain.Vehicle, error) {
	plate = sanitizePlate(plate)
	records, err := s.pending.List(func(v domain.PendingVehicle) bool { return v.LicensePlate == plate })
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, repository.ErrNotFound
	}
	record := records[0]

	vehicle, err := s.vehicleRepo.Create(ctx, &domain.Vehicle{
		LicensePlate: record.LicensePlate,
		Model:        record.Model,
		DLNumber:     record.DLNumber,
		UserID:       record.UserID,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.pending.Remove(func(v domain.PendingVehicle) bool { return v.LicensePlate == plate }); err != nil {
		// Xe đã vào DB, chỉ log — duyệt lại sẽ báo trùng
		log.Printf("Lỗi gỡ yêu cầu %s khỏi hàng đợi sau khi duyệt: %v", plate, err)
	}
	return vehicle, nil
}

// Reject gỡ yêu cầu khỏi hàng đợi.
func (s *VehicleService) Reject(ctx context.Context, plate string) error {
	plate = sanitizePlate(plate)
	removed, err := s.pending.Remove(func(v domain.PendingVehicle) bool { return v.LicensePlate == plate })
	if err != nil {
		return err
	}
	if removed == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// sanitizePlate: viết hoa, bỏ khoảng trắng và gạch ngang.
func sanitizePlate(raw string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	return strings.ReplaceAll(cleaned, "-", "")
}
