package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"campus_parking/internal/domain"
	"campus_parking/internal/pendingqueue"
	"campus_parking/internal/repository"
)

// UserService phục vụ trang dashboard, analytics và tùy chỉnh ưu tiên bãi.
type UserService struct {
	userRepo    repository.UserRepository
	vehicleRepo repository.VehicleRepository
	lotRepo     repository.ParkingLotRepository
	txnRepo     repository.TransactionRepository
	pending     pendingqueue.Store
}

func NewUserService(
	userRepo repository.UserRepository,
	vehicleRepo repository.VehicleRepository,
	lotRepo repository.ParkingLotRepository,
	txnRepo repository.TransactionRepository,
	pending pendingqueue.Store,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		vehicleRepo: vehicleRepo,
		lotRepo:     lotRepo,
		txnRepo:     txnRepo,
		pending:     pending,
	}
}

// Dashboard trả về xe đã duyệt, yêu cầu đang chờ, phiên đang mở (nếu có),
// 5 phiên gần nhất và danh sách bãi theo thứ tự ưu tiên.
func (s *UserService) Dashboard(ctx context.Context, userID int) (*domain.DashboardDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	vehicles, err := s.vehicleRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	plates := make([]string, len(vehicles))
	approved := make(map[string]bool, len(vehicles))
	for i, v := range vehicles {
		plates[i] = v.LicensePlate
		approved[v.LicensePlate] = true
	}

	pending, err := s.pending.List(func(v domain.PendingVehicle) bool {
		return v.UserID == userID && !approved[v.LicensePlate]
	})
	if err != nil {
		return nil, err
	}

	dto := &domain.DashboardDTO{
		User:     user,
		Vehicles: vehicles,
		Pending:  pending,
	}

	activeTxn, err := s.txnRepo.FindOpenByPlates(ctx, plates)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if activeTxn != nil {
		dto.ActiveTxn = activeTxn
		dto.CurrentLotName = "Unknown"
		if lot, err := s.lotRepo.FindByID(ctx, activeTxn.LotID); err == nil {
			dto.CurrentLotName = lot.Location
		}
	}

	if len(plates) > 0 {
		history, err := s.txnRepo.FindCompletedByPlates(ctx, plates, 5)
		if err != nil {
			return nil, err
		}
		dto.History = history
	}

	lots, err := preferenceSortedLots(ctx, s.lotRepo, user.Preferences)
	if err != nil {
		return nil, err
	}
	dto.Lots = lots
	return dto, nil
}

// UpdatePreferences lưu thứ tự ưu tiên mới dưới dạng chuỗi CSV. ID lạ hay
// trùng lặp không bị chặn ở đây — chúng bị bỏ qua lúc sắp xếp.
func (s *UserService) UpdatePreferences(ctx context.Context, userID int, order []int) error {
	if len(order) == 0 {
		return fmt.Errorf("thứ tự ưu tiên rỗng")
	}
	fields := make([]string, len(order))
	for i, id := range order {
		fields[i] = strconv.Itoa(id)
	}
	return s.userRepo.UpdatePreferences(ctx, userID, strings.Join(fields, ","))
}

// Analytics thống kê cá nhân: tổng số phiên, tổng giờ đỗ của các phiên đã
// hoàn tất, bãi hay đỗ nhất, thời lượng trung bình.
func (s *UserService) Analytics(ctx context.Context, userID int) (*domain.UserAnalyticsDTO, error) {
	vehicles, err := s.vehicleRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, nil
	}
	plates := make([]string, len(vehicles))
	for i, v := range vehicles {
		plates[i] = v.LicensePlate
	}

	sessions, err := s.txnRepo.CountByPlates(ctx, plates)
	if err != nil {
		return nil, err
	}

	completed, err := s.txnRepo.FindCompletedByPlates(ctx, plates, 0)
	if err != nil {
		return nil, err
	}
	var totalSeconds float64
	for _, txn := range completed {
		totalSeconds += txn.ExitTime.Time.Sub(txn.EntryTime).Seconds()
	}
	totalHours := round1(totalSeconds / 3600)

	favorite := "None"
	favID, err := s.txnRepo.FavoriteLotID(ctx, plates)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if err == nil {
		if lot, err := s.lotRepo.FindByID(ctx, favID); err == nil {
			favorite = lot.Location
		}
	}

	avgDuration := 0.0
	if sessions > 0 {
		avgDuration = round1(totalHours / float64(sessions))
	}

	return &domain.UserAnalyticsDTO{
		Sessions:    sessions,
		Hours:       totalHours,
		FavoriteLot: favorite,
		AvgDuration: avgDuration,
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
