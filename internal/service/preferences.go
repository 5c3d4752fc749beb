package service

import (
	"context"
	"strconv"
	"strings"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
)

// preferenceSortedLots trả về toàn bộ bãi đỗ, xếp theo chuỗi ưu tiên CSV
// "3,1,2" của người dùng: các id trong chuỗi đứng trước theo đúng thứ tự
// (id lạ hoặc trùng bị bỏ qua), các bãi còn lại nối sau theo thứ tự gốc.
func preferenceSortedLots(ctx context.Context, lotRepo repository.ParkingLotRepository, preferences string) ([]domain.ParkingLot, error) {
	lots, err := lotRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(preferences) == "" {
		return lots, nil
	}

	byID := make(map[int]domain.ParkingLot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}

	sorted := make([]domain.ParkingLot, 0, len(lots))
	taken := make(map[int]bool, len(lots))
	for _, field := range strings.Split(preferences, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			continue
		}
		if lot, ok := byID[id]; ok && !taken[id] {
			sorted = append(sorted, lot)
			taken[id] = true
		}
	}
	for _, lot := range lots {
		if !taken[lot.ID] {
			sorted = append(sorted, lot)
		}
	}
	return sorted, nil
}

// normalizeManual: chuỗi nhập tay tại console chỉ viết hoa + bỏ khoảng
// trắng hai đầu, không đụng vào phần còn lại.
func normalizeManual(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}
