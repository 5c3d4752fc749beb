// Package pendingqueue là hàng đợi xe chờ admin duyệt, lưu file JSON.
// Dữ liệu nhỏ (vài chục bản ghi) nên đọc-ghi cả file mỗi thao tác là đủ;
// mutex bảo vệ chống lost-update khi hai request cùng ghi.
package pendingqueue

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"campus_parking/internal/domain"
)

// Store là năng lực trừu tượng mà các service dùng: thêm, liệt kê theo
// filter, gỡ theo điều kiện.
type Store interface {
	Enqueue(record domain.PendingVehicle) error
	List(filter func(domain.PendingVehicle) bool) ([]domain.PendingVehicle, error)
	Remove(matching func(domain.PendingVehicle) bool) (int, error)
}

type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Enqueue(record domain.PendingVehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records = append(records, record)
	return s.save(records)
}

func (s *FileStore) List(filter func(domain.PendingVehicle) bool) ([]domain.PendingVehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return records, nil
	}
	var result []domain.PendingVehicle
	for _, record := range records {
		if filter(record) {
			result = append(result, record)
		}
	}
	return result, nil
}

// Remove gỡ mọi bản ghi thỏa điều kiện, trả về số bản ghi đã gỡ.
func (s *FileStore) Remove(matching func(domain.PendingVehicle) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return 0, err
	}
	var kept []domain.PendingVehicle
	removed := 0
	for _, record := range records {
		if matching(record) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save(kept)
}

// load: file chưa tồn tại hoặc JSON hỏng => coi như hàng đợi rỗng,
// giống hành vi cũ của hệ thống.
func (s *FileStore) load() ([]domain.PendingVehicle, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lỗi đọc hàng đợi '%s': %w", s.path, err)
	}
	var records []domain.PendingVehicle
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil
	}
	return records, nil
}

func (s *FileStore) save(records []domain.PendingVehicle) error {
	if records == nil {
		records = []domain.PendingVehicle{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("lỗi marshal hàng đợi: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("lỗi ghi hàng đợi '%s': %w", s.path, err)
	}
	return nil
}
