package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"

	"github.com/lib/pq"
)

type pgParkingSpotRepository struct {
	db *sql.DB
}

func NewPgParkingSpotRepository(db *sql.DB) repository.ParkingSpotRepository {
	return &pgParkingSpotRepository{db: db}
}

func (r *pgParkingSpotRepository) CreateBatch(ctx context.Context, spots []domain.ParkingSpot) error {
	if len(spots) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.CreateBatch (begin tx): %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO parking_spots (lot_id, spot_number, status, reserved_for_faculty) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.CreateBatch (prepare): %w", err)
	}
	defer stmt.Close()

	for _, spot := range spots {
		if _, err := stmt.ExecContext(ctx, spot.LotID, spot.SpotNumber, spot.Status, spot.ReservedForFaculty); err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "parking_spots_lot_id_spot_number_key" {
					return fmt.Errorf("%w: chỗ đỗ #%d đã tồn tại trong bãi %d", repository.ErrDuplicateEntry, spot.SpotNumber, spot.LotID)
				}
			}
			return fmt.Errorf("ParkingSpotRepository.CreateBatch (insert spot #%d): %w", spot.SpotNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ParkingSpotRepository.CreateBatch (commit): %w", err)
	}
	return nil
}

func (r *pgParkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	query := `SELECT id, lot_id, spot_number, status, reserved_for_faculty
	           FROM parking_spots WHERE lot_id = $1 ORDER BY spot_number`
	return r.findMany(ctx, query, lotID)
}

func (r *pgParkingSpotRepository) FindByLotAndNumber(ctx context.Context, lotID int, spotNumber int) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	query := `SELECT id, lot_id, spot_number, status, reserved_for_faculty
	           FROM parking_spots WHERE lot_id = $1 AND spot_number = $2`
	err := r.db.QueryRowContext(ctx, query, lotID, spotNumber).Scan(
		&spot.ID, &spot.LotID, &spot.SpotNumber, &spot.Status, &spot.ReservedForFaculty,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotAndNumber: %w", err)
	}
	return spot, nil
}

// FindFirstAvailable lấy chỗ trống có số nhỏ nhất trong bãi. Với người không
// phải giảng viên, các chỗ reserved_for_faculty bị loại khỏi kết quả.
func (r *pgParkingSpotRepository) FindFirstAvailable(ctx context.Context, lotID int, excludeFacultyReserved bool) (*domain.ParkingSpot, error) {
	query := `SELECT id, lot_id, spot_number, status, reserved_for_faculty
	           FROM parking_spots
	           WHERE lot_id = $1 AND status = $2`
	if excludeFacultyReserved {
		query += ` AND reserved_for_faculty = FALSE`
	}
	query += ` ORDER BY spot_number ASC LIMIT 1`

	spot := &domain.ParkingSpot{}
	err := r.db.QueryRowContext(ctx, query, lotID, domain.SpotAvailable).Scan(
		&spot.ID, &spot.LotID, &spot.SpotNumber, &spot.Status, &spot.ReservedForFaculty,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound // Bãi hết chỗ phù hợp
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindFirstAvailable: %w", err)
	}
	return spot, nil
}

func (r *pgParkingSpotRepository) UpdateStatus(ctx context.Context, id int, status domain.SpotStatus) error {
	query := `UPDATE parking_spots SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.UpdateStatus (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpotRepository) SetFacultyReserved(ctx context.Context, id int, reserved bool) error {
	query := `UPDATE parking_spots SET reserved_for_faculty = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, reserved, id)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.SetFacultyReserved: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.SetFacultyReserved (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpotRepository) CountOccupiedByLot(ctx context.Context, lotID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM parking_spots WHERE lot_id = $1 AND status = $2`
	err := r.db.QueryRowContext(ctx, query, lotID, domain.SpotOccupied).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.CountOccupiedByLot: %w", err)
	}
	return count, nil
}

func (r *pgParkingSpotRepository) DeleteAboveNumber(ctx context.Context, lotID int, spotNumber int) error {
	query := `DELETE FROM parking_spots WHERE lot_id = $1 AND spot_number > $2`
	if _, err := r.db.ExecContext(ctx, query, lotID, spotNumber); err != nil {
		return fmt.Errorf("ParkingSpotRepository.DeleteAboveNumber: %w", err)
	}
	return nil
}

func (r *pgParkingSpotRepository) FindOccupiedAboveNumber(ctx context.Context, lotID int, spotNumber int) ([]domain.ParkingSpot, error) {
	query := `SELECT id, lot_id, spot_number, status, reserved_for_faculty
	           FROM parking_spots
	           WHERE lot_id = $1 AND spot_number > $2 AND status = $3 ORDER BY spot_number`
	return r.findMany(ctx, query, lotID, spotNumber, domain.SpotOccupied)
}

func (r *pgParkingSpotRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]domain.ParkingSpot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.findMany: %w", err)
	}
	defer rows.Close()

	var spots []domain.ParkingSpot
	for rows.Next() {
		var spot domain.ParkingSpot
		if err := rows.Scan(&spot.ID, &spot.LotID, &spot.SpotNumber, &spot.Status, &spot.ReservedForFaculty); err != nil {
			return nil, fmt.Errorf("ParkingSpotRepository.findMany (scanning row): %w", err)
		}
		spots = append(spots, spot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.findMany (rows error): %w", err)
	}
	return spots, nil
}
