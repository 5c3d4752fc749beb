package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"
)

type pgParkingLotRepository struct {
	db *sql.DB
}

func NewPgParkingLotRepository(db *sql.DB) repository.ParkingLotRepository {
	return &pgParkingLotRepository{db: db}
}

func (r *pgParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `INSERT INTO parking_lots (location, number_of_spots) VALUES ($1, $2) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, lot.Location, lot.NumberOfSpots).Scan(&lot.ID)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Create: %w", err)
	}
	return lot, nil
}

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	query := `SELECT id, location, number_of_spots FROM parking_lots WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&lot.ID, &lot.Location, &lot.NumberOfSpots)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	return lot, nil
}

func (r *pgParkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	query := `SELECT id, location, number_of_spots FROM parking_lots ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var lots []domain.ParkingLot
	for rows.Next() {
		var lot domain.ParkingLot
		if err := rows.Scan(&lot.ID, &lot.Location, &lot.NumberOfSpots); err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.FindAll (scanning row): %w", err)
		}
		lots = append(lots, lot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll (rows error): %w", err)
	}
	return lots, nil
}

func (r *pgParkingLotRepository) UpdateCapacity(ctx context.Context, id int, capacity int) error {
	query := `UPDATE parking_lots SET number_of_spots = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, capacity, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.UpdateCapacity: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.UpdateCapacity (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete xóa bãi; schema đặt ON DELETE CASCADE nên các spot bị xóa theo.
func (r *pgParkingLotRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM parking_lots WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
