package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus_parking/internal/domain"
	"campus_parking/internal/repository"

	"github.com/lib/pq"
)

type pgVehicleRepository struct {
	db *sql.DB
}

func NewPgVehicleRepository(db *sql.DB) repository.VehicleRepository {
	return &pgVehicleRepository{db: db}
}

func (r *pgVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `INSERT INTO vehicles (license_plate, model, dl_number, user_id, created_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
	           RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		vehicle.LicensePlate, vehicle.Model,
		sql.NullString{String: vehicle.DLNumber, Valid: vehicle.DLNumber != ""},
		vehicle.UserID,
	).Scan(&vehicle.ID, &vehicle.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "vehicles_license_plate_key" {
				return nil, fmt.Errorf("%w: biển số '%s' đã được đăng ký", repository.ErrDuplicateEntry, vehicle.LicensePlate)
			}
		}
		return nil, fmt.Errorf("VehicleRepository.Create: %w", err)
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByPlate(ctx context.Context, plate string) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{}
	var dlNumber sql.NullString
	query := `SELECT id, license_plate, model, dl_number, user_id, created_at FROM vehicles WHERE license_plate = $1`
	err := r.db.QueryRowContext(ctx, query, plate).Scan(
		&vehicle.ID, &vehicle.LicensePlate, &vehicle.Model, &dlNumber, &vehicle.UserID, &vehicle.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VehicleRepository.FindByPlate: %w", err)
	}
	if dlNumber.Valid {
		vehicle.DLNumber = dlNumber.String
	}
	vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
	return vehicle, nil
}

func (r *pgVehicleRepository) FindByUserID(ctx context.Context, userID int) ([]domain.Vehicle, error) {
	query := `SELECT id, license_plate, model, dl_number, user_id, created_at FROM vehicles WHERE user_id = $1 ORDER BY id`
	return r.findMany(ctx, query, userID)
}

// FindAll trả về toàn bộ danh bạ xe — bộ so khớp biển số quét trên danh sách
// này theo đúng thứ tự trả về (argmax ổn định).
func (r *pgVehicleRepository) FindAll(ctx context.Context) ([]domain.Vehicle, error) {
	query := `SELECT id, license_plate, model, dl_number, user_id, created_at FROM vehicles ORDER BY id`
	return r.findMany(ctx, query)
}

func (r *pgVehicleRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]domain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("VehicleRepository.findMany: %w", err)
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var vehicle domain.Vehicle
		var dlNumber sql.NullString
		if err := rows.Scan(&vehicle.ID, &vehicle.LicensePlate, &vehicle.Model, &dlNumber, &vehicle.UserID, &vehicle.CreatedAt); err != nil {
			return nil, fmt.Errorf("VehicleRepository.findMany (scanning row): %w", err)
		}
		if dlNumber.Valid {
			vehicle.DLNumber = dlNumber.String
		}
		vehicle.CreatedAt = vehicle.CreatedAt.In(time.UTC)
		vehicles = append(vehicles, vehicle)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("VehicleRepository.findMany (rows error): %w", err)
	}
	return vehicles, nil
}

func (r *pgVehicleRepository) Delete(ctx context.Context, plate string, userID int) error {
	query := `DELETE FROM vehicles WHERE license_plate = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, plate, userID)
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("VehicleRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
