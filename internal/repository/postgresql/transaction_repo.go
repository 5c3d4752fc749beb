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
	"gopkg.in/guregu/null.v4"
)

type pgTransactionRepository struct {
	db *sql.DB
}

func NewPgTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &pgTransactionRepository{db: db}
}

func (r *pgTransactionRepository) Create(ctx context.Context, txn *domain.ParkingTransaction) (*domain.ParkingTransaction, error) {
	query := `INSERT INTO parking_transactions (license_plate, lot_id, spot_number, entry_time)
	           VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		txn.LicensePlate, txn.LotID, txn.SpotNumber, txn.EntryTime,
	).Scan(&txn.ID)
	if err != nil {
		return nil, fmt.Errorf("TransactionRepository.Create: %w", err)
	}
	return txn, nil
}

func (r *pgTransactionRepository) FindOpenByPlate(ctx context.Context, plate string) (*domain.ParkingTransaction, error) {
	query := `SELECT id, license_plate, lot_id, spot_number, entry_time, exit_time
	           FROM parking_transactions WHERE license_plate = $1 AND exit_time IS NULL`
	return r.findOne(ctx, query, plate)
}

func (r *pgTransactionRepository) FindOpenByPlates(ctx context.Context, plates []string) (*domain.ParkingTransaction, error) {
	if len(plates) == 0 {
		return nil, repository.ErrNotFound
	}
	query := `SELECT id, license_plate, lot_id, spot_number, entry_time, exit_time
	           FROM parking_transactions WHERE license_plate = ANY($1) AND exit_time IS NULL LIMIT 1`
	return r.findOne(ctx, query, pq.Array(plates))
}

func (r *pgTransactionRepository) FindOpenBySpot(ctx context.Context, lotID int, spotNumber int) (*domain.ParkingTransaction, error) {
	query := `SELECT id, license_plate, lot_id, spot_number, entry_time, exit_time
	           FROM parking_transactions WHERE lot_id = $1 AND spot_number = $2 AND exit_time IS NULL`
	return r.findOne(ctx, query, lotID, spotNumber)
}

func (r *pgTransactionRepository) findOne(ctx context.Context, query string, args ...interface{}) (*domain.ParkingTransaction, error) {
	txn := &domain.ParkingTransaction{}
	var exitTime sql.NullTime
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&txn.ID, &txn.LicensePlate, &txn.LotID, &txn.SpotNumber, &txn.EntryTime, &exitTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("TransactionRepository.findOne: %w", err)
	}
	if exitTime.Valid {
		txn.ExitTime = null.TimeFrom(exitTime.Time.In(time.UTC))
	}
	txn.EntryTime = txn.EntryTime.In(time.UTC)
	return txn, nil
}

// Close chỉ đặt exit_time — bản ghi giao dịch không bao giờ bị xóa.
func (r *pgTransactionRepository) Close(ctx context.Context, id int, exitTime time.Time) error {
	query := `UPDATE parking_transactions SET exit_time = $1 WHERE id = $2 AND exit_time IS NULL`
	result, err := r.db.ExecContext(ctx, query, exitTime, id)
	if err != nil {
		return fmt.Errorf("TransactionRepository.Close: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("TransactionRepository.Close (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNoOpenTransaction
	}
	return nil
}

func (r *pgTransactionRepository) FindCompletedByPlates(ctx context.Context, plates []string, limit int) ([]domain.ParkingTransaction, error) {
	if len(plates) == 0 {
		return nil, nil
	}
	query := `SELECT id, license_plate, lot_id, spot_number, entry_time, exit_time
	           FROM parking_transactions
	           WHERE license_plate = ANY($1) AND exit_time IS NOT NULL
	           ORDER BY entry_time DESC`
	args := []interface{}{pq.Array(plates)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("TransactionRepository.FindCompletedByPlates: %w", err)
	}
	defer rows.Close()

	var txns []domain.ParkingTransaction
	for rows.Next() {
		var txn domain.ParkingTransaction
		var exitTime sql.NullTime
		if err := rows.Scan(&txn.ID, &txn.LicensePlate, &txn.LotID, &txn.SpotNumber, &txn.EntryTime, &exitTime); err != nil {
			return nil, fmt.Errorf("TransactionRepository.FindCompletedByPlates (scanning row): %w", err)
		}
		if exitTime.Valid {
			txn.ExitTime = null.TimeFrom(exitTime.Time.In(time.UTC))
		}
		txn.EntryTime = txn.EntryTime.In(time.UTC)
		txns = append(txns, txn)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("TransactionRepository.FindCompletedByPlates (rows error): %w", err)
	}
	return txns, nil
}

func (r *pgTransactionRepository) CountByPlates(ctx context.Context, plates []string) (int, error) {
	if len(plates) == 0 {
		return 0, nil
	}
	var count int
	query := `SELECT COUNT(*) FROM parking_transactions WHERE license_plate = ANY($1)`
	if err := r.db.QueryRowContext(ctx, query, pq.Array(plates)).Scan(&count); err != nil {
		return 0, fmt.Errorf("TransactionRepository.CountByPlates: %w", err)
	}
	return count, nil
}

func (r *pgTransactionRepository) FavoriteLotID(ctx context.Context, plates []string) (int, error) {
	if len(plates) == 0 {
		return 0, repository.ErrNotFound
	}
	var lotID int
	query := `SELECT lot_id FROM parking_transactions
	           WHERE license_plate = ANY($1)
	           GROUP BY lot_id ORDER BY COUNT(lot_id) DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, pq.Array(plates)).Scan(&lotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("TransactionRepository.FavoriteLotID: %w", err)
	}
	return lotID, nil
}
