package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mamadbah2/aviario/internal/domain/models"
)

type batchRow struct {
	ID          string `db:"id"`
	Code        string `db:"code"`
	Breed       string `db:"breed"`
	House       string `db:"house"`
	HousedAt    string `db:"housed_at"`
	HousedBirds int    `db:"housed_birds"`
	Status      string `db:"status"`
	CreatedAt   string `db:"created_at"`
}

func (r batchRow) toModel() models.Batch {
	created, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	return models.Batch{
		ID:          r.ID,
		Code:        r.Code,
		Breed:       models.Breed(r.Breed),
		House:       r.House,
		HousedAt:    parseStoredDate(r.HousedAt),
		HousedBirds: r.HousedBirds,
		Status:      models.BatchStatus(r.Status),
		CreatedAt:   created,
	}
}

const batchColumns = `id, code, breed, house, housed_at, housed_birds, status, created_at`

// CreateBatch inserts a new active batch and returns it with its generated id.
func (s *Store) CreateBatch(ctx context.Context, batch models.Batch) (models.Batch, error) {
	batch.ID = s.newID()
	batch.Status = models.BatchActive
	createdAt := s.timestamp()

	const q = `INSERT INTO batches (` + batchColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.db.Rebind(q),
		batch.ID, batch.Code, string(batch.Breed), batch.House, batch.HousedAt.String(),
		batch.HousedBirds, string(batch.Status), createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Batch{}, fmt.Errorf("batch code %s already exists: %w", batch.Code, ErrConflict)
		}
		return models.Batch{}, fmt.Errorf("failed to insert batch %s: %w", batch.Code, err)
	}

	batch.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return batch, nil
}

// GetBatch loads a batch by id.
func (s *Store) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	return s.getBatchBy(ctx, "id", id)
}

// GetBatchByCode loads a batch by its human identifier.
func (s *Store) GetBatchByCode(ctx context.Context, code string) (models.Batch, error) {
	return s.getBatchBy(ctx, "code", code)
}

func (s *Store) getBatchBy(ctx context.Context, column, value string) (models.Batch, error) {
	var row batchRow
	q := `SELECT ` + batchColumns + ` FROM batches WHERE ` + column + ` = ?`
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(q), value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Batch{}, fmt.Errorf("batch %s=%s: %w", column, value, ErrNotFound)
		}
		return models.Batch{}, fmt.Errorf("failed to get batch %s=%s: %w", column, value, err)
	}
	return row.toModel(), nil
}

// ListBatches returns batches newest housing first. An empty status lists all.
func (s *Store) ListBatches(ctx context.Context, status models.BatchStatus) ([]models.Batch, error) {
	q := `SELECT ` + batchColumns + ` FROM batches`
	var args []interface{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY housed_at DESC, code`

	var rows []batchRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	batches := make([]models.Batch, 0, len(rows))
	for _, r := range rows {
		batches = append(batches, r.toModel())
	}
	return batches, nil
}

// FinalizeBatch marks a batch as finalized. Finalizing twice is a no-op.
func (s *Store) FinalizeBatch(ctx context.Context, id string) error {
	const q = `UPDATE batches SET status = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), string(models.BatchFinalized), id)
	if err != nil {
		return fmt.Errorf("failed to finalize batch %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finalize batch %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("batch id=%s: %w", id, ErrNotFound)
	}
	return nil
}
