package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mamadbah2/aviario/internal/domain/models"
)

type targetRow struct {
	ID                     string  `db:"id"`
	Breed                  string  `db:"breed"`
	WeekOfAge              int     `db:"week_of_age"`
	WeightGrams            float64 `db:"weight_grams"`
	DailyFeedGrams         float64 `db:"daily_feed_grams"`
	CumulativeFeedGrams    float64 `db:"cumulative_feed_grams"`
	CumulativeMortalityPct float64 `db:"cumulative_mortality_pct"`
}

func (r targetRow) toModel() models.TargetRecord {
	return models.TargetRecord{
		ID:                     r.ID,
		Breed:                  models.Breed(r.Breed),
		WeekOfAge:              r.WeekOfAge,
		WeightGrams:            r.WeightGrams,
		DailyFeedGrams:         r.DailyFeedGrams,
		CumulativeFeedGrams:    r.CumulativeFeedGrams,
		CumulativeMortalityPct: r.CumulativeMortalityPct,
	}
}

const targetColumns = `id, breed, week_of_age, weight_grams, daily_feed_grams, cumulative_feed_grams, cumulative_mortality_pct`

// UpsertTarget inserts or replaces the target of a (breed, week) and returns
// the stored row. An existing row keeps its id.
func (s *Store) UpsertTarget(ctx context.Context, target models.TargetRecord) (models.TargetRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.TargetRecord{}, fmt.Errorf("failed to begin target upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stored, err := s.upsertTargetInTx(ctx, tx, target)
	if err != nil {
		return models.TargetRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.TargetRecord{}, fmt.Errorf("failed to commit target upsert: %w", err)
	}
	return stored, nil
}

// UpsertTargets applies several upserts atomically and returns how many rows were written.
func (s *Store) UpsertTargets(ctx context.Context, targets []models.TargetRecord) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin target import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, t := range targets {
		if _, err := s.upsertTargetInTx(ctx, tx, t); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit target import: %w", err)
	}
	return len(targets), nil
}

func (s *Store) upsertTargetInTx(ctx context.Context, tx *sqlx.Tx, target models.TargetRecord) (models.TargetRecord, error) {
	const q = `
		INSERT INTO breed_targets (` + targetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (breed, week_of_age) DO UPDATE SET
			weight_grams = excluded.weight_grams,
			daily_feed_grams = excluded.daily_feed_grams,
			cumulative_feed_grams = excluded.cumulative_feed_grams,
			cumulative_mortality_pct = excluded.cumulative_mortality_pct`
	_, err := tx.ExecContext(ctx, tx.Rebind(q),
		s.newID(), string(target.Breed), target.WeekOfAge, target.WeightGrams,
		target.DailyFeedGrams, target.CumulativeFeedGrams, target.CumulativeMortalityPct)
	if err != nil {
		return models.TargetRecord{}, fmt.Errorf("failed to upsert target %s week %d: %w", target.Breed, target.WeekOfAge, err)
	}

	var row targetRow
	const qGet = `SELECT ` + targetColumns + ` FROM breed_targets WHERE breed = ? AND week_of_age = ?`
	if err := tx.GetContext(ctx, &row, tx.Rebind(qGet), string(target.Breed), target.WeekOfAge); err != nil {
		return models.TargetRecord{}, fmt.Errorf("failed to reload target %s week %d: %w", target.Breed, target.WeekOfAge, err)
	}
	return row.toModel(), nil
}

// ListTargets returns target rows ordered by breed and week. An empty breed lists all.
func (s *Store) ListTargets(ctx context.Context, breed models.Breed) ([]models.TargetRecord, error) {
	q := `SELECT ` + targetColumns + ` FROM breed_targets`
	var args []interface{}
	if !breed.IsZero() {
		q += ` WHERE breed = ?`
		args = append(args, string(breed))
	}
	q += ` ORDER BY breed, week_of_age`

	var rows []targetRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	targets := make([]models.TargetRecord, 0, len(rows))
	for _, r := range rows {
		targets = append(targets, r.toModel())
	}
	return targets, nil
}

// DeleteTarget removes one target row.
func (s *Store) DeleteTarget(ctx context.Context, id string) error {
	const q = `DELETE FROM breed_targets WHERE id = ?`
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), id)
	if err != nil {
		return fmt.Errorf("failed to delete target %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("target id=%s: %w", id, ErrNotFound)
	}
	return nil
}

// ListBreeds returns the distinct breeds having targets.
func (s *Store) ListBreeds(ctx context.Context) ([]models.Breed, error) {
	var names []string
	const q = `SELECT DISTINCT breed FROM breed_targets ORDER BY breed`
	if err := s.db.SelectContext(ctx, &names, q); err != nil {
		return nil, fmt.Errorf("failed to list breeds: %w", err)
	}

	breeds := make([]models.Breed, 0, len(names))
	for _, n := range names {
		breeds = append(breeds, models.Breed(n))
	}
	return breeds, nil
}
