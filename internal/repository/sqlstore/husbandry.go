package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mamadbah2/aviario/internal/domain/models"
)

type eggRow struct {
	ID         string `db:"id"`
	BatchID    string `db:"batch_id"`
	ProducedOn string `db:"produced_on"`
	TotalEggs  int    `db:"total_eggs"`
	BrokenEggs int    `db:"broken_eggs"`
}

func (r eggRow) toModel() models.EggProduction {
	return models.EggProduction{
		ID:         r.ID,
		BatchID:    r.BatchID,
		Date:       parseStoredDate(r.ProducedOn),
		TotalEggs:  r.TotalEggs,
		BrokenEggs: r.BrokenEggs,
	}
}

const eggColumns = `id, batch_id, produced_on, total_eggs, broken_eggs`

// AddEggProduction stores one egg collection.
func (s *Store) AddEggProduction(ctx context.Context, p models.EggProduction) (models.EggProduction, error) {
	p.ID = s.newID()
	const q = `INSERT INTO egg_production (` + eggColumns + `) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(q), p.ID, p.BatchID, p.Date.String(), p.TotalEggs, p.BrokenEggs); err != nil {
		return models.EggProduction{}, fmt.Errorf("failed to insert egg production for batch %s: %w", p.BatchID, err)
	}
	return p, nil
}

// ListRecentEggProduction returns the latest collections of a batch, newest first.
func (s *Store) ListRecentEggProduction(ctx context.Context, batchID string, limit int) ([]models.EggProduction, error) {
	q := `SELECT ` + eggColumns + ` FROM egg_production WHERE batch_id = ? ORDER BY produced_on DESC, id LIMIT ?`
	return s.selectEggs(ctx, q, batchID, limit)
}

// ListEggProductionBetween returns collections dated in [from, to), oldest first.
func (s *Store) ListEggProductionBetween(ctx context.Context, batchID string, from, to models.Date) ([]models.EggProduction, error) {
	q := `SELECT ` + eggColumns + ` FROM egg_production
		WHERE batch_id = ? AND produced_on >= ? AND produced_on < ?
		ORDER BY produced_on, id`
	return s.selectEggs(ctx, q, batchID, from.String(), to.String())
}

func (s *Store) selectEggs(ctx context.Context, q string, args ...interface{}) ([]models.EggProduction, error) {
	var rows []eggRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("failed to list egg production: %w", err)
	}
	out := make([]models.EggProduction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

type waterRow struct {
	ID            string          `db:"id"`
	BatchID       string          `db:"batch_id"`
	MeasuredOn    string          `db:"measured_on"`
	PH            float64         `db:"ph"`
	AlkalinityPPM sql.NullFloat64 `db:"alkalinity_ppm"`
}

func (r waterRow) toModel() models.WaterQuality {
	w := models.WaterQuality{
		ID:         r.ID,
		BatchID:    r.BatchID,
		MeasuredOn: parseStoredDate(r.MeasuredOn),
		PH:         r.PH,
	}
	if r.AlkalinityPPM.Valid {
		v := r.AlkalinityPPM.Float64
		w.AlkalinityPPM = &v
	}
	return w
}

// AddWaterQuality stores one water measurement.
func (s *Store) AddWaterQuality(ctx context.Context, w models.WaterQuality) (models.WaterQuality, error) {
	w.ID = s.newID()
	alkalinity := sql.NullFloat64{}
	if w.AlkalinityPPM != nil {
		alkalinity = sql.NullFloat64{Float64: *w.AlkalinityPPM, Valid: true}
	}
	const q = `INSERT INTO water_quality (id, batch_id, measured_on, ph, alkalinity_ppm) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(q), w.ID, w.BatchID, w.MeasuredOn.String(), w.PH, alkalinity); err != nil {
		return models.WaterQuality{}, fmt.Errorf("failed to insert water quality for batch %s: %w", w.BatchID, err)
	}
	return w, nil
}

// ListWaterQuality returns the measurements of a batch, newest first.
func (s *Store) ListWaterQuality(ctx context.Context, batchID string) ([]models.WaterQuality, error) {
	const q = `SELECT id, batch_id, measured_on, ph, alkalinity_ppm FROM water_quality
		WHERE batch_id = ? ORDER BY measured_on DESC, id`
	var rows []waterRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), batchID); err != nil {
		return nil, fmt.Errorf("failed to list water quality for batch %s: %w", batchID, err)
	}
	out := make([]models.WaterQuality, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

type treatmentRow struct {
	ID             string `db:"id"`
	BatchID        string `db:"batch_id"`
	Medication     string `db:"medication"`
	StartsOn       string `db:"starts_on"`
	EndsOn         string `db:"ends_on"`
	WithdrawalDays int    `db:"withdrawal_days"`
	Route          string `db:"route"`
	Reason         string `db:"reason"`
}

func (r treatmentRow) toModel() models.Treatment {
	return models.Treatment{
		ID:             r.ID,
		BatchID:        r.BatchID,
		Medication:     r.Medication,
		StartsOn:       parseStoredDate(r.StartsOn),
		EndsOn:         parseStoredDate(r.EndsOn),
		WithdrawalDays: r.WithdrawalDays,
		Route:          r.Route,
		Reason:         r.Reason,
	}
}

// AddTreatment stores one medication course.
func (s *Store) AddTreatment(ctx context.Context, t models.Treatment) (models.Treatment, error) {
	t.ID = s.newID()
	const q = `INSERT INTO treatments (id, batch_id, medication, starts_on, ends_on, withdrawal_days, route, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.db.Rebind(q),
		t.ID, t.BatchID, t.Medication, t.StartsOn.String(), t.EndsOn.String(), t.WithdrawalDays, t.Route, t.Reason)
	if err != nil {
		return models.Treatment{}, fmt.Errorf("failed to insert treatment for batch %s: %w", t.BatchID, err)
	}
	return t, nil
}

// ListTreatments returns the treatments of a batch, most recent start first.
func (s *Store) ListTreatments(ctx context.Context, batchID string) ([]models.Treatment, error) {
	const q = `SELECT id, batch_id, medication, starts_on, ends_on, withdrawal_days, route, reason
		FROM treatments WHERE batch_id = ? ORDER BY starts_on DESC, id`
	var rows []treatmentRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), batchID); err != nil {
		return nil, fmt.Errorf("failed to list treatments for batch %s: %w", batchID, err)
	}
	out := make([]models.Treatment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
