package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mamadbah2/aviario/internal/domain/metrics"
	"github.com/mamadbah2/aviario/internal/domain/models"
)

type weeklyRow struct {
	ID                   string  `db:"id"`
	BatchID              string  `db:"batch_id"`
	WeekOfAge            int     `db:"week_of_age"`
	Revision             int     `db:"revision"`
	BirdsInWeek          int     `db:"birds_in_week"`
	MortD1               int     `db:"mort_d1"`
	MortD2               int     `db:"mort_d2"`
	MortD3               int     `db:"mort_d3"`
	MortD4               int     `db:"mort_d4"`
	MortD5               int     `db:"mort_d5"`
	MortD6               int     `db:"mort_d6"`
	MortD7               int     `db:"mort_d7"`
	WeighingDate         string  `db:"weighing_date"`
	AverageWeightGrams   float64 `db:"average_weight_grams"`
	DailyFeedIntakeGrams float64 `db:"daily_feed_intake_grams"`
	SubmittedAt          string  `db:"submitted_at"`
	SubmittedBy          string  `db:"submitted_by"`
}

// toModel rebuilds the submission. The mortality total is derived from the
// seven daily columns on every read; it is never stored.
func (r weeklyRow) toModel() models.WeeklySubmission {
	days := models.DailyMortalities{r.MortD1, r.MortD2, r.MortD3, r.MortD4, r.MortD5, r.MortD6, r.MortD7}
	submitted, _ := time.Parse(time.RFC3339Nano, r.SubmittedAt)
	return models.WeeklySubmission{
		ID:          r.ID,
		Revision:    r.Revision,
		SubmittedAt: submitted,
		SubmittedBy: r.SubmittedBy,
		Record: models.WeeklyRecord{
			BatchID:              r.BatchID,
			WeekOfAge:            r.WeekOfAge,
			BirdsInWeek:          r.BirdsInWeek,
			DailyMortalities:     days,
			MortalityTotal:       metrics.MortalityTotal(days[:]),
			WeighingDate:         parseStoredDate(r.WeighingDate),
			AverageWeightGrams:   r.AverageWeightGrams,
			DailyFeedIntakeGrams: r.DailyFeedIntakeGrams,
		},
	}
}

const weeklyColumns = `id, batch_id, week_of_age, revision, birds_in_week,
	mort_d1, mort_d2, mort_d3, mort_d4, mort_d5, mort_d6, mort_d7,
	weighing_date, average_weight_grams, daily_feed_intake_grams, submitted_at, submitted_by`

// AppendWeeklySubmission stores a new immutable revision for the record's
// (batch, week). Two writers racing for the same revision collide on the
// unique key and the loser receives ErrConflict. The batch status is read in
// the same transaction so a batch finalized concurrently rejects the write
// with ErrBatchInactive.
func (s *Store) AppendWeeklySubmission(ctx context.Context, record models.WeeklyRecord, submittedBy string) (models.WeeklySubmission, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.WeeklySubmission{}, fmt.Errorf("failed to begin weekly submission: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qStatus := `SELECT status FROM batches WHERE id = ?`
	if s.dialect == DialectPostgres {
		qStatus += ` FOR UPDATE`
	}
	var status string
	if err := tx.GetContext(ctx, &status, tx.Rebind(qStatus), record.BatchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.WeeklySubmission{}, fmt.Errorf("batch id=%s: %w", record.BatchID, ErrNotFound)
		}
		return models.WeeklySubmission{}, fmt.Errorf("failed to read status of batch %s: %w", record.BatchID, err)
	}
	if models.BatchStatus(status) != models.BatchActive {
		return models.WeeklySubmission{}, fmt.Errorf("batch id=%s status %s: %w", record.BatchID, status, ErrBatchInactive)
	}

	var latest int
	const qMax = `SELECT COALESCE(MAX(revision), 0) FROM weekly_submissions WHERE batch_id = ? AND week_of_age = ?`
	if err := tx.GetContext(ctx, &latest, tx.Rebind(qMax), record.BatchID, record.WeekOfAge); err != nil {
		return models.WeeklySubmission{}, fmt.Errorf("failed to read latest revision for batch %s week %d: %w", record.BatchID, record.WeekOfAge, err)
	}

	d := record.DailyMortalities
	row := weeklyRow{
		ID:                   s.newID(),
		BatchID:              record.BatchID,
		WeekOfAge:            record.WeekOfAge,
		Revision:             latest + 1,
		BirdsInWeek:          record.BirdsInWeek,
		MortD1:               d[0],
		MortD2:               d[1],
		MortD3:               d[2],
		MortD4:               d[3],
		MortD5:               d[4],
		MortD6:               d[5],
		MortD7:               d[6],
		WeighingDate:         record.WeighingDate.String(),
		AverageWeightGrams:   record.AverageWeightGrams,
		DailyFeedIntakeGrams: record.DailyFeedIntakeGrams,
		SubmittedAt:          s.timestamp(),
		SubmittedBy:          submittedBy,
	}

	const qInsert = `INSERT INTO weekly_submissions (` + weeklyColumns + `) VALUES (
		:id, :batch_id, :week_of_age, :revision, :birds_in_week,
		:mort_d1, :mort_d2, :mort_d3, :mort_d4, :mort_d5, :mort_d6, :mort_d7,
		:weighing_date, :average_weight_grams, :daily_feed_intake_grams, :submitted_at, :submitted_by)`
	if _, err := tx.NamedExecContext(ctx, qInsert, row); err != nil {
		if isUniqueViolation(err) {
			return models.WeeklySubmission{}, fmt.Errorf("batch %s week %d revision %d: %w", record.BatchID, record.WeekOfAge, row.Revision, ErrConflict)
		}
		return models.WeeklySubmission{}, fmt.Errorf("failed to insert weekly submission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return models.WeeklySubmission{}, fmt.Errorf("batch %s week %d: %w", record.BatchID, record.WeekOfAge, ErrConflict)
		}
		return models.WeeklySubmission{}, fmt.Errorf("failed to commit weekly submission: %w", err)
	}

	return row.toModel(), nil
}

// ListWeeklyRecords projects the submission log into the current record of
// every week of a batch: the highest revision per week, ordered by week.
func (s *Store) ListWeeklyRecords(ctx context.Context, batchID string) ([]models.WeeklyRecord, error) {
	const q = `SELECT ` + weeklyColumns + ` FROM weekly_submissions s
		WHERE s.batch_id = ?
		AND s.revision = (
			SELECT MAX(r.revision) FROM weekly_submissions r
			WHERE r.batch_id = s.batch_id AND r.week_of_age = s.week_of_age
		)
		ORDER BY s.week_of_age`

	var rows []weeklyRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), batchID); err != nil {
		return nil, fmt.Errorf("failed to list weekly records for batch %s: %w", batchID, err)
	}

	records := make([]models.WeeklyRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toModel().Record)
	}
	return records, nil
}

// ListWeeklySubmissions returns every revision submitted for one week, oldest first.
func (s *Store) ListWeeklySubmissions(ctx context.Context, batchID string, week int) ([]models.WeeklySubmission, error) {
	const q = `SELECT ` + weeklyColumns + ` FROM weekly_submissions
		WHERE batch_id = ? AND week_of_age = ?
		ORDER BY revision`

	var rows []weeklyRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), batchID, week); err != nil {
		return nil, fmt.Errorf("failed to list submissions for batch %s week %d: %w", batchID, week, err)
	}

	subs := make([]models.WeeklySubmission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toModel())
	}
	return subs, nil
}
