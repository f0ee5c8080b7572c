// Package batches manages the batch lifecycle and the weekly submissions log.
package batches

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/metrics"
	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/repository/sqlstore"
	"github.com/mamadbah2/aviario/internal/service/validation"
)

// ErrBatchFinalized is returned when a write targets a finalized batch.
var ErrBatchFinalized = errors.New("batch is finalized")

// Store is the persistence surface used by the batch service.
type Store interface {
	CreateBatch(ctx context.Context, batch models.Batch) (models.Batch, error)
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	GetBatchByCode(ctx context.Context, code string) (models.Batch, error)
	ListBatches(ctx context.Context, status models.BatchStatus) ([]models.Batch, error)
	FinalizeBatch(ctx context.Context, id string) error
	AppendWeeklySubmission(ctx context.Context, record models.WeeklyRecord, submittedBy string) (models.WeeklySubmission, error)
	ListWeeklyRecords(ctx context.Context, batchID string) ([]models.WeeklyRecord, error)
	ListWeeklySubmissions(ctx context.Context, batchID string, week int) ([]models.WeeklySubmission, error)
}

// CreateBatchRequest is the payload accepted when housing a new batch.
type CreateBatchRequest struct {
	Code        string `json:"code" validate:"required,max=40"`
	Breed       string `json:"breed" validate:"max=80"`
	House       string `json:"house" validate:"max=80"`
	HousedAt    string `json:"housed_at" validate:"required"`
	HousedBirds int    `json:"housed_birds" validate:"gt=0"`
}

// WeeklySubmissionRequest is one weekly data entry form. Unset daily
// mortalities are sent as null and count as zero.
type WeeklySubmissionRequest struct {
	WeekOfAge            int     `json:"week_of_age" validate:"gte=1"`
	BirdsInWeek          int     `json:"birds_in_week" validate:"gte=0"`
	DailyMortalities     []*int  `json:"daily_mortalities" validate:"max=7,dive,omitempty,gte=0"`
	WeighingDate         string  `json:"weighing_date" validate:"required"`
	AverageWeightGrams   float64 `json:"average_weight_grams" validate:"gte=0"`
	DailyFeedIntakeGrams float64 `json:"daily_feed_intake_grams" validate:"gte=0"`
	SubmittedBy          string  `json:"submitted_by" validate:"max=80"`
}

// Service implements batch operations.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires a batch service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Create houses a new batch.
func (s *Service) Create(ctx context.Context, req CreateBatchRequest) (models.Batch, error) {
	if err := validation.Struct(req); err != nil {
		return models.Batch{}, err
	}

	housedAt, err := models.ParseDate(req.HousedAt)
	if err != nil {
		return models.Batch{}, validation.Invalid("housed_at must be YYYY-MM-DD")
	}

	batch, err := s.store.CreateBatch(ctx, models.Batch{
		Code:        strings.TrimSpace(req.Code),
		Breed:       models.NormalizeBreed(req.Breed),
		House:       strings.TrimSpace(req.House),
		HousedAt:    housedAt,
		HousedBirds: req.HousedBirds,
	})
	if err != nil {
		return models.Batch{}, fmt.Errorf("create batch %s: %w", req.Code, err)
	}

	s.logger.Info("batch created", zap.String("batch_id", batch.ID), zap.String("code", batch.Code), zap.String("breed", string(batch.Breed)))
	return batch, nil
}

// Get returns one batch by id.
func (s *Service) Get(ctx context.Context, id string) (models.Batch, error) {
	batch, err := s.store.GetBatch(ctx, id)
	if err != nil {
		return models.Batch{}, fmt.Errorf("get batch %s: %w", id, err)
	}
	return batch, nil
}

// GetByCode returns one batch by its human code.
func (s *Service) GetByCode(ctx context.Context, code string) (models.Batch, error) {
	batch, err := s.store.GetBatchByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return models.Batch{}, fmt.Errorf("get batch %s: %w", code, err)
	}
	return batch, nil
}

// List returns batches filtered by status; an empty status lists all.
func (s *Service) List(ctx context.Context, status string) ([]models.Batch, error) {
	st := models.BatchStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, validation.Invalid(fmt.Sprintf("unknown status %q", status))
	}
	return s.store.ListBatches(ctx, st)
}

// Finalize closes a batch. Finalizing an already finalized batch is a no-op.
func (s *Service) Finalize(ctx context.Context, id string) (models.Batch, error) {
	batch, err := s.Get(ctx, id)
	if err != nil {
		return models.Batch{}, err
	}
	if !batch.IsActive() {
		return batch, nil
	}

	if err := s.store.FinalizeBatch(ctx, id); err != nil {
		return models.Batch{}, fmt.Errorf("finalize batch %s: %w", id, err)
	}
	batch.Status = models.BatchFinalized

	s.logger.Info("batch finalized", zap.String("batch_id", id), zap.String("code", batch.Code))
	return batch, nil
}

// SubmitWeek appends a new revision of the weekly record for a batch.
func (s *Service) SubmitWeek(ctx context.Context, batchID string, req WeeklySubmissionRequest) (models.WeeklySubmission, error) {
	if err := validation.Struct(req); err != nil {
		return models.WeeklySubmission{}, err
	}

	weighingDate, err := models.ParseDate(req.WeighingDate)
	if err != nil {
		return models.WeeklySubmission{}, validation.Invalid("weighing_date must be YYYY-MM-DD")
	}

	batch, err := s.Get(ctx, batchID)
	if err != nil {
		return models.WeeklySubmission{}, err
	}
	if !batch.IsActive() {
		return models.WeeklySubmission{}, fmt.Errorf("submit week %d for batch %s: %w", req.WeekOfAge, batch.Code, ErrBatchFinalized)
	}

	record := models.WeeklyRecord{
		BatchID:              batch.ID,
		WeekOfAge:            req.WeekOfAge,
		BirdsInWeek:          req.BirdsInWeek,
		DailyMortalities:     models.DailyMortalitiesFrom(req.DailyMortalities),
		WeighingDate:         weighingDate,
		AverageWeightGrams:   req.AverageWeightGrams,
		DailyFeedIntakeGrams: req.DailyFeedIntakeGrams,
	}

	submission, err := s.store.AppendWeeklySubmission(ctx, record, strings.TrimSpace(req.SubmittedBy))
	if errors.Is(err, sqlstore.ErrBatchInactive) {
		return models.WeeklySubmission{}, fmt.Errorf("submit week %d for batch %s: %w", req.WeekOfAge, batch.Code, ErrBatchFinalized)
	}
	if err != nil {
		return models.WeeklySubmission{}, fmt.Errorf("submit week %d for batch %s: %w", req.WeekOfAge, batch.Code, err)
	}

	s.logger.Info("weekly record submitted",
		zap.String("batch_id", batch.ID),
		zap.Int("week", submission.Record.WeekOfAge),
		zap.Int("revision", submission.Revision),
		zap.Int("mortality_total", submission.Record.MortalityTotal))
	return submission, nil
}

// Weeks returns the current weekly record of every week, ordered by week.
func (s *Service) Weeks(ctx context.Context, batchID string) ([]models.WeeklyRecord, error) {
	if _, err := s.Get(ctx, batchID); err != nil {
		return nil, err
	}
	return s.store.ListWeeklyRecords(ctx, batchID)
}

// WeekHistory returns every submitted revision of one week, oldest first.
func (s *Service) WeekHistory(ctx context.Context, batchID string, week int) ([]models.WeeklySubmission, error) {
	if week < 1 {
		return nil, validation.Invalid("week must be >= 1")
	}
	if _, err := s.Get(ctx, batchID); err != nil {
		return nil, err
	}
	return s.store.ListWeeklySubmissions(ctx, batchID, week)
}

// FormDefaults pre-fills the next weekly entry: the week after the latest
// recorded one and the birds still alive.
func (s *Service) FormDefaults(ctx context.Context, batchID string) (models.WeeklyFormDefaults, error) {
	batch, err := s.Get(ctx, batchID)
	if err != nil {
		return models.WeeklyFormDefaults{}, err
	}

	records, err := s.store.ListWeeklyRecords(ctx, batchID)
	if err != nil {
		return models.WeeklyFormDefaults{}, fmt.Errorf("load weeks for batch %s: %w", batchID, err)
	}

	next := 1
	for _, r := range records {
		if r.WeekOfAge >= next {
			next = r.WeekOfAge + 1
		}
	}

	current := batch.HousedBirds - metrics.CumulativeDeaths(records)
	if current < 0 {
		current = 0
	}

	return models.WeeklyFormDefaults{BatchID: batch.ID, NextWeek: next, CurrentBirds: current}, nil
}
