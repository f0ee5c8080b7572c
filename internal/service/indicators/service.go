// Package indicators loads a batch's weekly records and breed targets and
// runs the metrics engine over them.
package indicators

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/metrics"
	"github.com/mamadbah2/aviario/internal/domain/models"
)

// Store is the read surface needed to compute indicators.
type Store interface {
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	ListWeeklyRecords(ctx context.Context, batchID string) ([]models.WeeklyRecord, error)
	ListTargets(ctx context.Context, breed models.Breed) ([]models.TargetRecord, error)
}

// Recorder counts engine runs.
type Recorder interface {
	IndicatorsComputed(status models.TargetStatus)
}

// BatchIndicators pairs a batch with its computed series.
type BatchIndicators struct {
	Batch      models.Batch       `json:"batch" bson:"batch"`
	Indicators metrics.Indicators `json:"indicators" bson:"indicators"`
}

// Service computes indicators on demand.
type Service struct {
	store    Store
	recorder Recorder
	logger   *zap.Logger
}

// NewService wires the indicators service. recorder may be nil.
func NewService(store Store, recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, recorder: recorder, logger: logger}
}

// ForBatch computes the indicators of one batch by id.
func (s *Service) ForBatch(ctx context.Context, batchID string) (BatchIndicators, error) {
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return BatchIndicators{}, fmt.Errorf("get batch %s: %w", batchID, err)
	}
	return s.Compute(ctx, batch)
}

// Compute runs the engine for an already loaded batch.
func (s *Service) Compute(ctx context.Context, batch models.Batch) (BatchIndicators, error) {
	records, err := s.store.ListWeeklyRecords(ctx, batch.ID)
	if err != nil {
		return BatchIndicators{}, fmt.Errorf("load weeks for batch %s: %w", batch.ID, err)
	}

	var targets []models.TargetRecord
	if !batch.Breed.IsZero() {
		targets, err = s.store.ListTargets(ctx, batch.Breed)
		if err != nil {
			return BatchIndicators{}, fmt.Errorf("load targets for breed %s: %w", batch.Breed, err)
		}
	}

	ind := metrics.Compute(metrics.Input{
		Records:     records,
		HousedBirds: batch.HousedBirds,
		Breed:       batch.Breed,
		Targets:     targets,
	})

	if s.recorder != nil {
		s.recorder.IndicatorsComputed(ind.TargetStatus)
	}
	s.logger.Debug("indicators computed",
		zap.String("batch_id", batch.ID),
		zap.Int("weeks", len(records)),
		zap.String("target_status", string(ind.TargetStatus)))

	return BatchIndicators{Batch: batch, Indicators: ind}, nil
}
