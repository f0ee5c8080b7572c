// Package husbandry records the day-to-day flock observations: egg
// collections, drinking water quality and medication courses.
package husbandry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/service/validation"
)

const (
	recentEggDays   = 7
	closedEggMonths = 3
)

// Store is the persistence surface for husbandry records.
type Store interface {
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	AddEggProduction(ctx context.Context, p models.EggProduction) (models.EggProduction, error)
	ListRecentEggProduction(ctx context.Context, batchID string, limit int) ([]models.EggProduction, error)
	ListEggProductionBetween(ctx context.Context, batchID string, from, to models.Date) ([]models.EggProduction, error)
	AddWaterQuality(ctx context.Context, w models.WaterQuality) (models.WaterQuality, error)
	ListWaterQuality(ctx context.Context, batchID string) ([]models.WaterQuality, error)
	AddTreatment(ctx context.Context, t models.Treatment) (models.Treatment, error)
	ListTreatments(ctx context.Context, batchID string) ([]models.Treatment, error)
}

// EggRequest is one egg collection.
type EggRequest struct {
	Date       string `json:"date" validate:"required"`
	TotalEggs  int    `json:"total_eggs" validate:"gte=0"`
	BrokenEggs int    `json:"broken_eggs" validate:"gte=0,ltefield=TotalEggs"`
}

// WaterRequest is one water measurement.
type WaterRequest struct {
	MeasuredOn    string   `json:"measured_on" validate:"required"`
	PH            *float64 `json:"ph" validate:"required,gte=0,lte=14"`
	AlkalinityPPM *float64 `json:"alkalinity_ppm" validate:"omitempty,gte=0"`
}

// TreatmentRequest is one medication course.
type TreatmentRequest struct {
	Medication     string `json:"medication" validate:"required,max=120"`
	StartsOn       string `json:"starts_on" validate:"required"`
	EndsOn         string `json:"ends_on" validate:"required"`
	WithdrawalDays int    `json:"withdrawal_days" validate:"gte=0"`
	Route          string `json:"route" validate:"max=60"`
	Reason         string `json:"reason" validate:"max=200"`
}

// Service implements husbandry records.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the husbandry service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) requireBatch(ctx context.Context, batchID string) error {
	if _, err := s.store.GetBatch(ctx, batchID); err != nil {
		return fmt.Errorf("get batch %s: %w", batchID, err)
	}
	return nil
}

// AddEggs records an egg collection.
func (s *Service) AddEggs(ctx context.Context, batchID string, req EggRequest) (models.EggProduction, error) {
	if err := validation.Struct(req); err != nil {
		return models.EggProduction{}, err
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return models.EggProduction{}, validation.Invalid("date must be YYYY-MM-DD")
	}
	if err := s.requireBatch(ctx, batchID); err != nil {
		return models.EggProduction{}, err
	}

	return s.store.AddEggProduction(ctx, models.EggProduction{
		BatchID:    batchID,
		Date:       date,
		TotalEggs:  req.TotalEggs,
		BrokenEggs: req.BrokenEggs,
	})
}

// RecentEggs returns the last seven collections, newest first.
func (s *Service) RecentEggs(ctx context.Context, batchID string) ([]models.EggProduction, error) {
	if err := s.requireBatch(ctx, batchID); err != nil {
		return nil, err
	}
	return s.store.ListRecentEggProduction(ctx, batchID, recentEggDays)
}

// MonthlyEggs totals egg production over the last three closed calendar
// months, newest first. The current month is excluded and months without
// collections are omitted.
func (s *Service) MonthlyEggs(ctx context.Context, batchID string) ([]models.MonthlyEggSummary, error) {
	if err := s.requireBatch(ctx, batchID); err != nil {
		return nil, err
	}

	now := s.now()
	currentMonth := models.NewDate(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))
	from := models.Date{Time: currentMonth.AddDate(0, -closedEggMonths, 0)}

	rows, err := s.store.ListEggProductionBetween(ctx, batchID, from, currentMonth)
	if err != nil {
		return nil, fmt.Errorf("load egg production for batch %s: %w", batchID, err)
	}

	return summarizeMonths(rows), nil
}

func summarizeMonths(rows []models.EggProduction) []models.MonthlyEggSummary {
	var out []models.MonthlyEggSummary
	index := make(map[[2]int]int)
	for _, r := range rows {
		key := [2]int{r.Date.Year(), int(r.Date.Month())}
		i, ok := index[key]
		if !ok {
			out = append(out, models.MonthlyEggSummary{Year: key[0], Month: r.Date.Month()})
			i = len(out) - 1
			index[key] = i
		}
		out[i].TotalEggs += r.TotalEggs
		out[i].BrokenEggs += r.BrokenEggs
	}

	// rows are oldest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// AddWater records a water quality measurement.
func (s *Service) AddWater(ctx context.Context, batchID string, req WaterRequest) (models.WaterQuality, error) {
	if err := validation.Struct(req); err != nil {
		return models.WaterQuality{}, err
	}
	measuredOn, err := models.ParseDate(req.MeasuredOn)
	if err != nil {
		return models.WaterQuality{}, validation.Invalid("measured_on must be YYYY-MM-DD")
	}
	if err := s.requireBatch(ctx, batchID); err != nil {
		return models.WaterQuality{}, err
	}

	return s.store.AddWaterQuality(ctx, models.WaterQuality{
		BatchID:       batchID,
		MeasuredOn:    measuredOn,
		PH:            *req.PH,
		AlkalinityPPM: req.AlkalinityPPM,
	})
}

// Water lists water measurements, newest first.
func (s *Service) Water(ctx context.Context, batchID string) ([]models.WaterQuality, error) {
	if err := s.requireBatch(ctx, batchID); err != nil {
		return nil, err
	}
	return s.store.ListWaterQuality(ctx, batchID)
}

// AddTreatment records a medication course.
func (s *Service) AddTreatment(ctx context.Context, batchID string, req TreatmentRequest) (models.Treatment, error) {
	if err := validation.Struct(req); err != nil {
		return models.Treatment{}, err
	}
	startsOn, err := models.ParseDate(req.StartsOn)
	if err != nil {
		return models.Treatment{}, validation.Invalid("starts_on must be YYYY-MM-DD")
	}
	endsOn, err := models.ParseDate(req.EndsOn)
	if err != nil {
		return models.Treatment{}, validation.Invalid("ends_on must be YYYY-MM-DD")
	}
	if endsOn.Before(startsOn.Time) {
		return models.Treatment{}, validation.Invalid("ends_on must not be before starts_on")
	}
	if err := s.requireBatch(ctx, batchID); err != nil {
		return models.Treatment{}, err
	}

	treatment, err := s.store.AddTreatment(ctx, models.Treatment{
		BatchID:        batchID,
		Medication:     strings.TrimSpace(req.Medication),
		StartsOn:       startsOn,
		EndsOn:         endsOn,
		WithdrawalDays: req.WithdrawalDays,
		Route:          strings.TrimSpace(req.Route),
		Reason:         strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return models.Treatment{}, err
	}

	s.logger.Info("treatment recorded",
		zap.String("batch_id", batchID),
		zap.String("medication", treatment.Medication),
		zap.String("withdrawal_ends_on", treatment.WithdrawalEndsOn().String()))
	return treatment, nil
}

// Treatments lists medication courses, most recent first.
func (s *Service) Treatments(ctx context.Context, batchID string) ([]models.Treatment, error) {
	if err := s.requireBatch(ctx, batchID); err != nil {
		return nil, err
	}
	return s.store.ListTreatments(ctx, batchID)
}
