// Package targets maintains the breed performance standards that batch
// indicators are compared against.
package targets

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/service/validation"
)

// DefaultSheetRange is the spreadsheet range read by ImportSheet:
// breed, week, weight, daily feed, cumulative feed, cumulative mortality %.
const DefaultSheetRange = "Targets!A:F"

// Store is the persistence surface for target rows.
type Store interface {
	UpsertTarget(ctx context.Context, target models.TargetRecord) (models.TargetRecord, error)
	UpsertTargets(ctx context.Context, targets []models.TargetRecord) (int, error)
	ListTargets(ctx context.Context, breed models.Breed) ([]models.TargetRecord, error)
	DeleteTarget(ctx context.Context, id string) error
	ListBreeds(ctx context.Context) ([]models.Breed, error)
}

// SheetReader reads a rectangular range of spreadsheet cells.
type SheetReader interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// UpsertRequest creates or replaces the target of one (breed, week).
type UpsertRequest struct {
	Breed                  string  `json:"breed" yaml:"breed" validate:"required,max=80"`
	WeekOfAge              int     `json:"week_of_age" yaml:"week" validate:"gte=1"`
	WeightGrams            float64 `json:"weight_grams" yaml:"weight_grams" validate:"gte=0"`
	DailyFeedGrams         float64 `json:"daily_feed_grams" yaml:"daily_feed_grams" validate:"gte=0"`
	CumulativeFeedGrams    float64 `json:"cumulative_feed_grams" yaml:"cumulative_feed_grams" validate:"gte=0"`
	CumulativeMortalityPct float64 `json:"cumulative_mortality_pct" yaml:"cumulative_mortality_pct" validate:"gte=0,lte=100"`
}

func (r UpsertRequest) toModel() (models.TargetRecord, error) {
	if err := validation.Struct(r); err != nil {
		return models.TargetRecord{}, err
	}
	target := models.TargetRecord{
		Breed:                  models.NormalizeBreed(r.Breed),
		WeekOfAge:              r.WeekOfAge,
		WeightGrams:            r.WeightGrams,
		DailyFeedGrams:         r.DailyFeedGrams,
		CumulativeFeedGrams:    r.CumulativeFeedGrams,
		CumulativeMortalityPct: r.CumulativeMortalityPct,
	}
	if target.Breed.IsZero() {
		return models.TargetRecord{}, validation.Invalid("breed must not be blank")
	}
	return target, nil
}

type seedFile struct {
	Targets []UpsertRequest `yaml:"targets"`
}

// Service implements target table operations.
type Service struct {
	store      Store
	sheets     SheetReader
	sheetRange string
	logger     *zap.Logger
}

// NewService wires the target service. sheets may be nil when the spreadsheet
// import is not configured.
func NewService(store Store, sheets SheetReader, sheetRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sheetRange == "" {
		sheetRange = DefaultSheetRange
	}
	return &Service{store: store, sheets: sheets, sheetRange: sheetRange, logger: logger}
}

// Upsert stores the target for (breed, week), replacing any previous values.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (models.TargetRecord, error) {
	target, err := req.toModel()
	if err != nil {
		return models.TargetRecord{}, err
	}

	saved, err := s.store.UpsertTarget(ctx, target)
	if err != nil {
		return models.TargetRecord{}, fmt.Errorf("upsert target %s week %d: %w", target.Breed, target.WeekOfAge, err)
	}
	return saved, nil
}

// List returns the targets of one breed ordered by week, or every target when
// breed is blank.
func (s *Service) List(ctx context.Context, breed string) ([]models.TargetRecord, error) {
	return s.store.ListTargets(ctx, models.NormalizeBreed(breed))
}

// Delete removes one target row by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTarget(ctx, id); err != nil {
		return fmt.Errorf("delete target %s: %w", id, err)
	}
	return nil
}

// Breeds lists the distinct breeds that have targets.
func (s *Service) Breeds(ctx context.Context) ([]models.Breed, error) {
	return s.store.ListBreeds(ctx)
}

// ImportSheet upserts every valid row of the configured spreadsheet range.
// Header and malformed rows are skipped.
func (s *Service) ImportSheet(ctx context.Context) (int, error) {
	if s.sheets == nil {
		return 0, fmt.Errorf("import targets: sheets %w", models.ErrDisabled)
	}

	rows, err := s.sheets.ReadRange(ctx, s.sheetRange)
	if err != nil {
		return 0, fmt.Errorf("load targets range: %w", err)
	}

	targets := make([]models.TargetRecord, 0, len(rows))
	for i, row := range rows {
		target, err := parseTargetRow(row)
		if err != nil {
			s.logger.Debug("skip target row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		targets = append(targets, target)
	}

	n, err := s.store.UpsertTargets(ctx, targets)
	if err != nil {
		return 0, fmt.Errorf("import targets: %w", err)
	}

	s.logger.Info("targets imported from sheet", zap.String("range", s.sheetRange), zap.Int("rows", len(rows)), zap.Int("imported", n))
	return n, nil
}

// LoadFile upserts the targets listed in a YAML seed file.
func (s *Service) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read targets file %s: %w", path, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parse targets file %s: %w", path, err)
	}

	targets := make([]models.TargetRecord, 0, len(seed.Targets))
	for i, req := range seed.Targets {
		target, err := req.toModel()
		if err != nil {
			return 0, fmt.Errorf("targets file %s entry %d: %w", path, i+1, err)
		}
		targets = append(targets, target)
	}

	n, err := s.store.UpsertTargets(ctx, targets)
	if err != nil {
		return 0, fmt.Errorf("load targets file %s: %w", path, err)
	}

	s.logger.Info("targets loaded from file", zap.String("path", path), zap.Int("imported", n))
	return n, nil
}

func parseTargetRow(row []interface{}) (models.TargetRecord, error) {
	if len(row) < 6 {
		return models.TargetRecord{}, fmt.Errorf("expected 6 columns, got %d", len(row))
	}

	breed := models.NormalizeBreed(fmt.Sprint(row[0]))
	if breed.IsZero() {
		return models.TargetRecord{}, fmt.Errorf("empty breed")
	}

	week, err := parseInt(row[1])
	if err != nil {
		return models.TargetRecord{}, fmt.Errorf("week: %w", err)
	}
	if week < 1 {
		return models.TargetRecord{}, fmt.Errorf("week %d out of range", week)
	}

	values := make([]float64, 4)
	for i := range values {
		v, err := parseFloat(row[i+2])
		if err != nil {
			return models.TargetRecord{}, fmt.Errorf("column %d: %w", i+3, err)
		}
		if v < 0 {
			return models.TargetRecord{}, fmt.Errorf("column %d is negative", i+3)
		}
		values[i] = v
	}

	return models.TargetRecord{
		Breed:                  breed,
		WeekOfAge:              week,
		WeightGrams:            values[0],
		DailyFeedGrams:         values[1],
		CumulativeFeedGrams:    values[2],
		CumulativeMortalityPct: values[3],
	}, nil
}

func parseInt(value interface{}) (int, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.Atoi(str)
}

// parseFloat accepts both "0.7" and the pt-BR "0,7" formatted cell values.
func parseFloat(value interface{}) (float64, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(strings.ReplaceAll(str, ",", "."), 64)
}
