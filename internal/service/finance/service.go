// Package finance records batch costs and revenues.
package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/service/validation"
)

// Store is the persistence surface for ledger entries.
type Store interface {
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	AddFinanceEntry(ctx context.Context, entry models.FinanceEntry) (models.FinanceEntry, error)
	ListFinanceEntries(ctx context.Context, batchID string, kind models.EntryKind) ([]models.FinanceEntry, error)
	FinanceTotals(ctx context.Context, batchID string, since models.Date) (costs, revenues decimal.Decimal, err error)
}

// EntryRequest is one cost or revenue line. Amount is a decimal string such
// as "1250.50" so no precision is lost in transit.
type EntryRequest struct {
	Date        string `json:"date" validate:"required"`
	Category    string `json:"category" validate:"max=60"`
	Description string `json:"description" validate:"max=200"`
	Amount      string `json:"amount" validate:"required"`
}

// Service implements the batch ledger.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires the finance service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// AddCost records an expense for a batch.
func (s *Service) AddCost(ctx context.Context, batchID string, req EntryRequest) (models.FinanceEntry, error) {
	return s.add(ctx, batchID, models.EntryCost, req)
}

// AddRevenue records an income for a batch.
func (s *Service) AddRevenue(ctx context.Context, batchID string, req EntryRequest) (models.FinanceEntry, error) {
	return s.add(ctx, batchID, models.EntryRevenue, req)
}

func (s *Service) add(ctx context.Context, batchID string, kind models.EntryKind, req EntryRequest) (models.FinanceEntry, error) {
	if err := validation.Struct(req); err != nil {
		return models.FinanceEntry{}, err
	}

	date, err := models.ParseDate(req.Date)
	if err != nil {
		return models.FinanceEntry{}, validation.Invalid("date must be YYYY-MM-DD")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return models.FinanceEntry{}, validation.Invalid("amount must be a decimal number")
	}
	if !amount.IsPositive() {
		return models.FinanceEntry{}, validation.Invalid("amount must be greater than zero")
	}

	if _, err := s.store.GetBatch(ctx, batchID); err != nil {
		return models.FinanceEntry{}, fmt.Errorf("get batch %s: %w", batchID, err)
	}

	entry, err := s.store.AddFinanceEntry(ctx, models.FinanceEntry{
		BatchID:     batchID,
		Kind:        kind,
		Date:        date,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Amount:      amount.Round(2),
	})
	if err != nil {
		return models.FinanceEntry{}, fmt.Errorf("add %s for batch %s: %w", kind, batchID, err)
	}

	s.logger.Debug("finance entry recorded", zap.String("batch_id", batchID), zap.String("kind", string(kind)), zap.String("amount", entry.Amount.StringFixed(2)))
	return entry, nil
}

// Entries lists the ledger of a batch; kind may be empty for both.
func (s *Service) Entries(ctx context.Context, batchID string, kind models.EntryKind) ([]models.FinanceEntry, error) {
	if kind != "" && kind != models.EntryCost && kind != models.EntryRevenue {
		return nil, validation.Invalid(fmt.Sprintf("unknown entry kind %q", kind))
	}
	if _, err := s.store.GetBatch(ctx, batchID); err != nil {
		return nil, fmt.Errorf("get batch %s: %w", batchID, err)
	}
	return s.store.ListFinanceEntries(ctx, batchID, kind)
}

// Summary totals costs and revenues and returns the balance (revenues - costs).
func (s *Service) Summary(ctx context.Context, batchID string) (models.FinanceSummary, error) {
	if _, err := s.store.GetBatch(ctx, batchID); err != nil {
		return models.FinanceSummary{}, fmt.Errorf("get batch %s: %w", batchID, err)
	}

	costs, revenues, err := s.store.FinanceTotals(ctx, batchID, models.Date{})
	if err != nil {
		return models.FinanceSummary{}, err
	}

	return models.FinanceSummary{
		BatchID:       batchID,
		TotalCosts:    costs,
		TotalRevenues: revenues,
		Balance:       revenues.Sub(costs),
	}, nil
}
