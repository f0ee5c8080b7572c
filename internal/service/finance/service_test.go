package finance

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/repository/sqlstore"
	"github.com/mamadbah2/aviario/internal/service/validation"
)

func setup(t *testing.T) (*Service, models.Batch) {
	t.Helper()
	ctx := context.Background()
	store, err := sqlstore.Open(ctx, sqlstore.DialectSQLite, filepath.Join(t.TempDir(), "finance.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	housedAt, _ := models.ParseDate("2026-01-05")
	batch, err := store.CreateBatch(ctx, models.Batch{Code: "L-01", HousedAt: housedAt, HousedBirds: 1000})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	return NewService(store, nil), batch
}

func TestSummary_Balance(t *testing.T) {
	ctx := context.Background()
	svc, batch := setup(t)

	for _, amount := range []string{"1200.10", "300.20"} {
		if _, err := svc.AddCost(ctx, batch.ID, EntryRequest{Date: "2026-01-10", Category: "feed", Amount: amount}); err != nil {
			t.Fatalf("AddCost(%s): %v", amount, err)
		}
	}
	if _, err := svc.AddRevenue(ctx, batch.ID, EntryRequest{Date: "2026-02-20", Category: "sale", Amount: "2000"}); err != nil {
		t.Fatalf("AddRevenue: %v", err)
	}

	sum, err := svc.Summary(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !sum.TotalCosts.Equal(decimal.RequireFromString("1500.30")) {
		t.Errorf("costs = %s, want 1500.30", sum.TotalCosts)
	}
	if !sum.Balance.Equal(decimal.RequireFromString("499.70")) {
		t.Errorf("balance = %s, want 499.70", sum.Balance)
	}

	revenues, err := svc.Entries(ctx, batch.ID, models.EntryRevenue)
	if err != nil || len(revenues) != 1 {
		t.Errorf("revenues = %+v, %v", revenues, err)
	}
}

func TestSummary_EmptyLedger(t *testing.T) {
	svc, batch := setup(t)
	sum, err := svc.Summary(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !sum.Balance.IsZero() || !sum.TotalCosts.IsZero() {
		t.Errorf("summary = %+v, want zeros", sum)
	}
}

func TestAdd_Validation(t *testing.T) {
	ctx := context.Background()
	svc, batch := setup(t)

	tests := []struct {
		name string
		req  EntryRequest
	}{
		{"zero amount", EntryRequest{Date: "2026-01-10", Amount: "0"}},
		{"negative amount", EntryRequest{Date: "2026-01-10", Amount: "-5"}},
		{"not a number", EntryRequest{Date: "2026-01-10", Amount: "abc"}},
		{"bad date", EntryRequest{Date: "10/01/2026", Amount: "5"}},
		{"missing amount", EntryRequest{Date: "2026-01-10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddCost(ctx, batch.ID, tt.req); !errors.Is(err, validation.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}

	if _, err := svc.AddCost(ctx, "missing", EntryRequest{Date: "2026-01-10", Amount: "5"}); !errors.Is(err, sqlstore.ErrNotFound) {
		t.Errorf("unknown batch err = %v, want ErrNotFound", err)
	}
}
