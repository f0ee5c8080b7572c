package sqlstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/aviario/internal/domain/models"
)

type financeRow struct {
	ID          string          `db:"id"`
	BatchID     string          `db:"batch_id"`
	Kind        string          `db:"kind"`
	EntryDate   string          `db:"entry_date"`
	Category    string          `db:"category"`
	Description string          `db:"description"`
	Amount      decimal.Decimal `db:"amount"`
}

func (r financeRow) toModel() models.FinanceEntry {
	return models.FinanceEntry{
		ID:          r.ID,
		BatchID:     r.BatchID,
		Kind:        models.EntryKind(r.Kind),
		Date:        parseStoredDate(r.EntryDate),
		Category:    r.Category,
		Description: r.Description,
		Amount:      r.Amount,
	}
}

// AddFinanceEntry stores a cost or revenue line.
func (s *Store) AddFinanceEntry(ctx context.Context, entry models.FinanceEntry) (models.FinanceEntry, error) {
	entry.ID = s.newID()
	const q = `INSERT INTO finance_entries (id, batch_id, kind, entry_date, category, description, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.db.Rebind(q),
		entry.ID, entry.BatchID, string(entry.Kind), entry.Date.String(), entry.Category, entry.Description, entry.Amount.StringFixed(2))
	if err != nil {
		return models.FinanceEntry{}, fmt.Errorf("failed to insert %s entry for batch %s: %w", entry.Kind, entry.BatchID, err)
	}
	return entry, nil
}

// ListFinanceEntries returns the entries of a batch, newest first. An empty
// kind lists both costs and revenues.
func (s *Store) ListFinanceEntries(ctx context.Context, batchID string, kind models.EntryKind) ([]models.FinanceEntry, error) {
	q := `SELECT id, batch_id, kind, entry_date, category, description, amount FROM finance_entries WHERE batch_id = ?`
	args := []interface{}{batchID}
	if kind != "" {
		q += ` AND kind = ?`
		args = append(args, string(kind))
	}
	q += ` ORDER BY entry_date DESC, id`

	var rows []financeRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("failed to list finance entries for batch %s: %w", batchID, err)
	}

	entries := make([]models.FinanceEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toModel())
	}
	return entries, nil
}

// FinanceTotals sums costs and revenues of a batch. A zero since includes
// every entry; otherwise only entries dated on or after since are counted.
// Amounts are added with decimal arithmetic rather than SQL SUM so that both
// engines return exact totals.
func (s *Store) FinanceTotals(ctx context.Context, batchID string, since models.Date) (costs, revenues decimal.Decimal, err error) {
	q := `SELECT kind, amount FROM finance_entries WHERE batch_id = ?`
	args := []interface{}{batchID}
	if !since.IsZero() {
		q += ` AND entry_date >= ?`
		args = append(args, since.String())
	}

	var rows []struct {
		Kind   string          `db:"kind"`
		Amount decimal.Decimal `db:"amount"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to total finance entries for batch %s: %w", batchID, err)
	}

	costs, revenues = decimal.Zero, decimal.Zero
	for _, r := range rows {
		switch models.EntryKind(r.Kind) {
		case models.EntryCost:
			costs = costs.Add(r.Amount)
		case models.EntryRevenue:
			revenues = revenues.Add(r.Amount)
		}
	}
	return costs, revenues, nil
}
