package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EggProduction captures one egg collection for a batch.
type EggProduction struct {
	ID         string `json:"id"`
	BatchID    string `json:"batch_id"`
	Date       Date   `json:"date"`
	TotalEggs  int    `json:"total_eggs"`
	BrokenEggs int    `json:"broken_eggs"`
}

// MonthlyEggSummary aggregates egg production over one calendar month.
type MonthlyEggSummary struct {
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
	TotalEggs  int        `json:"total_eggs"`
	BrokenEggs int        `json:"broken_eggs"`
}

// WaterQuality captures one drinking water measurement.
type WaterQuality struct {
	ID            string   `json:"id"`
	BatchID       string   `json:"batch_id"`
	MeasuredOn    Date     `json:"measured_on"`
	PH            float64  `json:"ph"`
	AlkalinityPPM *float64 `json:"alkalinity_ppm,omitempty"`
}

// Treatment captures a medication course applied to a batch.
type Treatment struct {
	ID             string `json:"id"`
	BatchID        string `json:"batch_id"`
	Medication     string `json:"medication"`
	StartsOn       Date   `json:"starts_on"`
	EndsOn         Date   `json:"ends_on"`
	WithdrawalDays int    `json:"withdrawal_days"`
	Route          string `json:"route"`
	Reason         string `json:"reason"`
}

// WithdrawalEndsOn is the first day after the withdrawal period.
func (t Treatment) WithdrawalEndsOn() Date {
	return t.EndsOn.AddDays(t.WithdrawalDays)
}

// MarshalJSON adds the derived withdrawal_ends_on field.
func (t Treatment) MarshalJSON() ([]byte, error) {
	type plain Treatment
	return json.Marshal(struct {
		plain
		WithdrawalEndsOn Date `json:"withdrawal_ends_on"`
	}{plain: plain(t), WithdrawalEndsOn: t.WithdrawalEndsOn()})
}

// EntryKind distinguishes cost and revenue ledger entries.
type EntryKind string

const (
	EntryCost    EntryKind = "cost"
	EntryRevenue EntryKind = "revenue"
)

// FinanceEntry is one cost or revenue line attached to a batch.
type FinanceEntry struct {
	ID          string          `json:"id"`
	BatchID     string          `json:"batch_id"`
	Kind        EntryKind       `json:"kind"`
	Date        Date            `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// FinanceSummary totals the ledger of a batch.
type FinanceSummary struct {
	BatchID       string          `json:"batch_id"`
	TotalCosts    decimal.Decimal `json:"total_costs"`
	TotalRevenues decimal.Decimal `json:"total_revenues"`
	Balance       decimal.Decimal `json:"balance"`
}
