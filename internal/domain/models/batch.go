package models

import "time"

// BatchStatus enumerates the lifecycle of a batch.
type BatchStatus string

const (
	BatchActive    BatchStatus = "active"
	BatchFinalized BatchStatus = "finalized"
)

// Valid reports whether s is a known status.
func (s BatchStatus) Valid() bool {
	return s == BatchActive || s == BatchFinalized
}

// Batch is a cohort of birds housed together ("lote").
type Batch struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	Breed       Breed       `json:"breed"`
	House       string      `json:"house"`
	HousedAt    Date        `json:"housed_at"`
	HousedBirds int         `json:"housed_birds"`
	Status      BatchStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// IsActive reports whether the batch still accepts new records.
func (b Batch) IsActive() bool {
	return b.Status == BatchActive
}

// WeeklyFormDefaults pre-fills the weekly data entry form for a batch.
type WeeklyFormDefaults struct {
	BatchID      string `json:"batch_id"`
	NextWeek     int    `json:"next_week"`
	CurrentBirds int    `json:"current_birds"`
}
