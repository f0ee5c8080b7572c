package models

import "time"

// DaysPerWeek is the number of daily mortality entries captured per weekly record.
const DaysPerWeek = 7

// DailyMortalities holds deaths for day 1..7 of a week of age.
type DailyMortalities [DaysPerWeek]int

// DailyMortalitiesFrom converts form values, where unset days are nil, into a
// fixed array. Unset days count as zero. Extra entries are ignored.
func DailyMortalitiesFrom(values []*int) DailyMortalities {
	var out DailyMortalities
	for i, v := range values {
		if i >= DaysPerWeek {
			break
		}
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

// WeeklyRecord is the current weekly production record of one batch for one
// week of age. MortalityTotal is always derived from DailyMortalities.
type WeeklyRecord struct {
	BatchID              string           `json:"batch_id"`
	WeekOfAge            int              `json:"week_of_age"`
	BirdsInWeek          int              `json:"birds_in_week"`
	DailyMortalities     DailyMortalities `json:"daily_mortalities"`
	MortalityTotal       int              `json:"mortality_total"`
	WeighingDate         Date             `json:"weighing_date"`
	AverageWeightGrams   float64          `json:"average_weight_grams"`
	DailyFeedIntakeGrams float64          `json:"daily_feed_intake_grams"`
}

// WeeklySubmission is one immutable staff submission for a (batch, week).
// Re-submitting a week appends a new revision; the highest revision is current.
type WeeklySubmission struct {
	ID          string       `json:"id"`
	Revision    int          `json:"revision"`
	SubmittedAt time.Time    `json:"submitted_at"`
	SubmittedBy string       `json:"submitted_by,omitempty"`
	Record      WeeklyRecord `json:"record"`
}
