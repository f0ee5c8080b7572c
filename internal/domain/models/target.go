package models

// TargetRecord is the breed standard for one week of age.
type TargetRecord struct {
	ID                     string  `json:"id"`
	Breed                  Breed   `json:"breed"`
	WeekOfAge              int     `json:"week_of_age"`
	WeightGrams            float64 `json:"weight_grams"`
	DailyFeedGrams         float64 `json:"daily_feed_grams"`
	CumulativeFeedGrams    float64 `json:"cumulative_feed_grams"`
	CumulativeMortalityPct float64 `json:"cumulative_mortality_pct"`
}
