package metrics

import "github.com/mamadbah2/aviario/internal/domain/models"

// WeeklyFeed converts a daily intake per bird into a weekly one. Intake is
// measured per day; a week is always seven days.
func WeeklyFeed(dailyIntakeGrams float64) float64 {
	return dailyIntakeGrams * models.DaysPerWeek
}

// CumulativeFeedIntake returns the running feed consumption per bird in grams.
func CumulativeFeedIntake(records []models.WeeklyRecord) Series {
	ordered := byWeek(records)
	out := make(Series, 0, len(ordered))

	running := 0.0
	for _, r := range ordered {
		running += WeeklyFeed(r.DailyFeedIntakeGrams)
		out = append(out, Point{Week: r.WeekOfAge, Value: value(running)})
	}
	return out
}

// WeeklyFeedConversionRatio returns grams of feed per gram of weight gained
// for each week. Gain is measured against the previous record; the first
// record gains from a zero baseline. Weeks without a positive gain are left
// out of the series entirely.
func WeeklyFeedConversionRatio(records []models.WeeklyRecord) Series {
	ordered := byWeek(records)
	out := make(Series, 0, len(ordered))

	previous := 0.0
	for _, r := range ordered {
		gain := r.AverageWeightGrams - previous
		previous = r.AverageWeightGrams
		if gain <= 0 {
			continue
		}
		out = append(out, Point{Week: r.WeekOfAge, Value: value(WeeklyFeed(r.DailyFeedIntakeGrams) / gain)})
	}
	return out
}
