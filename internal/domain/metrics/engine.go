package metrics

import (
	"slices"

	"github.com/mamadbah2/aviario/internal/domain/models"
)

// Input is an in-memory snapshot of everything needed to chart one batch.
type Input struct {
	Records     []models.WeeklyRecord
	HousedBirds int
	Breed       models.Breed
	// Targets may contain rows of other breeds; only rows matching Breed are used.
	Targets []models.TargetRecord
}

// Indicators are the chart-ready series of one batch.
type Indicators struct {
	Weight           []AlignedPoint      `json:"weight" bson:"weight"`
	Mortality        []AlignedPoint      `json:"mortality" bson:"mortality"`
	Consumption      []AlignedPoint      `json:"consumption" bson:"consumption"`
	DailyFeed        []AlignedPoint      `json:"daily_feed" bson:"daily_feed"`
	FeedConversion   Series              `json:"feed_conversion" bson:"feed_conversion"`
	LatestWeek       int                 `json:"latest_week" bson:"latest_week"`
	CumulativeDeaths int                 `json:"cumulative_deaths" bson:"cumulative_deaths"`
	CurrentBirds     int                 `json:"current_birds" bson:"current_birds"`
	TargetStatus     models.TargetStatus `json:"target_status" bson:"target_status"`
}

// Compute derives every indicator series for one batch.
func Compute(in Input) Indicators {
	records := byWeek(in.Records)
	targets, status := matchTargets(in.Breed, in.Targets)

	weight := make(Series, 0, len(records))
	dailyFeed := make(Series, 0, len(records))
	for _, r := range records {
		weight = append(weight, Point{Week: r.WeekOfAge, Value: value(r.AverageWeightGrams)})
		dailyFeed = append(dailyFeed, Point{Week: r.WeekOfAge, Value: value(r.DailyFeedIntakeGrams)})
	}

	deaths := CumulativeDeaths(records)
	current := in.HousedBirds - deaths
	if current < 0 {
		current = 0
	}

	latest := 0
	if len(records) > 0 {
		latest = records[len(records)-1].WeekOfAge
	}

	return Indicators{
		Weight:           AlignWithTarget(weight, targetSeries(targets, func(t models.TargetRecord) float64 { return t.WeightGrams })),
		Mortality:        AlignWithTarget(CumulativeMortalityPct(records, in.HousedBirds), targetSeries(targets, func(t models.TargetRecord) float64 { return t.CumulativeMortalityPct })),
		Consumption:      AlignWithTarget(CumulativeFeedIntake(records), targetSeries(targets, func(t models.TargetRecord) float64 { return t.CumulativeFeedGrams })),
		DailyFeed:        AlignWithTarget(dailyFeed, targetSeries(targets, func(t models.TargetRecord) float64 { return t.DailyFeedGrams })),
		FeedConversion:   WeeklyFeedConversionRatio(records),
		LatestWeek:       latest,
		CumulativeDeaths: deaths,
		CurrentBirds:     current,
		TargetStatus:     status,
	}
}

func matchTargets(breed models.Breed, targets []models.TargetRecord) ([]models.TargetRecord, models.TargetStatus) {
	if breed.IsZero() {
		return nil, models.TargetsNoBreed
	}

	matched := make([]models.TargetRecord, 0, len(targets))
	for _, t := range targets {
		if t.Breed == breed {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		return nil, models.TargetsMissing
	}

	slices.SortStableFunc(matched, func(a, b models.TargetRecord) int {
		return a.WeekOfAge - b.WeekOfAge
	})
	return matched, models.TargetsMatched
}

func targetSeries(targets []models.TargetRecord, pick func(models.TargetRecord) float64) Series {
	out := make(Series, 0, len(targets))
	for _, t := range targets {
		out = append(out, Point{Week: t.WeekOfAge, Value: value(pick(t))})
	}
	return out
}
