package metrics

import (
	"math"

	"github.com/mamadbah2/aviario/internal/domain/models"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// week builds a record with the given week, daily deaths, weight and intake.
func week(n int, deaths []int, weight, intake float64) models.WeeklyRecord {
	var days models.DailyMortalities
	copy(days[:], deaths)
	return models.WeeklyRecord{
		WeekOfAge:            n,
		DailyMortalities:     days,
		MortalityTotal:       MortalityTotal(days[:]),
		AverageWeightGrams:   weight,
		DailyFeedIntakeGrams: intake,
	}
}
