package metrics

import "github.com/mamadbah2/aviario/internal/domain/models"

// MortalityTotal sums the daily mortality entries of one week. At most
// models.DaysPerWeek entries are read; negative entries count as zero.
func MortalityTotal(days []int) int {
	total := 0
	for i, d := range days {
		if i >= models.DaysPerWeek {
			break
		}
		if d > 0 {
			total += d
		}
	}
	return total
}

// CumulativeMortalityPct returns the running mortality as a percentage of the
// housed birds, one point per record in week order. With housedBirds <= 0
// every point is absent.
func CumulativeMortalityPct(records []models.WeeklyRecord, housedBirds int) Series {
	ordered := byWeek(records)
	out := make(Series, 0, len(ordered))

	running := 0
	for _, r := range ordered {
		running += MortalityTotal(r.DailyMortalities[:])
		p := Point{Week: r.WeekOfAge}
		if housedBirds > 0 {
			p.Value = value(float64(running) / float64(housedBirds) * 100)
		}
		out = append(out, p)
	}
	return out
}

// CumulativeDeaths is the total mortality across all records.
func CumulativeDeaths(records []models.WeeklyRecord) int {
	total := 0
	for _, r := range records {
		total += MortalityTotal(r.DailyMortalities[:])
	}
	return total
}
