package indicators

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/mamadbah2/aviario/internal/domain/metrics"
)

var csvHeader = []string{
	"week",
	"weight_grams", "target_weight_grams",
	"cumulative_mortality_pct", "target_cumulative_mortality_pct",
	"cumulative_feed_grams", "target_cumulative_feed_grams",
	"daily_feed_grams", "target_daily_feed_grams",
	"feed_conversion_ratio",
}

// WriteCSV writes one row per week covered by any series. Absent values are
// empty cells.
func WriteCSV(w io.Writer, ind metrics.Indicators) error {
	weight := alignedByWeek(ind.Weight)
	mortality := alignedByWeek(ind.Mortality)
	consumption := alignedByWeek(ind.Consumption)
	dailyFeed := alignedByWeek(ind.DailyFeed)
	fcr := make(map[int]*float64, len(ind.FeedConversion))
	for _, p := range ind.FeedConversion {
		fcr[p.Week] = p.Value
	}

	seen := make(map[int]bool)
	var weeks []int
	collect := func(m map[int]metrics.AlignedPoint) {
		for w := range m {
			if !seen[w] {
				seen[w] = true
				weeks = append(weeks, w)
			}
		}
	}
	collect(weight)
	collect(mortality)
	collect(consumption)
	collect(dailyFeed)
	for w := range fcr {
		if !seen[w] {
			seen[w] = true
			weeks = append(weeks, w)
		}
	}
	slices.Sort(weeks)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, week := range weeks {
		row := []string{strconv.Itoa(week)}
		for _, m := range []map[int]metrics.AlignedPoint{weight, mortality, consumption, dailyFeed} {
			p := m[week]
			row = append(row, cell(p.Real), cell(p.Target))
		}
		row = append(row, cell(fcr[week]))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv week %d: %w", week, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func alignedByWeek(points []metrics.AlignedPoint) map[int]metrics.AlignedPoint {
	out := make(map[int]metrics.AlignedPoint, len(points))
	for _, p := range points {
		out[p.Week] = p
	}
	return out
}

func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}
