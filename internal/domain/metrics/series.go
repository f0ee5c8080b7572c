// Package metrics derives zootechnical indicators from a batch's weekly
// records: cumulative mortality, accumulated feed consumption, weekly feed
// conversion and the comparison against breed targets.
//
// Every function is pure. Degenerate inputs (no housed birds, no weight gain,
// empty record sets) yield absent points or empty series, never errors.
package metrics

import (
	"slices"

	"github.com/mamadbah2/aviario/internal/domain/models"
)

// Point is one week of a chart series. A nil Value means the metric is
// undefined for that week.
type Point struct {
	Week  int      `json:"week" bson:"week"`
	Value *float64 `json:"value" bson:"value"`
}

// Present reports whether the point carries a value.
func (p Point) Present() bool {
	return p.Value != nil
}

// Series is a week-ordered sequence of points.
type Series []Point

// Weeks lists the week numbers of the series in order.
func (s Series) Weeks() []int {
	weeks := make([]int, len(s))
	for i, p := range s {
		weeks[i] = p.Week
	}
	return weeks
}

// Last returns the last present point, if any.
func (s Series) Last() (Point, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Present() {
			return s[i], true
		}
	}
	return Point{}, false
}

func value(v float64) *float64 {
	return &v
}

// byWeek returns a stably sorted copy so callers' slices are never reordered.
func byWeek(records []models.WeeklyRecord) []models.WeeklyRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b models.WeeklyRecord) int {
		return a.WeekOfAge - b.WeekOfAge
	})
	return out
}
