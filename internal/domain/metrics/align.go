package metrics

import "slices"

// AlignedPoint pairs the real and target values of one week. Either side is
// nil when that series has no value for the week.
type AlignedPoint struct {
	Week   int      `json:"week" bson:"week"`
	Real   *float64 `json:"real" bson:"real"`
	Target *float64 `json:"target" bson:"target"`
}

// AlignWithTarget outer-joins two series on week of age. The result covers the
// union of both week domains in ascending order.
func AlignWithTarget(real, target Series) []AlignedPoint {
	index := make(map[int]*AlignedPoint, len(real)+len(target))
	weeks := make([]int, 0, len(real)+len(target))

	slot := func(week int) *AlignedPoint {
		p, ok := index[week]
		if !ok {
			p = &AlignedPoint{Week: week}
			index[week] = p
			weeks = append(weeks, week)
		}
		return p
	}

	for _, p := range real {
		if p.Present() {
			slot(p.Week).Real = value(*p.Value)
		} else {
			slot(p.Week)
		}
	}
	for _, p := range target {
		if p.Present() {
			slot(p.Week).Target = value(*p.Value)
		} else {
			slot(p.Week)
		}
	}

	slices.Sort(weeks)
	out := make([]AlignedPoint, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, *index[w])
	}
	return out
}
