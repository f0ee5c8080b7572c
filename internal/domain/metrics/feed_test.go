package metrics

import (
	"testing"

	"github.com/mamadbah2/aviario/internal/domain/models"
)

func TestCumulativeFeedIntake(t *testing.T) {
	records := []models.WeeklyRecord{
		week(1, nil, 0, 60),
		week(2, nil, 0, 65),
		week(3, nil, 0, 70),
	}

	got := CumulativeFeedIntake(records)
	want := []float64{420, 875, 1365}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, p := range got {
		if !almostEqual(*p.Value, want[i], 1e-9) {
			t.Errorf("week %d cumulative = %.2f, want %.2f", p.Week, *p.Value, want[i])
		}
	}
}

func TestWeeklyFeedConversionRatio_SkipsNonPositiveGain(t *testing.T) {
	records := []models.WeeklyRecord{
		week(1, nil, 450, 50),
		week(2, nil, 440, 60),
		week(3, nil, 460, 70),
	}

	got := WeeklyFeedConversionRatio(records)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (weeks %v)", len(got), got.Weeks())
	}
	for _, p := range got {
		if p.Week == 2 {
			t.Errorf("week 2 has ratio %.3f, want no entry", *p.Value)
		}
	}

	last := got[1]
	if last.Week != 3 {
		t.Fatalf("last week = %d, want 3", last.Week)
	}
	if want := 70.0 * 7 / 20; !almostEqual(*last.Value, want, 1e-9) {
		t.Errorf("week 3 ratio = %.4f, want %.4f", *last.Value, want)
	}
}

func TestWeeklyFeedConversionRatio_FirstWeekGainsFromZero(t *testing.T) {
	got := WeeklyFeedConversionRatio([]models.WeeklyRecord{week(1, nil, 175, 25)})

	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if want := 25.0 * 7 / 175; !almostEqual(*got[0].Value, want, 1e-9) {
		t.Errorf("week 1 ratio = %.4f, want %.4f", *got[0].Value, want)
	}
}

func TestWeeklyFeedConversionRatio_ZeroWeightFirstWeekDropped(t *testing.T) {
	records := []models.WeeklyRecord{
		week(1, nil, 0, 25),
		week(2, nil, 400, 50),
	}

	got := WeeklyFeedConversionRatio(records)

	if len(got) != 1 || got[0].Week != 2 {
		t.Fatalf("weeks = %v, want [2]", got.Weeks())
	}
	if want := 50.0 * 7 / 400; !almostEqual(*got[0].Value, want, 1e-9) {
		t.Errorf("week 2 ratio = %.4f, want %.4f", *got[0].Value, want)
	}
}

func TestWeeklyFeedConversionRatio_GainMeasuredAgainstPreviousRecord(t *testing.T) {
	// Week 3 is missing; week 4 gains against week 2.
	records := []models.WeeklyRecord{
		week(4, nil, 1300, 110),
		week(1, nil, 180, 25),
		week(2, nil, 450, 55),
	}

	got := WeeklyFeedConversionRatio(records)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[2].Week != 4 {
		t.Fatalf("last week = %d, want 4", got[2].Week)
	}
	if want := 110.0 * 7 / 850; !almostEqual(*got[2].Value, want, 1e-9) {
		t.Errorf("week 4 ratio = %.4f, want %.4f", *got[2].Value, want)
	}
}

func TestWeeklyFeedConversionRatio_Empty(t *testing.T) {
	if got := WeeklyFeedConversionRatio(nil); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}
