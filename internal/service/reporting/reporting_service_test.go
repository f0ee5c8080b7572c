package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/aviario/internal/domain/metrics"
	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/repository/mongodb"
	"github.com/mamadbah2/aviario/internal/service/indicators"
	"github.com/mamadbah2/aviario/internal/telemetry"
)

type fakeBatches struct {
	batches []models.Batch
	err     error
}

func (f *fakeBatches) ListBatches(_ context.Context, status models.BatchStatus) ([]models.Batch, error) {
	if status != models.BatchActive {
		return nil, errors.New("expected active filter")
	}
	return f.batches, f.err
}

type fakeSource struct {
	records map[string][]models.WeeklyRecord
	targets []models.TargetRecord
	fail    map[string]bool
}

func (f *fakeSource) Compute(_ context.Context, batch models.Batch) (indicators.BatchIndicators, error) {
	if f.fail[batch.ID] {
		return indicators.BatchIndicators{}, errors.New("database is locked")
	}
	ind := metrics.Compute(metrics.Input{
		Records:     f.records[batch.ID],
		HousedBirds: batch.HousedBirds,
		Breed:       batch.Breed,
		Targets:     f.targets,
	})
	return indicators.BatchIndicators{Batch: batch, Indicators: ind}, nil
}

type fakeArchive struct {
	saved []mongodb.IndicatorSnapshot
	err   error
}

func (f *fakeArchive) SaveIndicatorSnapshot(_ context.Context, s mongodb.IndicatorSnapshot) error {
	f.saved = append(f.saved, s)
	return f.err
}

type fakeUploader struct {
	keys []string
}

func (f *fakeUploader) Put(_ context.Context, key string, body []byte, contentType string) error {
	if contentType != "text/csv" || len(body) == 0 {
		return errors.New("unexpected upload")
	}
	f.keys = append(f.keys, key)
	return nil
}

type fakeRecorder struct {
	outcomes []string
}

func (f *fakeRecorder) ReportRun(outcome string) {
	f.outcomes = append(f.outcomes, outcome)
}

var reportDate = time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC)

func fixtures() (*fakeBatches, *fakeSource) {
	cobb := models.NormalizeBreed("Cobb 500")
	batches := &fakeBatches{batches: []models.Batch{
		{ID: "b1", Code: "L-01", Breed: cobb, House: "A1", HousedBirds: 1000, Status: models.BatchActive},
		{ID: "b2", Code: "L-02", HousedBirds: 12000, Status: models.BatchActive},
	}}
	source := &fakeSource{
		records: map[string][]models.WeeklyRecord{
			"b1": {
				{WeekOfAge: 1, DailyMortalities: models.DailyMortalities{2, 0, 1, 0, 0, 3, 0}, AverageWeightGrams: 190, DailyFeedIntakeGrams: 25},
				{WeekOfAge: 2, DailyMortalities: models.DailyMortalities{4}, AverageWeightGrams: 480, DailyFeedIntakeGrams: 55},
			},
		},
		targets: []models.TargetRecord{
			{Breed: cobb, WeekOfAge: 2, WeightGrams: 470, CumulativeFeedGrams: 540, CumulativeMortalityPct: 1.5},
		},
	}
	return batches, source
}

func TestGenerateWeeklyReport(t *testing.T) {
	batches, source := fixtures()
	archive := &fakeArchive{}
	uploader := &fakeUploader{}
	recorder := &fakeRecorder{}
	svc := NewService(batches, source, archive, uploader, recorder, nil)

	report, err := svc.GenerateWeeklyReport(context.Background(), reportDate)
	if err != nil {
		t.Fatalf("GenerateWeeklyReport: %v", err)
	}

	want := "*Relatório semanal (06/03/2026)*\n\n" +
		"*Lote L-01* (cobb 500, galpão A1)\n" +
		"Semana 2, aves vivas: 990\n" +
		"Mortalidade acumulada: 1,00% (meta 1,50%)\n" +
		"Peso médio: 480 g (meta 470 g)\n" +
		"Consumo acumulado: 560 g (meta 540 g)\n" +
		"Conversão alimentar (semana 2): 1,33\n\n" +
		"*Lote L-02*\n" +
		"Aves alojadas: 12.000. Sem registros semanais."
	if report != want {
		t.Errorf("report =\n%s\nwant\n%s", report, want)
	}

	if len(archive.saved) != 2 || archive.saved[0].BatchCode != "L-01" || !archive.saved[0].GeneratedAt.Equal(reportDate) {
		t.Errorf("archived = %+v", archive.saved)
	}
	if len(uploader.keys) != 2 || uploader.keys[0] != "indicators/L-01/2026-03-06.csv" {
		t.Errorf("uploaded = %v", uploader.keys)
	}
	if len(recorder.outcomes) != 1 || recorder.outcomes[0] != telemetry.OutcomeSuccess {
		t.Errorf("outcomes = %v", recorder.outcomes)
	}
}

func TestGenerateWeeklyReport_OptionalSinksAndFailures(t *testing.T) {
	batches, source := fixtures()
	source.fail = map[string]bool{"b2": true}
	svc := NewService(batches, source, &fakeArchive{err: errors.New("mongo down")}, nil, nil, nil)

	report, err := svc.GenerateWeeklyReport(context.Background(), reportDate)
	if err != nil {
		t.Fatalf("GenerateWeeklyReport: %v", err)
	}
	if !strings.Contains(report, "*Lote L-01*") {
		t.Errorf("report lost healthy batch:\n%s", report)
	}
	if !strings.Contains(report, "*Lote L-02*: erro ao calcular indicadores.") {
		t.Errorf("report missing failure line:\n%s", report)
	}
}

func TestGenerateWeeklyReport_NoActiveBatches(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := NewService(&fakeBatches{}, &fakeSource{}, nil, nil, recorder, nil)

	report, err := svc.GenerateWeeklyReport(context.Background(), reportDate)
	if err != nil {
		t.Fatalf("GenerateWeeklyReport: %v", err)
	}
	if !strings.HasSuffix(report, "Nenhum lote ativo.") {
		t.Errorf("report = %q", report)
	}
}

func TestGenerateWeeklyReport_ListError(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := NewService(&fakeBatches{err: errors.New("db closed")}, &fakeSource{}, nil, nil, recorder, nil)

	if _, err := svc.GenerateWeeklyReport(context.Background(), reportDate); err == nil {
		t.Fatal("expected error")
	}
	if len(recorder.outcomes) != 1 || recorder.outcomes[0] != telemetry.OutcomeFailure {
		t.Errorf("outcomes = %v", recorder.outcomes)
	}
}

func TestBatchSummary_TargetStatus(t *testing.T) {
	svc := NewService(&fakeBatches{}, &fakeSource{}, nil, nil, nil, nil)
	records := []models.WeeklyRecord{{WeekOfAge: 1, AverageWeightGrams: 0, DailyFeedIntakeGrams: 20}}

	tests := []struct {
		name  string
		batch models.Batch
		want  string
	}{
		{"no breed", models.Batch{Code: "A", HousedBirds: 100}, "Sem linhagem cadastrada, metas indisponíveis."},
		{"missing targets", models.Batch{Code: "B", Breed: "hy-line", HousedBirds: 100}, "Sem metas cadastradas para a linhagem."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := metrics.Compute(metrics.Input{Records: records, HousedBirds: tt.batch.HousedBirds, Breed: tt.batch.Breed})
			got := svc.BatchSummary(indicators.BatchIndicators{Batch: tt.batch, Indicators: ind})
			if !strings.HasSuffix(got, tt.want) {
				t.Errorf("summary =\n%s\nwant suffix %q", got, tt.want)
			}
			if strings.Contains(got, "Conversão") {
				t.Errorf("summary shows conversion without weight gain:\n%s", got)
			}
		})
	}
}
