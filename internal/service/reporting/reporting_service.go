// Package reporting builds the weekly farm report: per-batch indicator
// snapshots, CSV exports and a pt-BR text summary sent over WhatsApp.
package reporting

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mamadbah2/aviario/internal/domain/metrics"
	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/repository/mongodb"
	"github.com/mamadbah2/aviario/internal/service/indicators"
	"github.com/mamadbah2/aviario/internal/telemetry"
)

const displayDateLayout = "02/01/2006"

// BatchLister lists batches by status.
type BatchLister interface {
	ListBatches(ctx context.Context, status models.BatchStatus) ([]models.Batch, error)
}

// IndicatorSource computes the indicators of a loaded batch.
type IndicatorSource interface {
	Compute(ctx context.Context, batch models.Batch) (indicators.BatchIndicators, error)
}

// SnapshotArchive stores indicator snapshots.
type SnapshotArchive interface {
	SaveIndicatorSnapshot(ctx context.Context, snapshot mongodb.IndicatorSnapshot) error
}

// Uploader stores report files.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// Recorder counts report runs.
type Recorder interface {
	ReportRun(outcome string)
}

// Service produces weekly reports.
type Service struct {
	batches    BatchLister
	indicators IndicatorSource
	archive    SnapshotArchive
	uploader   Uploader
	recorder   Recorder
	printer    *message.Printer
	logger     *zap.Logger
}

// NewService wires a new reporting service instance. archive, uploader and
// recorder are optional.
func NewService(batches BatchLister, source IndicatorSource, archive SnapshotArchive, uploader Uploader, recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		batches:    batches,
		indicators: source,
		archive:    archive,
		uploader:   uploader,
		recorder:   recorder,
		printer:    message.NewPrinter(language.BrazilianPortuguese),
		logger:     logger,
	}
}

// GenerateWeeklyReport computes the indicators of every active batch, archives
// and uploads them when configured, and returns the text summary. A failure on
// one batch is reported inline and does not abort the others.
func (s *Service) GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error) {
	active, err := s.batches.ListBatches(ctx, models.BatchActive)
	if err != nil {
		s.recordRun(telemetry.OutcomeFailure)
		return "", fmt.Errorf("list active batches: %w", err)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("*Relatório semanal (%s)*", now.Format(displayDateLayout)))

	if len(active) == 0 {
		b.WriteString("\nNenhum lote ativo.")
		s.recordRun(telemetry.OutcomeSuccess)
		return b.String(), nil
	}

	failures := 0
	for _, batch := range active {
		computed, err := s.indicators.Compute(ctx, batch)
		if err != nil {
			failures++
			s.logger.Error("failed to compute batch indicators", zap.String("batch_id", batch.ID), zap.Error(err))
			b.WriteString(fmt.Sprintf("\n\n*Lote %s*: erro ao calcular indicadores.", batch.Code))
			continue
		}

		s.archiveSnapshot(ctx, computed, now)
		s.uploadCSV(ctx, computed, now)

		b.WriteString("\n\n")
		b.WriteString(s.BatchSummary(computed))
	}

	if failures == len(active) {
		s.recordRun(telemetry.OutcomeFailure)
	} else {
		s.recordRun(telemetry.OutcomeSuccess)
	}

	s.logger.Info("weekly report generated", zap.Int("batches", len(active)), zap.Int("failures", failures))
	return b.String(), nil
}

// BatchSummary renders the latest week of one batch as a short pt-BR text.
func (s *Service) BatchSummary(bi indicators.BatchIndicators) string {
	batch, ind := bi.Batch, bi.Indicators
	p := s.printer

	var b strings.Builder
	b.WriteString(fmt.Sprintf("*Lote %s*", batch.Code))
	var details []string
	if !batch.Breed.IsZero() {
		details = append(details, string(batch.Breed))
	}
	if batch.House != "" {
		details = append(details, "galpão "+batch.House)
	}
	if len(details) > 0 {
		b.WriteString(" (" + strings.Join(details, ", ") + ")")
	}

	if ind.LatestWeek == 0 {
		b.WriteString(p.Sprintf("\nAves alojadas: %d. Sem registros semanais.", batch.HousedBirds))
		return b.String()
	}

	b.WriteString(p.Sprintf("\nSemana %d, aves vivas: %d", ind.LatestWeek, ind.CurrentBirds))

	mortality := pointAt(ind.Mortality, ind.LatestWeek)
	b.WriteString("\nMortalidade acumulada: " + s.percent(mortality.Real) + withTarget(s.percent(mortality.Target), mortality.Target))

	weight := pointAt(ind.Weight, ind.LatestWeek)
	b.WriteString("\nPeso médio: " + s.grams(weight.Real) + withTarget(s.grams(weight.Target), weight.Target))

	consumption := pointAt(ind.Consumption, ind.LatestWeek)
	b.WriteString("\nConsumo acumulado: " + s.grams(consumption.Real) + withTarget(s.grams(consumption.Target), consumption.Target))

	if fcr, ok := ind.FeedConversion.Last(); ok {
		b.WriteString(p.Sprintf("\nConversão alimentar (semana %d): %.2f", fcr.Week, *fcr.Value))
	}

	switch ind.TargetStatus {
	case models.TargetsNoBreed:
		b.WriteString("\nSem linhagem cadastrada, metas indisponíveis.")
	case models.TargetsMissing:
		b.WriteString("\nSem metas cadastradas para a linhagem.")
	}

	return b.String()
}

func (s *Service) archiveSnapshot(ctx context.Context, bi indicators.BatchIndicators, now time.Time) {
	if s.archive == nil {
		return
	}
	snapshot := mongodb.IndicatorSnapshot{
		BatchID:     bi.Batch.ID,
		BatchCode:   bi.Batch.Code,
		Breed:       bi.Batch.Breed,
		GeneratedAt: now.UTC(),
		Indicators:  bi.Indicators,
	}
	if err := s.archive.SaveIndicatorSnapshot(ctx, snapshot); err != nil {
		s.logger.Error("failed to archive indicator snapshot", zap.String("batch_id", bi.Batch.ID), zap.Error(err))
	}
}

func (s *Service) uploadCSV(ctx context.Context, bi indicators.BatchIndicators, now time.Time) {
	if s.uploader == nil {
		return
	}
	var buf bytes.Buffer
	if err := indicators.WriteCSV(&buf, bi.Indicators); err != nil {
		s.logger.Error("failed to render indicators csv", zap.String("batch_id", bi.Batch.ID), zap.Error(err))
		return
	}
	key := ReportKey(bi.Batch.Code, now)
	if err := s.uploader.Put(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		s.logger.Error("failed to upload indicators csv", zap.String("key", key), zap.Error(err))
	}
}

// ReportKey is the object key of a batch's CSV for the report date.
func ReportKey(batchCode string, now time.Time) string {
	return fmt.Sprintf("indicators/%s/%s.csv", batchCode, now.Format(models.DateLayout))
}

func (s *Service) recordRun(outcome string) {
	if s.recorder != nil {
		s.recorder.ReportRun(outcome)
	}
}

func (s *Service) percent(v *float64) string {
	if v == nil {
		return "n/d"
	}
	return s.printer.Sprintf("%.2f%%", *v)
}

func (s *Service) grams(v *float64) string {
	if v == nil {
		return "n/d"
	}
	return s.printer.Sprintf("%.0f g", *v)
}

func withTarget(formatted string, target *float64) string {
	if target == nil {
		return ""
	}
	return " (meta " + formatted + ")"
}

func pointAt(points []metrics.AlignedPoint, week int) metrics.AlignedPoint {
	for _, p := range points {
		if p.Week == week {
			return p
		}
	}
	return metrics.AlignedPoint{Week: week}
}
