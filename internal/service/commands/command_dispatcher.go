package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/domain/models"
	"github.com/mamadbah2/aviario/internal/repository/sqlstore"
	"github.com/mamadbah2/aviario/internal/service/indicators"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// HelpText lists the commands understood over WhatsApp.
const HelpText = "*Comandos disponíveis*\n" +
	"/lote <código>: resumo dos indicadores do lote\n" +
	"/lotes: lotes ativos\n" +
	"/ajuda: esta mensagem"

// BatchFinder looks batches up for command replies.
type BatchFinder interface {
	GetByCode(ctx context.Context, code string) (models.Batch, error)
	List(ctx context.Context, status string) ([]models.Batch, error)
}

// IndicatorSource computes the indicators of a loaded batch.
type IndicatorSource interface {
	Compute(ctx context.Context, batch models.Batch) (indicators.BatchIndicators, error)
}

// Summarizer renders batch indicators as chat text.
type Summarizer interface {
	BatchSummary(bi indicators.BatchIndicators) string
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	batches    BatchFinder
	indicators IndicatorSource
	summarizer Summarizer
	logger     *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(batches BatchFinder, source IndicatorSource, summarizer Summarizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		batches:    batches,
		indicators: source,
		summarizer: summarizer,
		logger:     logger,
	}
}

// HandleCommand runs the command and builds its reply.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandBatch:
		return s.batchSummary(ctx, cmd)
	case models.CommandBatches:
		return s.activeBatches(ctx)
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) batchSummary(ctx context.Context, cmd models.Command) (string, error) {
	if len(cmd.Args) != 1 {
		return "", ErrInvalidArguments
	}
	code := cmd.Args[0]

	batch, err := s.batches.GetByCode(ctx, code)
	if errors.Is(err, sqlstore.ErrNotFound) {
		return fmt.Sprintf("Lote %s não encontrado.", code), nil
	}
	if err != nil {
		return "", err
	}

	computed, err := s.indicators.Compute(ctx, batch)
	if err != nil {
		return "", fmt.Errorf("indicators for batch %s: %w", code, err)
	}

	return s.summarizer.BatchSummary(computed), nil
}

func (s *Service) activeBatches(ctx context.Context) (string, error) {
	active, err := s.batches.List(ctx, string(models.BatchActive))
	if err != nil {
		return "", err
	}
	if len(active) == 0 {
		return "Nenhum lote ativo.", nil
	}

	var b strings.Builder
	b.WriteString("*Lotes ativos*")
	for _, batch := range active {
		b.WriteString("\n- " + batch.Code)
		if !batch.Breed.IsZero() {
			b.WriteString(" (" + string(batch.Breed) + ")")
		}
		b.WriteString(fmt.Sprintf(", alojado em %s com %d aves", batch.HousedAt.Format("02/01/2006"), batch.HousedBirds))
	}
	return b.String(), nil
}
