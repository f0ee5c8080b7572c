package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/aviario/internal/config"
	"github.com/mamadbah2/aviario/internal/domain/models"
)

const reportTimeout = 2 * time.Minute

// ReportGenerator builds the weekly report text.
type ReportGenerator interface {
	GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error)
}

// Sender delivers outbound messages.
type Sender interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	schedule     string
	location     *time.Location
	reportingSvc ReportGenerator
	messagingSvc Sender
	recipient    string
	logger       *zap.Logger
	now          func() time.Time
}

// NewScheduler creates a new scheduler instance running in the configured
// reporting timezone. messagingSvc may be nil, in which case reports are
// generated and archived but not sent.
func NewScheduler(cfg config.Config, reportingSvc ReportGenerator, messagingSvc Sender, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Reporting.Location()
	if err != nil {
		return nil, fmt.Errorf("load report timezone %s: %w", cfg.Reporting.Timezone, err)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		schedule:     cfg.Reporting.CronSchedule,
		location:     loc,
		reportingSvc: reportingSvc,
		messagingSvc: messagingSvc,
		recipient:    cfg.WhatsApp.ReportRecipient,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Start registers the weekly report job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.location.String()))

	if _, err := s.cron.AddFunc(s.schedule, s.sendWeeklyReport); err != nil {
		return fmt.Errorf("schedule weekly report %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := s.runWeeklyReport(ctx); err != nil {
		s.logger.Error("weekly report failed", zap.Error(err))
	}
}

func (s *Scheduler) runWeeklyReport(ctx context.Context) error {
	s.logger.Info("generating weekly report")

	report, err := s.reportingSvc.GenerateWeeklyReport(ctx, s.now().In(s.location))
	if err != nil {
		return fmt.Errorf("generate weekly report: %w", err)
	}

	if s.messagingSvc == nil || s.recipient == "" {
		s.logger.Info("weekly report generated, no recipient configured")
		return nil
	}

	req := models.OutboundMessageRequest{
		To:      s.recipient,
		Message: report,
	}
	if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
		return fmt.Errorf("send weekly report: %w", err)
	}

	s.logger.Info("weekly report sent successfully")
	return nil
}
