// Package jobs runs the periodic background passes: outbox dispatch,
// recurring invoice generation, and document follow-ups. Each pass is a
// thin ticker loop over the same service methods the cron trigger
// endpoints call, so a deployment can rely on either.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	portssvc "github.com/nextfact/crm_billing_app/internal/core/ports/services"
	"github.com/nextfact/crm_billing_app/internal/dto"
	"github.com/nextfact/crm_billing_app/internal/middleware"
	"github.com/nextfact/crm_billing_app/pkg/config"
)

// Scheduler owns the background job goroutines.
type Scheduler struct {
	outboxService    portssvc.OutboxSvcFacade
	recurringService portssvc.RecurringSvcFacade
	logger           *slog.Logger

	outboxInterval    time.Duration
	recurringInterval time.Duration
	followUpInterval  time.Duration

	wg sync.WaitGroup
}

// NewScheduler builds a scheduler from config intervals. An interval of zero
// disables that pass.
func NewScheduler(cfg *config.Config, services *portssvc.ServiceContainer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		outboxService:     services.Outbox,
		recurringService:  services.Recurring,
		logger:            logger,
		outboxInterval:    cfg.OutboxInterval,
		recurringInterval: cfg.RecurringInterval,
		followUpInterval:  cfg.FollowUpInterval,
	}
}

// Start launches one goroutine per enabled pass. The goroutines stop when ctx
// is cancelled; Wait blocks until they have drained.
func (s *Scheduler) Start(ctx context.Context) {
	s.launch(ctx, "outbox_dispatch", s.outboxInterval, s.runOutbox)
	s.launch(ctx, "recurring_generator", s.recurringInterval, s.runRecurring)
	s.launch(ctx, "document_followups", s.followUpInterval, s.runFollowUps)
}

// Wait blocks until all job goroutines have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) launch(ctx context.Context, name string, interval time.Duration, run func(context.Context, time.Time)) {
	if interval <= 0 {
		s.logger.Info("Background job disabled", slog.String("job", name))
		return
	}

	jobLogger := s.logger.With(slog.String("job", name))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		jobLogger.Info("Background job started", slog.Duration("interval", interval))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				jobLogger.Info("Background job stopping")
				return
			case now := <-ticker.C:
				runCtx := middleware.WithLogger(ctx, jobLogger)
				run(runCtx, now)
			}
		}
	}()
}

func (s *Scheduler) runOutbox(ctx context.Context, now time.Time) {
	report, err := s.outboxService.ProcessDue(ctx, now)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Outbox dispatch run failed", slog.String("error", err.Error()))
		return
	}
	logReport(ctx, "Outbox dispatch run completed", report)
}

func (s *Scheduler) runRecurring(ctx context.Context, now time.Time) {
	report, err := s.recurringService.RunDueTemplates(ctx, now)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Recurring generator run failed", slog.String("error", err.Error()))
		return
	}
	logReport(ctx, "Recurring generator run completed", report)
}

func (s *Scheduler) runFollowUps(ctx context.Context, now time.Time) {
	logger := middleware.GetLoggerFromCtx(ctx)

	expired, err := s.outboxService.ExpireQuotations(ctx, now)
	if err != nil {
		logger.Error("Quotation expiry run failed", slog.String("error", err.Error()))
	} else {
		logReport(ctx, "Quotation expiry run completed", expired)
	}

	reminded, err := s.outboxService.RemindOverdueInvoices(ctx, now)
	if err != nil {
		logger.Error("Overdue reminder run failed", slog.String("error", err.Error()))
		return
	}
	logReport(ctx, "Overdue reminder run completed", reminded)
}

// logReport logs at debug when a run did nothing, so idle deployments do not
// fill the log with no-op entries.
func logReport(ctx context.Context, msg string, report dto.DispatchReport) {
	logger := middleware.GetLoggerFromCtx(ctx)
	if report.Processed == 0 && report.Failed == 0 {
		logger.Debug(msg, slog.Int("processed", 0), slog.Int("failed", 0))
		return
	}
	logger.Info(msg, slog.Int("processed", report.Processed), slog.Int("failed", report.Failed))
}
