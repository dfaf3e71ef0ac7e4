package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReportMailer delivers a weekly report
type ReportMailer interface {
	IsEnabled() bool
	SendWeeklyReport(ctx context.Context, toEmail string, overview ParentOverview) error
}

// ReportService emails the weekly overview to every parent who opted in
type ReportService struct {
	parents  ParentStore
	overview *ParentService
	mailer   ReportMailer
	logger   *zap.Logger
}

// NewReportService creates a report service
func NewReportService(parents ParentStore, overview *ParentService, mailer ReportMailer, logger *zap.Logger) *ReportService {
	return &ReportService{parents: parents, overview: overview, mailer: mailer, logger: logger}
}

// SendWeekly sends one report per opted-in parent. A failure for one parent
// does not stop the others; it returns the number of reports sent.
func (s *ReportService) SendWeekly(ctx context.Context) (int, error) {
	if !s.mailer.IsEnabled() {
		return 0, nil
	}

	recipients, err := s.parents.WeeklyReportRecipients(ctx)
	if err != nil {
		return 0, fmt.Errorf("get report recipients: %w", err)
	}

	sent := 0
	for _, parent := range recipients {
		overview, err := s.overview.Overview(ctx, parent.ChildID)
		if err != nil {
			s.logger.Error("failed to build weekly overview", zap.String("child_id", parent.ChildID), zap.Error(err))
			continue
		}
		if err := s.mailer.SendWeeklyReport(ctx, parent.Email, overview); err != nil {
			s.logger.Error("failed to send weekly report", zap.String("child_id", parent.ChildID), zap.Error(err))
			continue
		}
		sent++
	}

	s.logger.Info("weekly reports processed", zap.Int("recipients", len(recipients)), zap.Int("sent", sent))
	return sent, nil
}

// Start runs SendWeekly on the cron schedule until ctx is cancelled
func (s *ReportService) Start(ctx context.Context, schedule string) {
	if !s.mailer.IsEnabled() {
		s.logger.Info("weekly reports disabled")
		return
	}

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(schedule, func() {
		s.logger.Info("cron triggered: sending weekly reports")
		if _, err := s.SendWeekly(ctx); err != nil {
			s.logger.Error("failed to send weekly reports", zap.Error(err))
		}
	})
	if err != nil {
		s.logger.Error("failed to add cron job", zap.String("schedule", schedule), zap.Error(err))
		return
	}

	c.Start()
	s.logger.Info("weekly report scheduler started", zap.String("schedule", schedule))

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("weekly report scheduler stopped")
}
