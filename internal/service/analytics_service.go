package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

const dashboardListLimit = 5

// AnalyticsService builds read-only dashboard projections.
type AnalyticsService struct {
	analyticsRepo *repository.AnalyticsRepository
	exams         *ExamService
	now           func() time.Time
	log           zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(analyticsRepo *repository.AnalyticsRepository, exams *ExamService, log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepo: analyticsRepo,
		exams:         exams,
		now:           time.Now,
		log:           log.With().Str("component", "analytics_service").Logger(),
	}
}

// Dashboard aggregates the admin landing page. The queries run concurrently.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*model.DashboardSummary, error) {
	summary := &model.DashboardSummary{}
	now := s.now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.analyticsRepo.FillSummaryCounts(gctx, summary)
	})
	g.Go(func() error {
		counts, err := s.analyticsRepo.AvailabilityCounts(gctx, now)
		summary.Availability = counts
		return err
	})
	g.Go(func() error {
		upcoming, err := s.analyticsRepo.UpcomingExams(gctx, now, dashboardListLimit)
		summary.UpcomingExams = upcoming
		return err
	})
	g.Go(func() error {
		recent, err := s.analyticsRepo.RecentExams(gctx, now, dashboardListLimit)
		summary.RecentExams = recent
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return summary, nil
}

// SubjectPerformance returns the student's average percentage per subject.
func (s *AnalyticsService) SubjectPerformance(ctx context.Context, studentID int) ([]model.SubjectPerformance, error) {
	return s.analyticsRepo.SubjectPerformance(ctx, studentID)
}

// WrongQuestions lists the questions the student missed in finalized attempts.
func (s *AnalyticsService) WrongQuestions(ctx context.Context, studentID int) ([]model.WrongQuestion, error) {
	return s.analyticsRepo.WrongQuestions(ctx, studentID)
}

// ExamAnalytics aggregates one exam for its owner or an admin.
func (s *AnalyticsService) ExamAnalytics(ctx context.Context, actor Actor, examID uuid.UUID) (*model.ExamAnalytics, error) {
	if _, err := s.exams.Owned(ctx, actor, examID); err != nil {
		return nil, err
	}
	return s.analyticsRepo.ExamAnalytics(ctx, examID)
}

// Results lists attempts on the actor's exams, optionally for one exam only.
func (s *AnalyticsService) Results(ctx context.Context, actor Actor, examID *uuid.UUID) ([]model.ExamResultRow, error) {
	f, err := s.scope(ctx, actor, examID)
	if err != nil {
		return nil, err
	}
	return s.analyticsRepo.ExamResults(ctx, f)
}

// Violations lists proctoring violations on the actor's exams, optionally for one exam only.
func (s *AnalyticsService) Violations(ctx context.Context, actor Actor, examID *uuid.UUID) ([]model.ViolationRow, error) {
	f, err := s.scope(ctx, actor, examID)
	if err != nil {
		return nil, err
	}
	return s.analyticsRepo.Violations(ctx, f)
}

// SubjectAnalytics aggregates every subject for admins.
func (s *AnalyticsService) SubjectAnalytics(ctx context.Context) ([]model.SubjectAnalytics, error) {
	return s.analyticsRepo.SubjectAnalytics(ctx)
}

func (s *AnalyticsService) scope(ctx context.Context, actor Actor, examID *uuid.UUID) (repository.ScopeFilter, error) {
	f := repository.ScopeFilter{ExamID: examID}
	if !actor.IsAdmin() {
		f.OwnerID = actor.ID
	}
	if examID != nil {
		if _, err := s.exams.Owned(ctx, actor, *examID); err != nil {
			return f, err
		}
	}
	return f, nil
}
