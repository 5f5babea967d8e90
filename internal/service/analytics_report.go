package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stemsi/exam-portal-backend/internal/model"
	"github.com/stemsi/exam-portal-backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

const topTeachersLimit = 5

// TeacherAnalytics builds the admin report on one teacher.
func (s *AnalyticsService) TeacherAnalytics(ctx context.Context, q model.TeacherAnalyticsQuery) (*model.TeacherAnalytics, error) {
	from, to := q.Bounds()
	report := &model.TeacherAnalytics{Summary: model.TeacherSummary{TeacherID: q.TeacherID}}
	var stats model.TeacherStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		name, err := s.analyticsRepo.UserName(gctx, q.TeacherID, model.RoleTeacher)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		report.Summary.Teacher = name
		return err
	})
	g.Go(func() (err error) {
		report.Ranking, err = s.analyticsRepo.TeacherRanking(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		report.Summary.OverallAverage, err = s.analyticsRepo.OverallAverage(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		stats, err = s.analyticsRepo.TeacherStats(gctx, q.TeacherID, from, to)
		return err
	})
	g.Go(func() (err error) {
		report.Progress, err = s.analyticsRepo.ExamProgress(gctx, q.TeacherID, from, to)
		return err
	})
	g.Go(func() (err error) {
		report.Heatmap, err = s.analyticsRepo.Heatmap(gctx, q.TeacherID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("teacher analytics: %w", err)
	}

	report.Summary.TeacherAverage = stats.AveragePercentage
	report.Summary.TotalStudents = stats.Students
	report.Summary.Rank = rankOf(report.Ranking, q.TeacherID)
	report.Summary.RankedTeachers = len(report.Ranking)
	return report, nil
}

// StudentAnalytics builds the admin report on one student.
func (s *AnalyticsService) StudentAnalytics(ctx context.Context, q model.StudentAnalyticsQuery) (*model.StudentAnalytics, error) {
	from, to := q.Bounds()
	report := &model.StudentAnalytics{Summary: model.StudentSummary{StudentID: q.StudentID}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		name, err := s.analyticsRepo.UserName(gctx, q.StudentID, model.RoleStudent)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		report.Summary.Student = name
		return err
	})
	g.Go(func() (err error) {
		report.ExamScores, err = s.analyticsRepo.StudentExamScores(gctx, q.StudentID, from, to)
		return err
	})
	g.Go(func() (err error) {
		report.Summary.ClassAverage, err = s.analyticsRepo.ClassAverage(gctx, q.StudentID, from, to)
		return err
	})
	g.Go(func() (err error) {
		report.Summary.OverallAverage, err = s.analyticsRepo.OverallAverage(gctx, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("student analytics: %w", err)
	}

	report.Summary.ExamsTaken = len(report.ExamScores)
	report.Summary.StudentAverage = averageScore(report.ExamScores)
	return report, nil
}

// TeacherStudents lists the actor's students and their class overview.
func (s *AnalyticsService) TeacherStudents(ctx context.Context, actor Actor) (*model.TeacherStudentAnalytics, error) {
	rows, err := s.analyticsRepo.TeacherStudents(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.TeacherStudentRow{}
	}
	return &model.TeacherStudentAnalytics{Overview: overviewOf(rows), Students: rows}, nil
}

// TeacherSubjects aggregates the actor's exams per subject.
func (s *AnalyticsService) TeacherSubjects(ctx context.Context, actor Actor) ([]model.TeacherSubjectPerformance, error) {
	return s.analyticsRepo.TeacherSubjects(ctx, actor.ID)
}

// TeacherSelf builds a teacher's report on their own exams.
func (s *AnalyticsService) TeacherSelf(ctx context.Context, actor Actor, r model.DateRange) (*model.TeacherSelfAnalytics, error) {
	from, to := r.Bounds()
	report := &model.TeacherSelfAnalytics{}
	var (
		stats   model.TeacherStats
		ranking []model.TeacherRank
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.analyticsRepo.TeacherStats(gctx, actor.ID, from, to)
		return err
	})
	g.Go(func() (err error) {
		report.Summary.OverallAverage, err = s.analyticsRepo.OverallAverage(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		report.Progress, err = s.analyticsRepo.ExamProgress(gctx, actor.ID, from, to)
		return err
	})
	g.Go(func() (err error) {
		ranking, err = s.analyticsRepo.TeacherRanking(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		report.Violations, err = s.analyticsRepo.ViolationsBySubject(gctx, actor.ID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("teacher self analytics: %w", err)
	}

	report.Summary.TeacherAverage = stats.AveragePercentage
	report.Summary.PassRate = stats.PassRate
	report.Summary.Rank = rankOf(ranking, actor.ID)
	report.TopTeachers = topTeachers(ranking, topTeachersLimit)
	return report, nil
}

// rankOf returns the teacher's rank, or 0 when unranked.
func rankOf(ranking []model.TeacherRank, teacherID int) int {
	for _, r := range ranking {
		if r.TeacherID == teacherID {
			return r.Rank
		}
	}
	return 0
}

func topTeachers(ranking []model.TeacherRank, n int) []model.TeacherRank {
	if len(ranking) > n {
		ranking = ranking[:n]
	}
	return append([]model.TeacherRank{}, ranking...)
}

func averageScore(scores []model.StudentExamScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, sc := range scores {
		sum += sc.Percentage
	}
	return sum / float64(len(scores))
}

// overviewOf counts distinct students and averages every attempt.
func overviewOf(rows []model.TeacherStudentRow) model.TeacherStudentOverview {
	var o model.TeacherStudentOverview
	if len(rows) == 0 {
		return o
	}
	students := make(map[int]struct{})
	var sum float64
	passed := 0
	for _, r := range rows {
		students[r.StudentID] = struct{}{}
		sum += r.Percentage
		if r.Passed {
			passed++
		}
	}
	o.TotalStudents = len(students)
	o.ClassAverage = sum / float64(len(rows))
	o.PassRate = float64(passed) * 100 / float64(len(rows))
	return o
}
