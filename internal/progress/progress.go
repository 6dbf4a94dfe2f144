// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package progress keeps lesson completion and enrollment progress
// consistent. Marking a lesson complete recomputes the enrollment's
// percentage from counts and moves the enrollment to COMPLETED once every
// published lesson is done. The read path derives the same percentage
// without writing.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"coursemart/internal/apperr"
	"coursemart/internal/models"
)

// EnrollmentRepository reads and updates enrollments.
type EnrollmentRepository interface {
	// FindByUserCourse returns (nil, nil) when no enrollment exists.
	FindByUserCourse(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error)
	// UpdateProgress stores percent and, when completedAt is non-nil,
	// moves the enrollment to COMPLETED. It never moves an enrollment out
	// of COMPLETED.
	UpdateProgress(ctx context.Context, enrollmentID uuid.UUID, percent int, completedAt *time.Time) error
}

// LessonRepository reads lessons of a course.
type LessonRepository interface {
	// FindPublishedInCourse returns (nil, nil) unless the lesson exists,
	// belongs to courseID and is published.
	FindPublishedInCourse(ctx context.Context, lessonID, courseID uuid.UUID) (*models.Lesson, error)
	CountPublished(ctx context.Context, courseID uuid.UUID) (int, error)
	ListPublished(ctx context.Context, courseID uuid.UUID) ([]models.Lesson, error)
}

// ProgressRepository stores per-lesson progress rows keyed by
// (userID, lessonID). Upserts never create duplicates.
type ProgressRepository interface {
	UpsertCompleted(ctx context.Context, userID, lessonID uuid.UUID, at time.Time) (*models.Progress, error)
	UpsertWatchPosition(ctx context.Context, userID, lessonID uuid.UUID, seconds int) (*models.Progress, error)
	// CountCompleted counts completed rows on published lessons of courseID.
	CountCompleted(ctx context.Context, userID, courseID uuid.UUID) (int, error)
	// CompletedLessonIDs lists completed published lessons of courseID.
	CompletedLessonIDs(ctx context.Context, userID, courseID uuid.UUID) (map[uuid.UUID]bool, error)
}

// LessonStatus is one row of the course progress outline.
type LessonStatus struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Order       int       `json:"order"`
	IsCompleted bool      `json:"isCompleted"`
}

// CourseProgress is the read-only progress document for a course.
type CourseProgress struct {
	CourseID         uuid.UUID      `json:"courseId"`
	TotalLessons     int            `json:"totalLessons"`
	CompletedLessons int            `json:"completedLessons"`
	ProgressPercent  int            `json:"progressPercent"`
	Status           string         `json:"status"`
	Lessons          []LessonStatus `json:"lessons"`
}

// Service implements lesson completion and progress reporting.
type Service struct {
	enrollments EnrollmentRepository
	lessons     LessonRepository
	progress    ProgressRepository
	now         func() time.Time
}

// NewService creates a progress Service over the given repositories.
func NewService(enrollments EnrollmentRepository, lessons LessonRepository, progress ProgressRepository) *Service {
	return &Service{
		enrollments: enrollments,
		lessons:     lessons,
		progress:    progress,
		now:         time.Now,
	}
}

// activeEnrollment returns the enrollment if it grants access to the
// course, otherwise NotEnrolled.
func (s *Service) activeEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	e, err := s.enrollments.FindByUserCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	if e == nil || !e.GrantsAccess() {
		return nil, apperr.ErrNotEnrolled
	}
	return e, nil
}

// MarkLessonComplete records lessonID as completed for userID and
// recomputes the enrollment's progress. Repeating the call is harmless.
func (s *Service) MarkLessonComplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.Progress, error) {
	enrollment, err := s.activeEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	lesson, err := s.lessons.FindPublishedInCourse(ctx, lessonID, courseID)
	if err != nil {
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	if lesson == nil {
		return nil, apperr.ErrLessonNotFound
	}

	now := s.now()
	p, err := s.progress.UpsertCompleted(ctx, userID, lessonID, now)
	if err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}

	if err := s.recompute(ctx, enrollment, now); err != nil {
		return nil, err
	}
	return p, nil
}

// recompute refreshes the enrollment's percentage from current counts.
func (s *Service) recompute(ctx context.Context, enrollment *models.Enrollment, now time.Time) error {
	total, err := s.lessons.CountPublished(ctx, enrollment.CourseID)
	if err != nil {
		return fmt.Errorf("count lessons: %w", err)
	}

	completed, err := s.progress.CountCompleted(ctx, enrollment.UserID, enrollment.CourseID)
	if err != nil {
		return fmt.Errorf("count completed: %w", err)
	}

	percent, ok := Percent(completed, total)
	if !ok {
		return nil
	}

	var completedAt *time.Time
	if percent == 100 && !enrollment.IsCompleted() {
		completedAt = &now
	}

	if err := s.enrollments.UpdateProgress(ctx, enrollment.ID, percent, completedAt); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}

	if completedAt != nil {
		slog.Info("course completed",
			"user_id", enrollment.UserID,
			"course_id", enrollment.CourseID,
		)
	}
	return nil
}

// UpdateWatchPosition stores the playback position for a lesson. It does
// not mark the lesson complete and does not touch the enrollment.
func (s *Service) UpdateWatchPosition(ctx context.Context, userID, courseID, lessonID uuid.UUID, seconds int) (*models.Progress, error) {
	if seconds < 0 {
		return nil, apperr.BadRequest("position must not be negative")
	}
	if _, err := s.activeEnrollment(ctx, userID, courseID); err != nil {
		return nil, err
	}

	lesson, err := s.lessons.FindPublishedInCourse(ctx, lessonID, courseID)
	if err != nil {
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	if lesson == nil {
		return nil, apperr.ErrLessonNotFound
	}

	p, err := s.progress.UpsertWatchPosition(ctx, userID, lessonID, seconds)
	if err != nil {
		return nil, fmt.Errorf("upsert watch position: %w", err)
	}
	return p, nil
}

// CourseProgress derives the caller's progress through a course without
// mutating anything. With no published lessons it reports the stored
// enrollment percentage, which is what the write path leaves in place.
func (s *Service) CourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*CourseProgress, error) {
	enrollment, err := s.activeEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	lessons, err := s.lessons.ListPublished(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}

	done, err := s.progress.CompletedLessonIDs(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("completed lessons: %w", err)
	}

	out := &CourseProgress{
		CourseID:     courseID,
		TotalLessons: len(lessons),
		Status:       string(enrollment.Status),
		Lessons:      make([]LessonStatus, 0, len(lessons)),
	}
	for _, l := range lessons {
		completed := done[l.ID]
		if completed {
			out.CompletedLessons++
		}
		out.Lessons = append(out.Lessons, LessonStatus{
			ID:          l.ID,
			Title:       l.Title,
			Order:       l.Order,
			IsCompleted: completed,
		})
	}

	if percent, ok := Percent(out.CompletedLessons, out.TotalLessons); ok {
		out.ProgressPercent = percent
	} else {
		out.ProgressPercent = enrollment.ProgressPercent
	}
	return out, nil
}
