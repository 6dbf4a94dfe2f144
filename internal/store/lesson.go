// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"coursemart/internal/models"
)

const lessonColumns = `id, course_id, title, content, video_key, duration_seconds,
	sort_order, is_published, is_preview, created_at, updated_at`

// LessonStore handles lesson persistence.
type LessonStore struct {
	db *sql.DB
}

// NewLessonStore creates a new LessonStore.
func NewLessonStore(db *sql.DB) *LessonStore {
	return &LessonStore{db: db}
}

func scanLesson(row scanner) (*models.Lesson, error) {
	var l models.Lesson
	err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.VideoKey, &l.DurationSeconds,
		&l.Order, &l.IsPublished, &l.IsPreview, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *LessonStore) list(ctx context.Context, op, where string, args ...any) ([]models.Lesson, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE `+where+` ORDER BY sort_order ASC, created_at ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

func (s *LessonStore) findOne(ctx context.Context, op, where string, args ...any) (*models.Lesson, error) {
	l, err := scanLesson(s.db.QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE `+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// ListPublished returns the published lessons of a course in order.
func (s *LessonStore) ListPublished(ctx context.Context, courseID uuid.UUID) ([]models.Lesson, error) {
	return s.list(ctx, "list published lessons", "course_id = $1 AND is_published", courseID)
}

// ListByCourse returns every lesson of a course, drafts included.
func (s *LessonStore) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lesson, error) {
	return s.list(ctx, "list lessons", "course_id = $1", courseID)
}

// CountPublished counts the published lessons of a course.
func (s *LessonStore) CountPublished(ctx context.Context, courseID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lessons WHERE course_id = $1 AND is_published`, courseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count published lessons: %w", err)
	}
	return n, nil
}

// FindPublishedInCourse returns the lesson only if it belongs to courseID
// and is published.
func (s *LessonStore) FindPublishedInCourse(ctx context.Context, lessonID, courseID uuid.UUID) (*models.Lesson, error) {
	return s.findOne(ctx, "find published lesson", "id = $1 AND course_id = $2 AND is_published", lessonID, courseID)
}

// FindInCourse returns the lesson if it belongs to courseID, published or not.
func (s *LessonStore) FindInCourse(ctx context.Context, lessonID, courseID uuid.UUID) (*models.Lesson, error) {
	return s.findOne(ctx, "find lesson", "id = $1 AND course_id = $2", lessonID, courseID)
}

// Create inserts a lesson. A zero Order appends it after the last lesson.
func (s *LessonStore) Create(ctx context.Context, l *models.Lesson) (*models.Lesson, error) {
	out, err := scanLesson(s.db.QueryRowContext(ctx, `
		INSERT INTO lessons (course_id, title, content, video_key, duration_seconds, sort_order, is_published, is_preview)
		VALUES ($1, $2, $3, $4, $5,
		        CASE WHEN $6 > 0 THEN $6
		             ELSE (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM lessons WHERE course_id = $1) END,
		        $7, $8)
		RETURNING `+lessonColumns,
		l.CourseID, l.Title, l.Content, l.VideoKey, l.DurationSeconds, l.Order, l.IsPublished, l.IsPreview))
	if err != nil {
		return nil, wrapWrite("create lesson", err)
	}
	return out, nil
}

// Update saves every editable field of a lesson.
func (s *LessonStore) Update(ctx context.Context, l *models.Lesson) (*models.Lesson, error) {
	out, err := scanLesson(s.db.QueryRowContext(ctx, `
		UPDATE lessons
		SET title = $1, content = $2, video_key = $3, duration_seconds = $4,
		    sort_order = $5, is_published = $6, is_preview = $7, updated_at = NOW()
		WHERE id = $8 AND course_id = $9
		RETURNING `+lessonColumns,
		l.Title, l.Content, l.VideoKey, l.DurationSeconds, l.Order, l.IsPublished, l.IsPreview, l.ID, l.CourseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWrite("update lesson", err)
	}
	return out, nil
}

// Delete removes a lesson from a course. Returns false if nothing matched.
func (s *LessonStore) Delete(ctx context.Context, lessonID, courseID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1 AND course_id = $2`, lessonID, courseID)
	if err != nil {
		return false, fmt.Errorf("delete lesson: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete lesson rows affected: %w", err)
	}
	return n > 0, nil
}
