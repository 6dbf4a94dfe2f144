// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coursemart/internal/models"
)

const progressColumns = `id, user_id, lesson_id, is_completed, completed_at, watch_position_seconds, updated_at`

// ProgressStore handles per-lesson progress rows. Every write is an
// upsert keyed by (user_id, lesson_id).
type ProgressStore struct {
	db *sql.DB
}

// NewProgressStore creates a new ProgressStore.
func NewProgressStore(db *sql.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func scanProgress(row scanner) (*models.Progress, error) {
	var p models.Progress
	err := row.Scan(&p.ID, &p.UserID, &p.LessonID, &p.IsCompleted, &p.CompletedAt,
		&p.WatchPositionSeconds, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertCompleted marks the lesson completed. An already completed row
// keeps its first completion time.
func (s *ProgressStore) UpsertCompleted(ctx context.Context, userID, lessonID uuid.UUID, at time.Time) (*models.Progress, error) {
	p, err := scanProgress(s.db.QueryRowContext(ctx, `
		INSERT INTO progress (user_id, lesson_id, is_completed, completed_at)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (user_id, lesson_id) DO UPDATE
		SET is_completed = TRUE,
		    completed_at = COALESCE(progress.completed_at, EXCLUDED.completed_at),
		    updated_at = NOW()
		RETURNING `+progressColumns, userID, lessonID, at))
	if err != nil {
		return nil, fmt.Errorf("upsert completed progress: %w", err)
	}
	return p, nil
}

// UpsertWatchPosition stores the playback position without touching the
// completion flag.
func (s *ProgressStore) UpsertWatchPosition(ctx context.Context, userID, lessonID uuid.UUID, seconds int) (*models.Progress, error) {
	p, err := scanProgress(s.db.QueryRowContext(ctx, `
		INSERT INTO progress (user_id, lesson_id, watch_position_seconds)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, lesson_id) DO UPDATE
		SET watch_position_seconds = EXCLUDED.watch_position_seconds,
		    updated_at = NOW()
		RETURNING `+progressColumns, userID, lessonID, seconds))
	if err != nil {
		return nil, fmt.Errorf("upsert watch position: %w", err)
	}
	return p, nil
}

// CountCompleted counts completed rows on the published lessons of courseID.
func (s *ProgressStore) CountCompleted(ctx context.Context, userID, courseID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM progress p
		JOIN lessons l ON l.id = p.lesson_id
		WHERE p.user_id = $1 AND l.course_id = $2 AND l.is_published AND p.is_completed
	`, userID, courseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed lessons: %w", err)
	}
	return n, nil
}

// CompletedLessonIDs returns the completed published lessons of courseID.
func (s *ProgressStore) CompletedLessonIDs(ctx context.Context, userID, courseID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.lesson_id
		FROM progress p
		JOIN lessons l ON l.id = p.lesson_id
		WHERE p.user_id = $1 AND l.course_id = $2 AND l.is_published AND p.is_completed
	`, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("completed lesson ids: %w", err)
	}
	defer rows.Close()

	done := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan lesson id: %w", err)
		}
		done[id] = true
	}
	return done, rows.Err()
}

// FindByUserLesson returns the progress row for (userID, lessonID).
func (s *ProgressStore) FindByUserLesson(ctx context.Context, userID, lessonID uuid.UUID) (*models.Progress, error) {
	p, err := scanProgress(s.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM progress WHERE user_id = $1 AND lesson_id = $2`, userID, lessonID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return p, nil
}
