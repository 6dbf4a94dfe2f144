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

const enrollmentColumns = `e.id, e.user_id, e.course_id, e.status, e.progress_percent,
	e.enrolled_at, e.completed_at, e.updated_at`

// EnrollmentStore handles enrollment persistence.
type EnrollmentStore struct {
	db *sql.DB
}

// NewEnrollmentStore creates a new EnrollmentStore.
func NewEnrollmentStore(db *sql.DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

func scanEnrollment(row scanner, extra ...any) (*models.Enrollment, error) {
	var e models.Enrollment
	dest := append([]any{&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.ProgressPercent,
		&e.EnrolledAt, &e.CompletedAt, &e.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &e, nil
}

// FindByUserCourse returns the enrollment of userID in courseID.
func (s *EnrollmentStore) FindByUserCourse(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	e, err := scanEnrollment(s.db.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments e WHERE e.user_id = $1 AND e.course_id = $2`,
		userID, courseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return e, nil
}

// Create enrolls userID in courseID as ACTIVE. Returns ErrDuplicate if
// an enrollment already exists.
func (s *EnrollmentStore) Create(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error) {
	e, err := scanEnrollment(s.db.QueryRowContext(ctx, `
		INSERT INTO enrollments AS e (user_id, course_id, status)
		VALUES ($1, $2, 'ACTIVE')
		RETURNING `+enrollmentColumns, userID, courseID))
	if err != nil {
		return nil, wrapWrite("create enrollment", err)
	}
	return e, nil
}

// UpdateProgress stores the percentage. A non-nil completedAt moves an
// ACTIVE enrollment to COMPLETED; a COMPLETED enrollment keeps its status
// and first completion time.
func (s *EnrollmentStore) UpdateProgress(ctx context.Context, enrollmentID uuid.UUID, percent int, completedAt *time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE enrollments
		SET progress_percent = $1,
		    status = CASE WHEN $2::timestamptz IS NOT NULL AND status <> 'COMPLETED'
		                  THEN 'COMPLETED' ELSE status END,
		    completed_at = CASE WHEN $2::timestamptz IS NOT NULL AND status <> 'COMPLETED'
		                        THEN $2::timestamptz ELSE completed_at END,
		    updated_at = NOW()
		WHERE id = $3
	`, percent, completedAt, enrollmentID)
	if err != nil {
		return fmt.Errorf("update enrollment progress: %w", err)
	}
	return nil
}

// ListByUser returns a user's enrollments with course titles, newest first.
func (s *EnrollmentStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+enrollmentColumns+`, c.title, c.slug
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.enrolled_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var out []models.Enrollment
	for rows.Next() {
		var title, slug string
		e, err := scanEnrollment(rows, &title, &slug)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		e.CourseTitle, e.CourseSlug = title, slug
		out = append(out, *e)
	}
	return out, rows.Err()
}
