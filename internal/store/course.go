// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"coursemart/internal/models"
)

// CourseStore handles course persistence.
type CourseStore struct {
	db *sql.DB
}

// NewCourseStore creates a new CourseStore.
func NewCourseStore(db *sql.DB) *CourseStore {
	return &CourseStore{db: db}
}

// courseSelect joins the instructor name, category slug and published
// lesson count onto every course row.
const courseSelect = `
	SELECT c.id, c.instructor_id, c.category_id, c.title, c.slug, c.summary, c.description,
	       c.level, c.price_cents, c.thumbnail_url, c.is_published, c.published_at,
	       c.created_at, c.updated_at,
	       u.display_name, COALESCE(cat.slug, ''),
	       (SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id AND l.is_published)
	FROM courses c
	JOIN users u ON u.id = c.instructor_id
	LEFT JOIN categories cat ON cat.id = c.category_id
`

func scanCourse(row scanner) (*models.Course, error) {
	var c models.Course
	err := row.Scan(
		&c.ID, &c.InstructorID, &c.CategoryID, &c.Title, &c.Slug, &c.Summary, &c.Description,
		&c.Level, &c.PriceCents, &c.ThumbnailURL, &c.IsPublished, &c.PublishedAt,
		&c.CreatedAt, &c.UpdatedAt,
		&c.InstructorName, &c.CategorySlug, &c.LessonCount,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CourseFilter narrows a course listing.
type CourseFilter struct {
	PublishedOnly bool
	CategorySlug  string
	InstructorID  *uuid.UUID
	Query         string // case-insensitive title match
	Limit         int
	Offset        int
}

// where builds the WHERE clause and arguments for f.
func (f CourseFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.PublishedOnly {
		conds = append(conds, "c.is_published")
	}
	if f.CategorySlug != "" {
		add("cat.slug = $%d", f.CategorySlug)
	}
	if f.InstructorID != nil {
		add("c.instructor_id = $%d", *f.InstructorID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		add("c.title ILIKE '%%' || $%d || '%%'", q)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns courses matching f and the total number of matches.
func (s *CourseStore) List(ctx context.Context, f CourseFilter) ([]models.Course, int, error) {
	where, args := f.where()

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM courses c
		LEFT JOIN categories cat ON cat.id = c.category_id`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query := courseSelect + where +
		fmt.Sprintf(" ORDER BY c.published_at DESC NULLS LAST, c.created_at DESC LIMIT %d OFFSET %d", limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, *c)
	}
	return courses, total, rows.Err()
}

// FindByID retrieves a course by ID regardless of publish state.
func (s *CourseStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, courseSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return c, nil
}

// FindBySlug retrieves a course by slug regardless of publish state.
func (s *CourseStore) FindBySlug(ctx context.Context, slug string) (*models.Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, courseSelect+` WHERE c.slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find course by slug: %w", err)
	}
	return c, nil
}

// SlugExists reports whether a course already uses slug.
func (s *CourseStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("course slug exists: %w", err)
	}
	return exists, nil
}

// Create inserts a draft course and returns it with joined fields.
func (s *CourseStore) Create(ctx context.Context, c *models.Course) (*models.Course, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO courses (instructor_id, category_id, title, slug, summary, description, level, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, c.InstructorID, c.CategoryID, c.Title, c.Slug, c.Summary, c.Description, c.Level, c.PriceCents).Scan(&id)
	if err != nil {
		return nil, wrapWrite("create course", err)
	}
	return s.FindByID(ctx, id)
}

// Update saves editable course fields. The slug is left unchanged.
func (s *CourseStore) Update(ctx context.Context, c *models.Course) (*models.Course, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE courses
		SET category_id = $1, title = $2, summary = $3, description = $4,
		    level = $5, price_cents = $6, updated_at = NOW()
		WHERE id = $7
	`, c.CategoryID, c.Title, c.Summary, c.Description, c.Level, c.PriceCents, c.ID)
	if err != nil {
		return nil, wrapWrite("update course", err)
	}
	return s.FindByID(ctx, c.ID)
}

// SetPublished publishes or unpublishes a course. published_at records
// the first publication.
func (s *CourseStore) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE courses
		SET is_published = $1,
		    published_at = CASE WHEN $1 THEN COALESCE(published_at, NOW()) ELSE published_at END,
		    updated_at = NOW()
		WHERE id = $2
	`, published, id)
	if err != nil {
		return fmt.Errorf("set course published: %w", err)
	}
	return nil
}

// SetThumbnail stores the public URL of the course thumbnail.
func (s *CourseStore) SetThumbnail(ctx context.Context, id uuid.UUID, url string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE courses SET thumbnail_url = $1, updated_at = NOW() WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("set course thumbnail: %w", err)
	}
	return nil
}

// Delete removes a course and, by cascade, its lessons and enrollments.
// Returns ErrReferenced if the course appears on an order.
func (s *CourseStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return wrapWrite("delete course", err)
	}
	return nil
}
