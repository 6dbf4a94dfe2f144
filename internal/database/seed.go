package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed firebase subjects. Create matching accounts in the Firebase Auth
// emulator (or project) to sign in as these users during development.
const (
	seedAdminUID      = "seed-admin"
	seedInstructorUID = "seed-instructor"
)

// Seed populates the database with development data: an admin, an
// instructor, a category, and one published course with three published
// lessons. It does nothing if any user already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO users (firebase_uid, email, display_name, role)
		VALUES ($1, 'admin@coursemart.local', 'Admin', 'ADMIN')
	`, seedAdminUID); err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	var instructorID string
	if err := tx.QueryRow(`
		INSERT INTO users (firebase_uid, email, display_name, role)
		VALUES ($1, 'instructor@coursemart.local', 'Ada Instructor', 'INSTRUCTOR')
		RETURNING id
	`, seedInstructorUID).Scan(&instructorID); err != nil {
		return fmt.Errorf("seed insert instructor: %w", err)
	}

	var categoryID string
	if err := tx.QueryRow(`
		INSERT INTO categories (name, slug, description)
		VALUES ('Programming', 'programming', 'Software development courses')
		RETURNING id
	`).Scan(&categoryID); err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	var courseID string
	if err := tx.QueryRow(`
		INSERT INTO courses (instructor_id, category_id, title, slug, summary, description, level, price_cents, is_published, published_at)
		VALUES ($1, $2, 'Go for Web Developers', 'go-for-web-developers',
		        'Build HTTP services in Go.', 'From handlers to databases.', 'BEGINNER', 0, TRUE, NOW())
		RETURNING id
	`, instructorID, categoryID).Scan(&courseID); err != nil {
		return fmt.Errorf("seed insert course: %w", err)
	}

	lessons := []struct {
		title   string
		content string
		preview bool
	}{
		{"Hello, net/http", "# Hello\n\nYour first `http.Handler`.", true},
		{"Routing with chi", "# Routing\n\nGroups, params and middleware.", false},
		{"Talking to PostgreSQL", "# Databases\n\n`database/sql` and pgx.", false},
	}
	for i, l := range lessons {
		if _, err := tx.Exec(`
			INSERT INTO lessons (course_id, title, content, duration_seconds, sort_order, is_published, is_preview)
			VALUES ($1, $2, $3, 600, $4, TRUE, $5)
		`, courseID, l.title, l.content, i+1, l.preview); err != nil {
			return fmt.Errorf("seed insert lesson %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded",
		"admin_uid", seedAdminUID,
		"instructor_uid", seedInstructorUID,
		"course", "go-for-web-developers",
	)
	return nil
}
