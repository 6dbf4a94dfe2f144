// store_test.go provides a shared test database helper and fixtures for
// all store integration tests. Tests are skipped if PostgreSQL is not
// available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"

	"coursemart/internal/database"
	"coursemart/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Defaults match the development configuration.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "coursemart")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "coursemart")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB connects to the test database with a small pool and migrates
// it. Tests skip when PostgreSQL is down.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Connect(ctx, testDSN(), database.PoolConfig{MaxOpenConns: 4, MaxIdleConns: 2})
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// cleanUsers removes test users by email, deleting the courses they teach
// first. Enrollments, progress, carts and orders cascade.
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec(`DELETE FROM order_items WHERE course_id IN (
			SELECT c.id FROM courses c JOIN users u ON u.id = c.instructor_id WHERE u.email = $1)`, email)
		db.Exec(`DELETE FROM courses WHERE instructor_id IN (SELECT id FROM users WHERE email = $1)`, email)
		db.Exec(`DELETE FROM users WHERE email = $1`, email)
	}
}

// cleanCategories removes test categories by slug.
func cleanCategories(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM categories WHERE slug = $1", slug)
	}
}

// mustUser creates a user whose uid and email derive from tag and
// registers its cleanup.
func mustUser(t *testing.T, db *sql.DB, tag string, role models.Role) *models.User {
	t.Helper()
	email := tag + "@store-test.local"
	cleanUsers(t, db, email)
	t.Cleanup(func() { cleanUsers(t, db, email) })

	u, err := NewUserStore(db).Create(context.Background(), "uid-"+tag, email, tag, role)
	if err != nil {
		t.Fatalf("create user %s: %v", tag, err)
	}
	return u
}

// mustCourse creates a course taught by instructorID.
func mustCourse(t *testing.T, db *sql.DB, instructorID uuid.UUID, slug string, priceCents int64, published bool) *models.Course {
	t.Helper()
	s := NewCourseStore(db)
	ctx := context.Background()

	c, err := s.Create(ctx, &models.Course{
		InstructorID: instructorID,
		Title:        "Course " + slug,
		Slug:         slug,
		Level:        models.LevelBeginner,
		PriceCents:   priceCents,
	})
	if err != nil {
		t.Fatalf("create course %s: %v", slug, err)
	}
	if published {
		if err := s.SetPublished(ctx, c.ID, true); err != nil {
			t.Fatalf("publish course %s: %v", slug, err)
		}
		c.IsPublished = true
	}
	return c
}

// mustLesson creates a lesson appended to courseID.
func mustLesson(t *testing.T, db *sql.DB, courseID uuid.UUID, title string, published bool) *models.Lesson {
	t.Helper()
	l, err := NewLessonStore(db).Create(context.Background(), &models.Lesson{
		CourseID:    courseID,
		Title:       title,
		Content:     "# " + title,
		IsPublished: published,
	})
	if err != nil {
		t.Fatalf("create lesson %s: %v", title, err)
	}
	return l
}
