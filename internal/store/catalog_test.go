// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"coursemart/internal/models"
)

func TestCategoryStoreCRUD(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	slug := "test-category-crud"
	t.Cleanup(func() { cleanCategories(t, db, slug) })
	cleanCategories(t, db, slug)

	c, err := s.Create(ctx, "Test Category", slug, "desc")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Create(ctx, "Again", slug, ""); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate slug: got %v, want ErrDuplicate", err)
	}

	exists, err := s.SlugExists(ctx, slug)
	if err != nil || !exists {
		t.Errorf("SlugExists: got %v, %v", exists, err)
	}

	updated, err := s.Update(ctx, c.ID, "Renamed", "new desc")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Renamed" || updated.Slug != slug {
		t.Errorf("update: got name %q slug %q", updated.Name, updated.Slug)
	}

	found, err := s.FindBySlug(ctx, slug)
	if err != nil || found == nil {
		t.Fatalf("FindBySlug: %v, %v", found, err)
	}

	deleted, err := s.Delete(ctx, c.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete: got %v, %v", deleted, err)
	}
	deleted, err = s.Delete(ctx, c.ID)
	if err != nil || deleted {
		t.Errorf("second Delete: got %v, %v", deleted, err)
	}
}

func TestCourseStoreListPublishedOnly(t *testing.T) {
	db := testDB(t)
	s := NewCourseStore(db)
	ctx := context.Background()

	inst := mustUser(t, db, "test-course-list", models.RoleInstructor)
	pub := mustCourse(t, db, inst.ID, "test-course-list-pub", 0, true)
	mustCourse(t, db, inst.ID, "test-course-list-draft", 0, false)

	courses, total, err := s.List(ctx, CourseFilter{PublishedOnly: true, InstructorID: &inst.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(courses) != 1 {
		t.Fatalf("got %d courses (total %d), want 1", len(courses), total)
	}
	if courses[0].ID != pub.ID {
		t.Errorf("listed %s, want %s", courses[0].ID, pub.ID)
	}
	if courses[0].InstructorName != "test-course-list" {
		t.Errorf("instructor name: got %q", courses[0].InstructorName)
	}

	all, total, err := s.List(ctx, CourseFilter{InstructorID: &inst.ID})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("instructor listing: got %d (total %d), want 2", len(all), total)
	}

	found, _, err := s.List(ctx, CourseFilter{InstructorID: &inst.ID, Query: "LIST-PUB"})
	if err != nil {
		t.Fatalf("List query: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("title search: got %d, want 1", len(found))
	}
}

func TestCourseStoreSetPublishedKeepsFirstDate(t *testing.T) {
	db := testDB(t)
	s := NewCourseStore(db)
	ctx := context.Background()

	inst := mustUser(t, db, "test-course-publish", models.RoleInstructor)
	c := mustCourse(t, db, inst.ID, "test-course-publish", 0, true)

	first, _ := s.FindByID(ctx, c.ID)
	if first.PublishedAt == nil {
		t.Fatal("expected published_at after publishing")
	}

	if err := s.SetPublished(ctx, c.ID, false); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if err := s.SetPublished(ctx, c.ID, true); err != nil {
		t.Fatalf("republish: %v", err)
	}

	again, _ := s.FindByID(ctx, c.ID)
	if !again.IsPublished {
		t.Error("expected published")
	}
	if !again.PublishedAt.Equal(*first.PublishedAt) {
		t.Errorf("published_at changed: %v -> %v", first.PublishedAt, again.PublishedAt)
	}
}

func TestLessonStorePublishedQueries(t *testing.T) {
	db := testDB(t)
	s := NewLessonStore(db)
	ctx := context.Background()

	inst := mustUser(t, db, "test-lesson-queries", models.RoleInstructor)
	c := mustCourse(t, db, inst.ID, "test-lesson-queries", 0, true)
	other := mustCourse(t, db, inst.ID, "test-lesson-queries-other", 0, true)

	l1 := mustLesson(t, db, c.ID, "One", true)
	l2 := mustLesson(t, db, c.ID, "Two", true)
	draft := mustLesson(t, db, c.ID, "Draft", false)

	if l2.Order <= l1.Order {
		t.Errorf("lessons should append in order: %d then %d", l1.Order, l2.Order)
	}

	n, err := s.CountPublished(ctx, c.ID)
	if err != nil || n != 2 {
		t.Errorf("CountPublished: got %d, %v; want 2", n, err)
	}

	list, err := s.ListPublished(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(list) != 2 || list[0].ID != l1.ID || list[1].ID != l2.ID {
		t.Errorf("ListPublished order wrong: %+v", list)
	}

	tests := []struct {
		name     string
		lessonID uuid.UUID
		courseID uuid.UUID
		want     bool
	}{
		{"published in course", l1.ID, c.ID, true},
		{"draft", draft.ID, c.ID, false},
		{"other course", l1.ID, other.ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindPublishedInCourse(ctx, tt.lessonID, tt.courseID)
			if err != nil {
				t.Fatalf("FindPublishedInCourse: %v", err)
			}
			if (got != nil) != tt.want {
				t.Errorf("found=%v, want %v", got != nil, tt.want)
			}
		})
	}
}
