// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP API. Handler groups depend on
// small repository interfaces satisfied by internal/store, so they can be
// exercised with in-memory fakes.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coursemart/internal/apperr"
	"coursemart/internal/auth"
	"coursemart/internal/models"
	"coursemart/internal/progress"
	"coursemart/internal/store"
)

// UserRepository reads and writes local user accounts.
type UserRepository interface {
	FindByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, f store.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, firebaseUID, email, displayName string, role models.Role) (*models.User, error)
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
}

// CategoryRepository manages course categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, name, slug, description string) (*models.Category, error)
	Update(ctx context.Context, id uuid.UUID, name, description string) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// CourseRepository manages courses.
type CourseRepository interface {
	List(ctx context.Context, f store.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	FindBySlug(ctx context.Context, slug string) (*models.Course, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, c *models.Course) (*models.Course, error)
	Update(ctx context.Context, c *models.Course) (*models.Course, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	SetThumbnail(ctx context.Context, id uuid.UUID, url string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LessonRepository manages lessons of a course.
type LessonRepository interface {
	ListPublished(ctx context.Context, courseID uuid.UUID) ([]models.Lesson, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Lesson, error)
	FindInCourse(ctx context.Context, lessonID, courseID uuid.UUID) (*models.Lesson, error)
	Create(ctx context.Context, l *models.Lesson) (*models.Lesson, error)
	Update(ctx context.Context, l *models.Lesson) (*models.Lesson, error)
	Delete(ctx context.Context, lessonID, courseID uuid.UUID) (bool, error)
}

// EnrollmentRepository reads and creates enrollments.
type EnrollmentRepository interface {
	FindByUserCourse(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error)
	Create(ctx context.Context, userID, courseID uuid.UUID) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Enrollment, error)
}

// CartRepository manages a user's cart.
type CartRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Add(ctx context.Context, userID, courseID uuid.UUID) error
	Remove(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
}

// OrderRepository runs checkout and lists orders.
type OrderRepository interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

// ProgressService is the lesson completion and progress unit.
type ProgressService interface {
	MarkLessonComplete(ctx context.Context, userID, courseID, lessonID uuid.UUID) (*models.Progress, error)
	UpdateWatchPosition(ctx context.Context, userID, courseID, lessonID uuid.UUID, seconds int) (*models.Progress, error)
	CourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*progress.CourseProgress, error)
}

// MediaStorage stores course thumbnails and lesson videos.
type MediaStorage interface {
	UploadThumbnail(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	DeletePublic(ctx context.Context, key string) error
	ExtractKey(rawURL string) (string, bool)
	VideoURL(ctx context.Context, key string) (string, error)
	VideoUploadURL(ctx context.Context, key, contentType string) (string, time.Duration, error)
	VideoExists(ctx context.Context, key string) (bool, error)
}

// CatalogCache caches public catalog reads.
type CatalogCache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any)
	InvalidateAll(ctx context.Context)
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	apperr.WriteJSON(w, status, v)
}

// writeError translates store sentinels into the error taxonomy and
// writes the JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		err = apperr.Wrap(apperr.KindConflict, apperr.ErrConflict.Message, err)
	case errors.Is(err, store.ErrEmptyCart):
		err = apperr.Wrap(apperr.KindBadRequest, "cart is empty", err)
	case errors.Is(err, store.ErrReferenced):
		err = apperr.Wrap(apperr.KindConflict, "resource is still in use", err)
	}
	apperr.Write(w, r, err)
}

// writeMessage writes {"message": msg}.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apperr.Body{Message: msg})
}

// pathUUID parses a UUID URL parameter. A malformed ID is reported as
// notFound, since no resource can have it.
func pathUUID(r *http.Request, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

// identityOf returns the caller attached by the guard. Protected routes
// always have one.
func identityOf(r *http.Request) (*auth.Identity, error) {
	id := auth.FromContext(r.Context())
	if id == nil {
		return nil, apperr.ErrInvalidCredential
	}
	return id, nil
}

// canManage reports whether id may edit course.
func canManage(id *auth.Identity, course *models.Course) bool {
	return id.IsAdmin() || course.OwnedBy(id.DBID)
}
