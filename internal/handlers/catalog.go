// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coursemart/internal/apperr"
	"coursemart/internal/auth"
	"coursemart/internal/cache"
	"coursemart/internal/models"
	"coursemart/internal/slug"
	"coursemart/internal/storage"
	"coursemart/internal/store"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	maxPage          = math.MaxInt32 / maxPageSize
	maxThumbnailSize = 5 << 20
)

var thumbnailTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var (
	errCourseNotFound   = apperr.NotFound("course not found")
	errCategoryNotFound = apperr.NotFound("category not found")
	errNotCourseOwner   = apperr.Forbidden("only the course instructor can do this")
)

// Catalog groups category and course endpoints. Public reads go through
// the catalog cache and every write clears it.
type Catalog struct {
	categories CategoryRepository
	courses    CourseRepository
	lessons    LessonRepository
	cache      CatalogCache
	media      MediaStorage
}

// NewCatalog creates a new Catalog handler group. media may be nil when
// object storage is not configured.
func NewCatalog(categories CategoryRepository, courses CourseRepository, lessons LessonRepository, c CatalogCache, media MediaStorage) *Catalog {
	return &Catalog{categories: categories, courses: courses, lessons: lessons, cache: c, media: media}
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type courseRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Summary     string `json:"summary" validate:"max=500"`
	Description string `json:"description" validate:"max=20000"`
	Level       string `json:"level" validate:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	PriceCents  int64  `json:"priceCents" validate:"min=0,max=100000000"`
	CategoryID  string `json:"categoryId" validate:"omitempty,uuid"`
}

type courseList struct {
	Items []models.Course `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// OutlineLesson is a published lesson as shown on a course page.
type OutlineLesson struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Order           int       `json:"order"`
	DurationSeconds int       `json:"durationSeconds"`
	IsPreview       bool      `json:"isPreview"`
}

type courseDetail struct {
	models.Course
	Lessons []OutlineLesson `json:"lessons"`
}

func (c *Catalog) invalidate(ctx context.Context, action string, id uuid.UUID) {
	c.cache.InvalidateAll(ctx)
	slog.Debug("catalog invalidated", "action", action, "id", id)
}

// --- Categories ---

// ListCategories returns all categories with published course counts.
func (c *Catalog) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cats []models.Category
	if c.cache.Get(ctx, cache.CategoriesKey(), &cats) {
		writeJSON(w, http.StatusOK, cats)
		return
	}

	cats, err := c.categories.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	c.cache.Set(ctx, cache.CategoriesKey(), cats)
	writeJSON(w, http.StatusOK, cats)
}

// CreateCategory adds a category with a unique slug derived from its name.
func (c *Catalog) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req categoryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := slug.Unique(ctx, req.Name, c.categories.SlugExists)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cat, err := c.categories.Create(ctx, strings.TrimSpace(req.Name), s, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c.invalidate(ctx, "category_create", cat.ID)
	writeJSON(w, http.StatusCreated, cat)
}

// UpdateCategory renames a category. Its slug is kept stable.
func (c *Catalog) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathUUID(r, "categoryId", errCategoryNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req categoryRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cat, err := c.categories.Update(ctx, id, strings.TrimSpace(req.Name), req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cat == nil {
		writeError(w, r, errCategoryNotFound)
		return
	}

	c.invalidate(ctx, "category_update", id)
	writeJSON(w, http.StatusOK, cat)
}

// DeleteCategory removes a category. Its courses become uncategorised.
func (c *Catalog) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathUUID(r, "categoryId", errCategoryNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := c.categories.Delete(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, errCategoryNotFound)
		return
	}

	c.invalidate(ctx, "category_delete", id)
	w.WriteHeader(http.StatusNoContent)
}

// --- Courses ---

// pageParams reads page and limit query parameters with bounds. The page
// cap keeps (page-1)*limit from overflowing.
func pageParams(q url.Values) (page, limit int) {
	page, _ = strconv.Atoi(q.Get("page"))
	switch {
	case page < 1:
		page = 1
	case page > maxPage:
		page = maxPage
	}
	limit, _ = strconv.Atoi(q.Get("limit"))
	switch {
	case limit < 1:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	return page, limit
}

// ListCourses returns published courses, optionally filtered by category
// slug and title search.
func (c *Catalog) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	page, limit := pageParams(q)

	key := cache.CoursesKey(url.Values{
		"category": {q.Get("category")},
		"q":        {strings.TrimSpace(q.Get("q"))},
		"page":     {strconv.Itoa(page)},
		"limit":    {strconv.Itoa(limit)},
	})

	var out courseList
	if c.cache.Get(ctx, key, &out) {
		writeJSON(w, http.StatusOK, out)
		return
	}

	items, total, err := c.courses.List(ctx, store.CourseFilter{
		PublishedOnly: true,
		CategorySlug:  q.Get("category"),
		Query:         q.Get("q"),
		Limit:         limit,
		Offset:        (page - 1) * limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []models.Course{}
	}

	out = courseList{Items: items, Total: total, Page: page, Limit: limit}
	c.cache.Set(ctx, key, out)
	writeJSON(w, http.StatusOK, out)
}

// findCourse resolves a course reference that may be a UUID or a slug.
func (c *Catalog) findCourse(ctx context.Context, ref string) (*models.Course, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return c.courses.FindByID(ctx, id)
	}
	return c.courses.FindBySlug(ctx, ref)
}

// GetCourse returns a published course with its lesson outline. The
// course may be addressed by ID or slug.
func (c *Catalog) GetCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := chi.URLParam(r, "courseId")
	key := cache.CourseKey(ref)

	var out courseDetail
	if c.cache.Get(ctx, key, &out) {
		writeJSON(w, http.StatusOK, out)
		return
	}

	course, err := c.findCourse(ctx, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if course == nil || !course.IsPublished {
		writeError(w, r, errCourseNotFound)
		return
	}

	lessons, err := c.lessons.ListPublished(ctx, course.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out = courseDetail{Course: *course, Lessons: make([]OutlineLesson, 0, len(lessons))}
	for _, l := range lessons {
		out.Lessons = append(out.Lessons, OutlineLesson{
			ID:              l.ID,
			Title:           l.Title,
			Order:           l.Order,
			DurationSeconds: l.DurationSeconds,
			IsPreview:       l.IsPreview,
		})
	}

	c.cache.Set(ctx, key, out)
	writeJSON(w, http.StatusOK, out)
}

// InstructorCourses lists the caller's own courses, drafts included.
func (c *Catalog) InstructorCourses(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, _, err := c.courses.List(r.Context(), store.CourseFilter{InstructorID: &id.DBID, Limit: maxPageSize})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []models.Course{}
	}
	writeJSON(w, http.StatusOK, items)
}

// applyCourseRequest copies validated fields onto course.
func (c *Catalog) applyCourseRequest(ctx context.Context, req *courseRequest, course *models.Course) error {
	course.Title = strings.TrimSpace(req.Title)
	course.Summary = req.Summary
	course.Description = req.Description
	course.PriceCents = req.PriceCents
	course.Level = models.CourseLevel(req.Level)
	if course.Level == "" {
		course.Level = models.LevelBeginner
	}

	course.CategoryID = nil
	if req.CategoryID != "" {
		catID := uuid.MustParse(req.CategoryID)
		cat, err := c.categories.FindByID(ctx, catID)
		if err != nil {
			return err
		}
		if cat == nil {
			return apperr.BadRequest("unknown category")
		}
		course.CategoryID = &catID
	}
	return nil
}

// CreateCourse creates a draft course owned by the caller.
func (c *Catalog) CreateCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req courseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	course := &models.Course{InstructorID: id.DBID}
	if err := c.applyCourseRequest(ctx, &req, course); err != nil {
		writeError(w, r, err)
		return
	}

	course.Slug, err = slug.Unique(ctx, course.Title, c.courses.SlugExists)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := c.courses.Create(ctx, course)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("course created", "course_id", created.ID, "instructor_id", id.DBID)
	writeJSON(w, http.StatusCreated, created)
}

// managedCourse loads the course named by the URL and checks that the
// caller may edit it.
func (c *Catalog) managedCourse(r *http.Request) (*models.Course, error) {
	id, err := identityOf(r)
	if err != nil {
		return nil, err
	}
	return loadManagedCourse(r, c.courses, id)
}

// UpdateCourse replaces the editable fields of a course.
func (c *Catalog) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	course, err := c.managedCourse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req courseRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.applyCourseRequest(ctx, &req, course); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := c.courses.Update(ctx, course)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c.invalidate(ctx, "course_update", course.ID)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteCourse removes a course. Purchased courses cannot be deleted.
func (c *Catalog) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	course, err := c.managedCourse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.courses.Delete(ctx, course.ID); err != nil {
		writeError(w, r, err)
		return
	}

	c.invalidate(ctx, "course_delete", course.ID)
	w.WriteHeader(http.StatusNoContent)
}

// PublishCourse makes a course visible in the catalog.
func (c *Catalog) PublishCourse(w http.ResponseWriter, r *http.Request) {
	c.setPublished(w, r, true)
}

// UnpublishCourse hides a course from the catalog. Existing enrollments
// keep working.
func (c *Catalog) UnpublishCourse(w http.ResponseWriter, r *http.Request) {
	c.setPublished(w, r, false)
}

func (c *Catalog) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	ctx := r.Context()

	course, err := c.managedCourse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.courses.SetPublished(ctx, course.ID, published); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := c.courses.FindByID(ctx, course.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c.invalidate(ctx, "course_publish", course.ID)
	slog.Info("course publish state changed", "course_id", course.ID, "published", published)
	writeJSON(w, http.StatusOK, updated)
}

// loadManagedCourse loads the {courseId} course and checks that id owns
// it or is an admin.
func loadManagedCourse(r *http.Request, courses CourseRepository, id *auth.Identity) (*models.Course, error) {
	courseID, err := pathUUID(r, "courseId", errCourseNotFound)
	if err != nil {
		return nil, err
	}
	course, err := courses.FindByID(r.Context(), courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, errCourseNotFound
	}
	if !canManage(id, course) {
		return nil, errNotCourseOwner
	}
	return course, nil
}

// UploadThumbnail stores a course image in the public bucket and points
// the course at it. A previous thumbnail is removed afterwards.
func (c *Catalog) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if c.media == nil {
		writeError(w, r, errMediaUnavailable)
		return
	}

	course, err := c.managedCourse(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxThumbnailSize+1024)
	if err := r.ParseMultipartForm(maxThumbnailSize); err != nil {
		writeError(w, r, apperr.BadRequest("file too large or invalid form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.BadRequest("file is required"))
		return
	}
	defer file.Close()

	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)
	contentType := http.DetectContentType(sniff[:n])
	if !thumbnailTypes[contentType] {
		writeError(w, r, apperr.BadRequest("unsupported image type"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, r, fmt.Errorf("rewind upload: %w", err))
		return
	}

	key := storage.ThumbnailKey(course.ID, header.Filename)
	fileURL, err := c.media.UploadThumbnail(ctx, key, contentType, file, header.Size)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := c.courses.SetThumbnail(ctx, course.ID, fileURL); err != nil {
		writeError(w, r, err)
		return
	}

	if old, ok := c.media.ExtractKey(course.ThumbnailURL); ok && old != key {
		if err := c.media.DeletePublic(ctx, old); err != nil {
			slog.Warn("failed to delete old thumbnail", "key", old, "error", err)
		}
	}

	c.invalidate(ctx, "course_thumbnail", course.ID)
	course.ThumbnailURL = fileURL
	writeJSON(w, http.StatusOK, course)
}
