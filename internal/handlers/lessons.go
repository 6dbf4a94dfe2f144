// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"coursemart/internal/apperr"
	"coursemart/internal/markdown"
	"coursemart/internal/models"
	"coursemart/internal/storage"
)

var errMediaUnavailable = apperr.Unavailable("file storage is not configured")

// Lessons serves lesson content to learners and lesson management to
// course owners.
type Lessons struct {
	courses     CourseRepository
	lessons     LessonRepository
	enrollments EnrollmentRepository
	cache       CatalogCache
	media       MediaStorage
}

// NewLessons creates a new Lessons handler group. media may be nil, in
// which case lessons are served without video URLs.
func NewLessons(courses CourseRepository, lessons LessonRepository, enrollments EnrollmentRepository, c CatalogCache, media MediaStorage) *Lessons {
	return &Lessons{courses: courses, lessons: lessons, enrollments: enrollments, cache: c, media: media}
}

type lessonRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Content         string `json:"content" validate:"max=200000"`
	VideoKey        string `json:"videoKey" validate:"max=500"`
	DurationSeconds int    `json:"durationSeconds" validate:"min=0"`
	Order           int    `json:"order" validate:"min=0"`
	IsPublished     bool   `json:"isPublished"`
	IsPreview       bool   `json:"isPreview"`
}

// lessonView is a lesson as delivered to a learner.
type lessonView struct {
	models.Lesson
	ContentHTML    string             `json:"contentHtml"`
	Outline        []markdown.Heading `json:"outline"`
	ReadingMinutes int                `json:"readingMinutes"`
	VideoURL       string             `json:"videoUrl,omitempty"`
}

// Get returns a lesson with rendered content. Owners and admins see any
// lesson of the course. Everyone else needs a published lesson of a
// published course, and an enrollment unless the lesson is a preview.
func (h *Lessons) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	courseID, err := pathUUID(r, "courseId", errCourseNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lessonID, err := pathUUID(r, "lessonId", apperr.ErrLessonNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}

	course, err := h.courses.FindByID(ctx, courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if course == nil {
		writeError(w, r, errCourseNotFound)
		return
	}

	lesson, err := h.lessons.FindInCourse(ctx, lessonID, courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if lesson == nil {
		writeError(w, r, apperr.ErrLessonNotFound)
		return
	}

	// Unpublishing a course hides it from new learners only; existing
	// enrollments keep their lessons.
	if !canManage(id, course) {
		if !lesson.IsPublished {
			writeError(w, r, apperr.ErrLessonNotFound)
			return
		}
		enrolled := false
		if !lesson.IsPreview || !course.IsPublished {
			enrollment, err := h.enrollments.FindByUserCourse(ctx, id.DBID, courseID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			enrolled = enrollment != nil && enrollment.GrantsAccess()
		}
		if !course.IsPublished && !enrolled {
			writeError(w, r, apperr.ErrLessonNotFound)
			return
		}
		if !lesson.IsPreview && !enrolled {
			writeError(w, r, apperr.ErrNotEnrolled)
			return
		}
	}

	doc, err := markdown.Render(lesson.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := lessonView{
		Lesson:         *lesson,
		ContentHTML:    doc.HTML,
		Outline:        doc.Outline,
		ReadingMinutes: doc.ReadingMinutes,
	}
	if lesson.HasVideo() && h.media != nil {
		view.VideoURL, err = h.media.VideoURL(ctx, lesson.VideoKey)
		if err != nil {
			slog.Error("failed to sign video URL", "lesson_id", lesson.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, view)
}

// List returns every lesson of a course, drafts included, for its owner.
func (h *Lessons) List(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	course, err := loadManagedCourse(r, h.courses, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	lessons, err := h.lessons.ListByCourse(r.Context(), course.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	writeJSON(w, http.StatusOK, lessons)
}

type videoUploadRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,oneof=video/mp4 video/webm video/quicktime"`
}

type videoUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	VideoKey  string `json:"videoKey"`
	ExpiresIn int    `json:"expiresIn"`
}

// VideoUpload hands the course owner a presigned URL to PUT a lesson
// video to. The returned key is then saved on the lesson.
func (h *Lessons) VideoUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.media == nil {
		writeError(w, r, errMediaUnavailable)
		return
	}

	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	course, err := loadManagedCourse(r, h.courses, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lessonID, err := pathUUID(r, "lessonId", apperr.ErrLessonNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lesson, err := h.lessons.FindInCourse(ctx, lessonID, course.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if lesson == nil {
		writeError(w, r, apperr.ErrLessonNotFound)
		return
	}

	var req videoUploadRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	key := storage.VideoKey(course.ID, lesson.ID, req.Filename)
	uploadURL, expiry, err := h.media.VideoUploadURL(ctx, key, req.ContentType)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, videoUploadResponse{
		UploadURL: uploadURL,
		VideoKey:  key,
		ExpiresIn: int(expiry.Seconds()),
	})
}

// checkVideo rejects a video key that was never uploaded. Without storage
// the key cannot be verified and is accepted as is.
func (h *Lessons) checkVideo(r *http.Request, l *models.Lesson) error {
	if !l.HasVideo() || h.media == nil {
		return nil
	}
	ok, err := h.media.VideoExists(r.Context(), l.VideoKey)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.BadRequest("video has not been uploaded")
	}
	return nil
}

func applyLessonRequest(req *lessonRequest, l *models.Lesson) {
	l.Title = strings.TrimSpace(req.Title)
	l.Content = req.Content
	l.VideoKey = strings.TrimSpace(req.VideoKey)
	l.DurationSeconds = req.DurationSeconds
	l.Order = req.Order
	l.IsPublished = req.IsPublished
	l.IsPreview = req.IsPreview
}

// Create adds a lesson to a course. An order of 0 appends it.
func (h *Lessons) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	course, err := loadManagedCourse(r, h.courses, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req lessonRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	lesson := &models.Lesson{CourseID: course.ID}
	applyLessonRequest(&req, lesson)
	if err := h.checkVideo(r, lesson); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.lessons.Create(ctx, lesson)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.cache.InvalidateAll(ctx)
	writeJSON(w, http.StatusCreated, created)
}

// Update replaces the editable fields of a lesson.
func (h *Lessons) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	course, err := loadManagedCourse(r, h.courses, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lessonID, err := pathUUID(r, "lessonId", apperr.ErrLessonNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req lessonRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	lesson := &models.Lesson{ID: lessonID, CourseID: course.ID}
	applyLessonRequest(&req, lesson)
	if err := h.checkVideo(r, lesson); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.lessons.Update(ctx, lesson)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if updated == nil {
		writeError(w, r, apperr.ErrLessonNotFound)
		return
	}

	h.cache.InvalidateAll(ctx)
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a lesson and its progress rows.
func (h *Lessons) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	course, err := loadManagedCourse(r, h.courses, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lessonID, err := pathUUID(r, "lessonId", apperr.ErrLessonNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := h.lessons.Delete(ctx, lessonID, course.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, apperr.ErrLessonNotFound)
		return
	}

	h.cache.InvalidateAll(ctx)
	w.WriteHeader(http.StatusNoContent)
}
