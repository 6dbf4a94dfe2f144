// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"coursemart/internal/apperr"
	"coursemart/internal/models"
	"coursemart/internal/store"
)

// Learning exposes enrollment and progress tracking to learners.
type Learning struct {
	progress    ProgressService
	courses     CourseRepository
	enrollments EnrollmentRepository
}

// NewLearning creates a new Learning handler group.
func NewLearning(progress ProgressService, courses CourseRepository, enrollments EnrollmentRepository) *Learning {
	return &Learning{progress: progress, courses: courses, enrollments: enrollments}
}

type completionResponse struct {
	ID          uuid.UUID  `json:"id"`
	LessonID    uuid.UUID  `json:"lessonId"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt"`
}

type positionRequest struct {
	PositionSeconds *int `json:"positionSeconds" validate:"required,min=0"`
}

// learnerPath returns the caller and the course and lesson IDs of a
// lesson route.
func learnerPath(r *http.Request) (userID, courseID, lessonID uuid.UUID, err error) {
	id, err := identityOf(r)
	if err != nil {
		return
	}
	userID = id.DBID
	if courseID, err = pathUUID(r, "courseId", errCourseNotFound); err != nil {
		return
	}
	lessonID, err = pathUUID(r, "lessonId", apperr.ErrLessonNotFound)
	return
}

// CompleteLesson marks a lesson complete for the caller and recomputes the
// enrollment's progress.
func (h *Learning) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, courseID, lessonID, err := learnerPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.progress.MarkLessonComplete(r.Context(), userID, courseID, lessonID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, completionResponse{
		ID:          p.ID,
		LessonID:    p.LessonID,
		IsCompleted: p.IsCompleted,
		CompletedAt: p.CompletedAt,
	})
}

// UpdatePosition records how far the caller has watched a lesson.
func (h *Learning) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	userID, courseID, lessonID, err := learnerPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req positionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.progress.UpdateWatchPosition(r.Context(), userID, courseID, lessonID, *req.PositionSeconds)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CourseProgress returns the caller's progress through a course.
func (h *Learning) CourseProgress(w http.ResponseWriter, r *http.Request) {
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

	out, err := h.progress.CourseProgress(r.Context(), id.DBID, courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Enroll enrolls the caller in a free published course. Paid courses go
// through the cart.
func (h *Learning) Enroll(w http.ResponseWriter, r *http.Request) {
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

	course, err := h.courses.FindByID(ctx, courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if course == nil || !course.IsPublished {
		writeError(w, r, errCourseNotFound)
		return
	}
	if !course.IsFree() {
		writeError(w, r, apperr.BadRequest("course is paid, purchase it through the cart"))
		return
	}

	enrollment, err := h.enrollments.Create(ctx, id.DBID, courseID)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, r, apperr.Conflict("already enrolled"))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user enrolled", "user_id", id.DBID, "course_id", courseID)
	writeJSON(w, http.StatusCreated, enrollment)
}

// Enrollments lists the caller's enrollments.
func (h *Learning) Enrollments(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.enrollments.ListByUser(r.Context(), id.DBID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Enrollment{}
	}
	writeJSON(w, http.StatusOK, list)
}
