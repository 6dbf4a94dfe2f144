// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "PENDING"
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentExpired   EnrollmentStatus = "EXPIRED"
)

// Enrollment links a user to a course. There is at most one per
// (user, course) pair.
type Enrollment struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"userId"`
	CourseID        uuid.UUID        `json:"courseId"`
	Status          EnrollmentStatus `json:"status"`
	ProgressPercent int              `json:"progressPercent"`
	EnrolledAt      time.Time        `json:"enrolledAt"`
	CompletedAt     *time.Time       `json:"completedAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`

	// Joined for listings.
	CourseTitle string `json:"courseTitle,omitempty"`
	CourseSlug  string `json:"courseSlug,omitempty"`
}

// GrantsAccess reports whether the enrollment lets the user study the
// course. Pending and expired enrollments do not.
func (e *Enrollment) GrantsAccess() bool {
	return e.Status == EnrollmentActive || e.Status == EnrollmentCompleted
}

// IsCompleted returns true once the course has been finished.
func (e *Enrollment) IsCompleted() bool {
	return e.Status == EnrollmentCompleted
}
