// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Lesson is an ordered unit of a course. Only published lessons are
// visible to students and count toward progress.
type Lesson struct {
	ID              uuid.UUID `json:"id"`
	CourseID        uuid.UUID `json:"courseId"`
	Title           string    `json:"title"`
	Content         string    `json:"content"` // Markdown source
	VideoKey        string    `json:"-"`       // Object key in the private bucket
	DurationSeconds int       `json:"durationSeconds"`
	Order           int       `json:"order"`
	IsPublished     bool      `json:"isPublished"`
	IsPreview       bool      `json:"isPreview"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HasVideo reports whether a video object is attached to the lesson.
func (l *Lesson) HasVideo() bool {
	return l.VideoKey != ""
}
