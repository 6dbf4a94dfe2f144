// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CourseLevel describes the intended audience of a course.
type CourseLevel string

const (
	LevelBeginner     CourseLevel = "BEGINNER"
	LevelIntermediate CourseLevel = "INTERMEDIATE"
	LevelAdvanced     CourseLevel = "ADVANCED"
)

// Course is a sellable unit of lessons authored by an instructor.
// Prices are stored in cents.
type Course struct {
	ID           uuid.UUID   `json:"id"`
	InstructorID uuid.UUID   `json:"instructorId"`
	CategoryID   *uuid.UUID  `json:"categoryId"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Summary      string      `json:"summary"`
	Description  string      `json:"description"`
	Level        CourseLevel `json:"level"`
	PriceCents   int64       `json:"priceCents"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	IsPublished  bool        `json:"isPublished"`
	PublishedAt  *time.Time  `json:"publishedAt"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	// Joined fields populated by listing queries.
	InstructorName string `json:"instructorName,omitempty"`
	CategorySlug   string `json:"categorySlug,omitempty"`
	LessonCount    int    `json:"lessonCount"`
}

// IsFree returns true when the course can be enrolled in without checkout.
func (c *Course) IsFree() bool {
	return c.PriceCents == 0
}

// OwnedBy returns true if the given user authored the course.
func (c *Course) OwnedBy(userID uuid.UUID) bool {
	return c.InstructorID == userID
}
