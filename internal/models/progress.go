// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Progress is a user's per-lesson record. There is at most one per
// (user, lesson) pair.
type Progress struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"userId"`
	LessonID             uuid.UUID  `json:"lessonId"`
	IsCompleted          bool       `json:"isCompleted"`
	CompletedAt          *time.Time `json:"completedAt"`
	WatchPositionSeconds int        `json:"watchPositionSeconds"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}
