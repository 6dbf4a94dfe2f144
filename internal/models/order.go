// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a course a user intends to buy.
type CartItem struct {
	UserID   uuid.UUID `json:"userId"`
	CourseID uuid.UUID `json:"courseId"`
	AddedAt  time.Time `json:"addedAt"`

	CourseTitle string `json:"courseTitle"`
	CourseSlug  string `json:"courseSlug"`
	PriceCents  int64  `json:"priceCents"`
}

// CartTotal sums the price of every item in cents.
func CartTotal(items []CartItem) int64 {
	var total int64
	for _, it := range items {
		total += it.PriceCents
	}
	return total
}

// PaymentStatus is the state of an order's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Order records a checkout of one or more courses.
type Order struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"userId"`
	TotalCents int64         `json:"totalCents"`
	Status     PaymentStatus `json:"status"`
	Reference  string        `json:"reference"`
	CreatedAt  time.Time     `json:"createdAt"`
	PaidAt     *time.Time    `json:"paidAt"`
	Items      []OrderItem   `json:"items"`
}

// OrderItem is a course line on an order, priced at checkout time.
type OrderItem struct {
	CourseID    uuid.UUID `json:"courseId"`
	CourseTitle string    `json:"courseTitle"`
	PriceCents  int64     `json:"priceCents"`
}
