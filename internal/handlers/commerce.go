// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"coursemart/internal/apperr"
	"coursemart/internal/models"
	"coursemart/internal/store"
)

// Commerce handles the cart and checkout.
type Commerce struct {
	cart        CartRepository
	orders      OrderRepository
	courses     CourseRepository
	enrollments EnrollmentRepository
}

// NewCommerce creates a new Commerce handler group.
func NewCommerce(cart CartRepository, orders OrderRepository, courses CourseRepository, enrollments EnrollmentRepository) *Commerce {
	return &Commerce{cart: cart, orders: orders, courses: courses, enrollments: enrollments}
}

type cartResponse struct {
	Items      []models.CartItem `json:"items"`
	TotalCents int64             `json:"totalCents"`
}

type addToCartRequest struct {
	CourseID string `json:"courseId" validate:"required,uuid"`
}

// Cart returns the caller's cart and its total.
func (h *Commerce) Cart(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.cart.List(r.Context(), id.DBID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []models.CartItem{}
	}
	writeJSON(w, http.StatusOK, cartResponse{Items: items, TotalCents: models.CartTotal(items)})
}

// AddToCart puts a published course the caller does not own yet into the
// cart.
func (h *Commerce) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req addToCartRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	courseID := uuid.MustParse(req.CourseID)

	course, err := h.courses.FindByID(ctx, courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if course == nil || !course.IsPublished {
		writeError(w, r, errCourseNotFound)
		return
	}

	enrollment, err := h.enrollments.FindByUserCourse(ctx, id.DBID, courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if enrollment != nil {
		writeError(w, r, apperr.Conflict("already enrolled in this course"))
		return
	}

	err = h.cart.Add(ctx, id.DBID, courseID)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, r, apperr.Conflict("course is already in the cart"))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusCreated, "added to cart")
}

// RemoveFromCart drops a course from the caller's cart.
func (h *Commerce) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	notInCart := apperr.NotFound("course is not in the cart")
	courseID, err := pathUUID(r, "courseId", notInCart)
	if err != nil {
		writeError(w, r, err)
		return
	}

	removed, err := h.cart.Remove(r.Context(), id.DBID, courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !removed {
		writeError(w, r, notInCart)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout turns the cart into a paid order and enrolls the caller in
// every course on it.
func (h *Commerce) Checkout(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orders.Checkout(r.Context(), id.DBID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("order completed",
		"order_id", order.ID,
		"reference", order.Reference,
		"user_id", id.DBID,
		"items", len(order.Items),
		"total_cents", order.TotalCents,
	)
	writeJSON(w, http.StatusCreated, order)
}

// Orders lists the caller's orders, newest first.
func (h *Commerce) Orders(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), id.DBID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}
