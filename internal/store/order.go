// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"coursemart/internal/models"
)

// ErrEmptyCart is returned by Checkout when nothing in the cart can be
// purchased.
var ErrEmptyCart = errors.New("cart is empty")

// OrderStore handles orders and checkout.
type OrderStore struct {
	db *sql.DB
}

// NewOrderStore creates a new OrderStore.
func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

// newReference returns a human-readable order reference.
func newReference() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Checkout turns the user's cart into a paid order in one transaction.
// Courses the user is already enrolled in are skipped. Each purchased
// course gets an ACTIVE enrollment and the cart is emptied.
func (s *OrderStore) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order *models.Order

	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT c.id, c.title, c.price_cents
			FROM cart_items ci
			JOIN courses c ON c.id = ci.course_id
			WHERE ci.user_id = $1
			  AND NOT EXISTS (
			      SELECT 1 FROM enrollments e WHERE e.user_id = ci.user_id AND e.course_id = ci.course_id
			  )
			ORDER BY ci.added_at ASC
			FOR UPDATE OF ci
		`, userID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}

		var items []models.OrderItem
		var total int64
		for rows.Next() {
			var it models.OrderItem
			if err := rows.Scan(&it.CourseID, &it.CourseTitle, &it.PriceCents); err != nil {
				rows.Close()
				return fmt.Errorf("scan cart: %w", err)
			}
			total += it.PriceCents
			items = append(items, it)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		o := &models.Order{
			UserID:     userID,
			TotalCents: total,
			Status:     models.PaymentCompleted,
			Reference:  newReference(),
			Items:      items,
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (user_id, total_cents, status, reference, paid_at)
			VALUES ($1, $2, $3, $4, NOW())
			RETURNING id, created_at, paid_at
		`, o.UserID, o.TotalCents, o.Status, o.Reference).Scan(&o.ID, &o.CreatedAt, &o.PaidAt)
		if err != nil {
			return wrapWrite("insert order", err)
		}

		for _, it := range items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, course_id, course_title, price_cents)
				VALUES ($1, $2, $3, $4)
			`, o.ID, it.CourseID, it.CourseTitle, it.PriceCents); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO enrollments (user_id, course_id, status)
				VALUES ($1, $2, 'ACTIVE')
				ON CONFLICT (user_id, course_id) DO NOTHING
			`, userID, it.CourseID); err != nil {
				return fmt.Errorf("insert enrollment: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser returns a user's orders with their items, newest first.
func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, total_cents, status, reference, created_at, paid_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalCents, &o.Status, &o.Reference, &o.CreatedAt, &o.PaidAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Items = []models.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.course_id, oi.course_title, oi.price_cents
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = $1
		ORDER BY oi.course_title ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID uuid.UUID
		var it models.OrderItem
		if err := itemRows.Scan(&orderID, &it.CourseID, &it.CourseTitle, &it.PriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return orders, itemRows.Err()
}
