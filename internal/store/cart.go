// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"coursemart/internal/models"
)

// CartStore handles shopping cart items.
type CartStore struct {
	db *sql.DB
}

// NewCartStore creates a new CartStore.
func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{db: db}
}

// List returns the user's cart with current course titles and prices.
func (s *CartStore) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ci.user_id, ci.course_id, ci.added_at, c.title, c.slug, c.price_cents
		FROM cart_items ci
		JOIN courses c ON c.id = ci.course_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.UserID, &it.CourseID, &it.AddedAt, &it.CourseTitle, &it.CourseSlug, &it.PriceCents); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Add puts a course in the user's cart. Returns ErrDuplicate if it is
// already there.
func (s *CartStore) Add(ctx context.Context, userID, courseID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO cart_items (user_id, course_id) VALUES ($1, $2)`, userID, courseID)
	if err != nil {
		return wrapWrite("add cart item", err)
	}
	return nil
}

// Remove deletes a course from the cart. Returns false if it was absent.
func (s *CartStore) Remove(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return false, fmt.Errorf("remove cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove cart item rows affected: %w", err)
	}
	return n > 0, nil
}

// Clear empties the user's cart.
func (s *CartStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
