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

const userColumns = `id, firebase_uid, email, display_name, role, created_at, updated_at`

// UserStore persists local accounts keyed by identity-provider subject.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a UserStore.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.FirebaseUID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) findOne(ctx context.Context, op, where string, arg any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindByFirebaseUID retrieves a user by identity-provider subject.
func (s *UserStore) FindByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return s.findOne(ctx, "find user by firebase uid", "firebase_uid = $1", uid)
}

// FindByID retrieves a user by their UUID.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, "find user by id", "id = $1", id)
}

// FindByEmail retrieves a user by email address (case-insensitive).
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "find user by email", "LOWER(email) = LOWER($1)", email)
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role   models.Role // empty matches every role
	Query  string      // case-insensitive email or display name match
	Limit  int
	Offset int
}

func (f UserFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.Role != "" {
		args = append(args, f.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, q)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(email ILIKE '%%' || $%d || '%%' OR display_name ILIKE '%%' || $%d || '%%')", n, n))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns users matching f, oldest first, and the number of matches.
func (s *UserStore) List(ctx context.Context, f UserFilter) ([]models.User, int, error) {
	where, args := f.where()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users`+where+
			fmt.Sprintf(" ORDER BY created_at ASC, id LIMIT %d OFFSET %d", limit, f.Offset),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

// Create inserts a new user. Returns ErrDuplicate if the firebase uid or
// email is already registered. Emails are unique ignoring case.
func (s *UserStore) Create(ctx context.Context, firebaseUID, email, displayName string, role models.Role) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (firebase_uid, email, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		firebaseUID, email, displayName, role,
	))
	if err != nil {
		return nil, wrapWrite("create user", err)
	}
	return u, nil
}

// UpdateEmail refreshes the email copied from the identity provider.
func (s *UserStore) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET email = $1, updated_at = NOW() WHERE id = $2`, email, id)
	if err != nil {
		return wrapWrite("update user email", err)
	}
	return nil
}

// UpdateRole changes a user's role and returns the updated user, or nil
// if the user does not exist.
func (s *UserStore) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2
		RETURNING `+userColumns,
		role, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}
	return u, nil
}
