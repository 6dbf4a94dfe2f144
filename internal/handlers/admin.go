// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"coursemart/internal/apperr"
	"coursemart/internal/models"
	"coursemart/internal/store"
)

var errUserNotFound = apperr.NotFound("user not found")

// Admin holds user administration endpoints.
type Admin struct {
	users UserRepository
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(users UserRepository) *Admin {
	return &Admin{users: users}
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

var errInvalidRole = apperr.BadRequest("role must be one of: USER, INSTRUCTOR, ADMIN")

type userList struct {
	Items []models.User `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// Users lists accounts, optionally filtered by role and an email or name
// search, a page at a time.
func (h *Admin) Users(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(q)

	filter := store.UserFilter{
		Query:  strings.TrimSpace(q.Get("q")),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if v := q.Get("role"); v != "" {
		filter.Role = models.Role(v)
		if !filter.Role.Valid() {
			writeError(w, r, errInvalidRole)
			return
		}
	}

	users, total, err := h.users.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, userList{Items: users, Total: total, Page: page, Limit: limit})
}

// UpdateRole changes another user's role. Admins cannot change their own
// role, whatever the requested value.
func (h *Admin) UpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	targetID, err := pathUUID(r, "userId", errUserNotFound)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if targetID == id.DBID {
		writeError(w, r, apperr.Forbidden("cannot change own role"))
		return
	}

	var req roleRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	role := models.Role(req.Role)
	if !role.Valid() {
		writeError(w, r, errInvalidRole)
		return
	}

	user, err := h.users.UpdateRole(ctx, targetID, role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeError(w, r, errUserNotFound)
		return
	}

	slog.Info("user role changed", "user_id", targetID, "role", role, "by", id.DBID)
	writeJSON(w, http.StatusOK, user)
}
