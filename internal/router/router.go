// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router declares the API route table and mounts it on a Chi
// router. Every route passes through middleware.Guard with its own
// public flag and role set.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"coursemart/internal/apperr"
	"coursemart/internal/auth"
	"coursemart/internal/handlers"
	"coursemart/internal/middleware"
	"coursemart/internal/models"
)

// Route is one entry of the route table.
type Route struct {
	Method      string
	Pattern     string
	Handler     http.HandlerFunc
	Public      bool
	Roles       []models.Role // empty means any authenticated user
	RateLimited bool
}

// Handlers bundles the handler groups the table dispatches to.
type Handlers struct {
	Health   *handlers.Health
	Auth     *handlers.Auth
	Catalog  *handlers.Catalog
	Lessons  *handlers.Lessons
	Learning *handlers.Learning
	Commerce *handlers.Commerce
	Admin    *handlers.Admin
}

var (
	instructors = []models.Role{models.RoleInstructor}
	admins      = []models.Role{models.RoleAdmin}
)

// Routes returns the API route table.
func Routes(h Handlers) []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/health", Handler: h.Health.Check, Public: true},

		// Accounts. Register and login verify the token themselves since the
		// local user may not exist yet.
		{Method: http.MethodPost, Pattern: "/auth/register", Handler: h.Auth.Register, Public: true, RateLimited: true},
		{Method: http.MethodPost, Pattern: "/auth/login", Handler: h.Auth.Login, Public: true, RateLimited: true},
		{Method: http.MethodPost, Pattern: "/auth/password-reset", Handler: h.Auth.PasswordReset, Public: true, RateLimited: true},
		{Method: http.MethodGet, Pattern: "/auth/me", Handler: h.Auth.Me, RateLimited: true},

		// Catalog
		{Method: http.MethodGet, Pattern: "/categories", Handler: h.Catalog.ListCategories, Public: true},
		{Method: http.MethodPost, Pattern: "/categories", Handler: h.Catalog.CreateCategory, Roles: admins},
		{Method: http.MethodPut, Pattern: "/categories/{categoryId}", Handler: h.Catalog.UpdateCategory, Roles: admins},
		{Method: http.MethodDelete, Pattern: "/categories/{categoryId}", Handler: h.Catalog.DeleteCategory, Roles: admins},

		{Method: http.MethodGet, Pattern: "/courses", Handler: h.Catalog.ListCourses, Public: true},
		{Method: http.MethodGet, Pattern: "/courses/{courseId}", Handler: h.Catalog.GetCourse, Public: true},
		{Method: http.MethodPost, Pattern: "/courses", Handler: h.Catalog.CreateCourse, Roles: instructors},
		{Method: http.MethodPut, Pattern: "/courses/{courseId}", Handler: h.Catalog.UpdateCourse, Roles: instructors},
		{Method: http.MethodDelete, Pattern: "/courses/{courseId}", Handler: h.Catalog.DeleteCourse, Roles: instructors},
		{Method: http.MethodPost, Pattern: "/courses/{courseId}/publish", Handler: h.Catalog.PublishCourse, Roles: instructors},
		{Method: http.MethodPost, Pattern: "/courses/{courseId}/unpublish", Handler: h.Catalog.UnpublishCourse, Roles: instructors},
		{Method: http.MethodPost, Pattern: "/courses/{courseId}/thumbnail", Handler: h.Catalog.UploadThumbnail, Roles: instructors},
		{Method: http.MethodGet, Pattern: "/instructor/courses", Handler: h.Catalog.InstructorCourses, Roles: instructors},

		// Lessons
		{Method: http.MethodGet, Pattern: "/courses/{courseId}/lessons", Handler: h.Lessons.List, Roles: instructors},
		{Method: http.MethodPost, Pattern: "/courses/{courseId}/lessons", Handler: h.Lessons.Create, Roles: instructors},
		{Method: http.MethodGet, Pattern: "/courses/{courseId}/lessons/{lessonId}", Handler: h.Lessons.Get},
		{Method: http.MethodPut, Pattern: "/courses/{courseId}/lessons/{lessonId}", Handler: h.Lessons.Update, Roles: instructors},
		{Method: http.MethodDelete, Pattern: "/courses/{courseId}/lessons/{lessonId}", Handler: h.Lessons.Delete, Roles: instructors},
		{Method: http.MethodPost, Pattern: "/courses/{courseId}/lessons/{lessonId}/video-upload", Handler: h.Lessons.VideoUpload, Roles: instructors},

		// Learning
		{Method: http.MethodPost, Pattern: "/courses/{courseId}/lessons/{lessonId}/complete", Handler: h.Learning.CompleteLesson},
		{Method: http.MethodPut, Pattern: "/courses/{courseId}/lessons/{lessonId}/position", Handler: h.Learning.UpdatePosition},
		{Method: http.MethodGet, Pattern: "/courses/{courseId}/progress", Handler: h.Learning.CourseProgress},
		{Method: http.MethodPost, Pattern: "/courses/{courseId}/enroll", Handler: h.Learning.Enroll},
		{Method: http.MethodGet, Pattern: "/enrollments", Handler: h.Learning.Enrollments},

		// Commerce
		{Method: http.MethodGet, Pattern: "/cart", Handler: h.Commerce.Cart},
		{Method: http.MethodPost, Pattern: "/cart", Handler: h.Commerce.AddToCart},
		{Method: http.MethodDelete, Pattern: "/cart/{courseId}", Handler: h.Commerce.RemoveFromCart},
		{Method: http.MethodPost, Pattern: "/orders/checkout", Handler: h.Commerce.Checkout},
		{Method: http.MethodGet, Pattern: "/orders", Handler: h.Commerce.Orders},

		// Administration
		{Method: http.MethodGet, Pattern: "/admin/users", Handler: h.Admin.Users, Roles: admins},
		{Method: http.MethodPatch, Pattern: "/admin/users/{userId}/role", Handler: h.Admin.UpdateRole, Roles: admins},
	}
}

// Options tunes the global middleware.
type Options struct {
	// Logger receives access and panic logs. Nil uses slog.Default.
	Logger *slog.Logger
	// HSTS enables Strict-Transport-Security.
	HSTS bool
}

// New creates the Chi router with global middleware and mounts routes.
// limiter may be nil to disable rate limiting.
func New(gate *auth.Gate, limiter *middleware.RateLimiter, routes []Route, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer(opts.Logger))
	r.Use(middleware.SecureHeaders(opts.HSTS))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperr.WriteJSON(w, http.StatusNotFound, apperr.Body{Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apperr.WriteJSON(w, http.StatusMethodNotAllowed, apperr.Body{Message: "method not allowed"})
	})

	for _, rt := range routes {
		var h http.Handler = rt.Handler
		h = middleware.Guard(gate, rt.Public, rt.Roles)(h)
		if rt.RateLimited && limiter != nil {
			h = limiter.Middleware(h)
		}
		r.Method(rt.Method, rt.Pattern, h)
	}

	return r
}
