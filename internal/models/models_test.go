// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestEnrollmentGrantsAccess(t *testing.T) {
	tests := []struct {
		status EnrollmentStatus
		want   bool
	}{
		{EnrollmentActive, true},
		{EnrollmentCompleted, true},
		{EnrollmentPending, false},
		{EnrollmentExpired, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			e := &Enrollment{Status: tt.status}
			if got := e.GrantsAccess(); got != tt.want {
				t.Errorf("GrantsAccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCartTotal(t *testing.T) {
	if got := CartTotal(nil); got != 0 {
		t.Errorf("empty cart total: got %d, want 0", got)
	}
	items := []CartItem{{PriceCents: 1999}, {PriceCents: 0}, {PriceCents: 4500}}
	if got := CartTotal(items); got != 6499 {
		t.Errorf("cart total: got %d, want 6499", got)
	}
}

func TestCourseOwnership(t *testing.T) {
	owner := uuid.New()
	c := &Course{InstructorID: owner}
	if !c.OwnedBy(owner) {
		t.Error("expected course to be owned by its instructor")
	}
	if c.OwnedBy(uuid.New()) {
		t.Error("expected other user not to own course")
	}
	if !c.IsFree() {
		t.Error("zero-priced course should be free")
	}
	c.PriceCents = 100
	if c.IsFree() {
		t.Error("priced course should not be free")
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleInstructor, RoleAdmin} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	for _, r := range []Role{"", "admin", "OWNER", "superadmin"} {
		if r.Valid() {
			t.Errorf("%q should be invalid", r)
		}
	}
}
