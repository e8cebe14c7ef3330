// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the site-wide authorization level of an account.
//
// This is distinct from per-community moderator capabilities: a RoleMember
// may still moderate individual communities via their roster entries.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Platform-level moderation staff
	RoleStaff UserRole = "staff"

	// Default role for standard registered users
	RoleMember UserRole = "member"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleStaff:
		return 20
	case RoleMember:
		return 10
	default:
		return 0
	}
}
