// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package identity resolves who the current viewer is and what they may do.
// Privilege is three-valued on purpose: "not checked yet" and "checked,
// not an admin" are different states, and collapsing them is how redirect
// timing bugs happen.
package identity

// Privilege is the viewer's authorization level.
type Privilege int

const (
	// PrivilegeUnknown means resolution has not completed yet. It is only
	// valid before the first resolution; a session must never stay here.
	PrivilegeUnknown Privilege = iota
	// PrivilegeViewer is any resolved session that is not an admin,
	// including anonymous viewers.
	PrivilegeViewer
	// PrivilegeAdmin is a resolved session whose email is on the allow-list.
	PrivilegeAdmin
)

// String implements fmt.Stringer.
func (p Privilege) String() string {
	switch p {
	case PrivilegeViewer:
		return "viewer"
	case PrivilegeAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Session represents the current viewer. The zero value is the unresolved
// state a view starts in.
type Session struct {
	// Email is empty for anonymous viewers.
	Email     string
	Privilege Privilege
}

// IsAdmin returns true if the session resolved to admin privilege.
func (s Session) IsAdmin() bool {
	return s.Privilege == PrivilegeAdmin
}

// IsAnonymous returns true if no user is signed in.
func (s Session) IsAnonymous() bool {
	return s.Email == ""
}

// Resolved returns true once resolution has completed at least once.
func (s Session) Resolved() bool {
	return s.Privilege != PrivilegeUnknown
}
