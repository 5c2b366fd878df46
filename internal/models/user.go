// Package models defines the data types exchanged with the fuel-price API.
package models

// DefaultRole is assigned to profiles the server returns without a role.
const DefaultRole = "user"

// UserProfile is the authenticated user's profile as held by the session.
// Defaults are applied once, in NewUserProfile, so consumers never need to
// re-check optional fields.
type UserProfile struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Avatar   string `json:"avatar"`
}

// NewUserProfile builds a profile from raw server fields, filling in the
// optional ones: a missing full name falls back to the username, a missing
// role to "user" (or "admin" when the server only reports is_superuser),
// and a missing avatar to the empty string.
func NewUserProfile(id int64, username, email, fullName, role, avatar string, superuser bool) UserProfile {
	if fullName == "" {
		fullName = username
	}
	if role == "" {
		if superuser {
			role = "admin"
		} else {
			role = DefaultRole
		}
	}
	return UserProfile{
		ID:       id,
		Username: username,
		Email:    email,
		FullName: fullName,
		Role:     role,
		Avatar:   avatar,
	}
}

// Equal reports structural equality of two profiles. It is used to suppress
// redundant session updates after a re-verification returns an unchanged
// profile.
func (p UserProfile) Equal(other UserProfile) bool {
	return p == other
}
