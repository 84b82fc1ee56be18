package domain

import (
	"fmt"
	"strings"
)

// MinPasswordLength is enforced client-side on register and password change.
const MinPasswordLength = 8

// Role is a platform role.
type Role string

const (
	RoleParent  Role = "parent"
	RoleTeacher Role = "teacher"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleParent || r == RoleTeacher
}

// User is the authenticated account, mapped from the identity endpoint.
type User struct {
	ID        string `json:"user_id" yaml:"user_id"`
	Username  string `json:"username" yaml:"username"`
	Role      Role   `json:"role" yaml:"role"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
}

// DisplayName returns "First Last" when known, otherwise the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Username
}

// Registration is the payload for creating an account.
type Registration struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Normalize fills defaults (role parent) and trims whitespace.
func (r *Registration) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	if r.Role == "" {
		r.Role = RoleParent
	}
}

// Validate checks the fields the backend would otherwise reject.
func (r *Registration) Validate() error {
	if r.Username == "" {
		return ErrMissingArgument.WithDetails("username")
	}
	if len(r.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if !r.Role.Valid() {
		return ErrInvalidRole.WithDetails(fmt.Sprintf("got %q", r.Role))
	}
	return nil
}

// PasswordChange is the payload for changing the current user's password.
type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Validate checks both passwords are present and the new one is long enough.
func (p *PasswordChange) Validate() error {
	if p.OldPassword == "" {
		return ErrMissingArgument.WithDetails("old password")
	}
	if len(p.NewPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
