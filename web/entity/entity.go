// Package entity defines the form payloads accepted by the authgate web layer.
package entity

import "strings"

// LoginForm is the body of POST /login. The email may arrive in either the
// username or the email field.
type LoginForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

// Identifier returns the submitted login email, preferring the email field.
func (f LoginForm) Identifier() string {
	if email := strings.TrimSpace(f.Email); email != "" {
		return email
	}
	return strings.TrimSpace(f.Username)
}

// SignupForm is the body of POST /signup.
type SignupForm struct {
	Username        string `form:"username"`
	Email           string `form:"email"`
	Phone           string `form:"phone"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
}

// Normalize trims surrounding whitespace from the text fields. Passwords are
// left untouched.
func (f SignupForm) Normalize() SignupForm {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	return f
}
