package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxNameLength     = 50
	minPasswordLength = 6
	maxPasswordLength = 40
)

var emailRegexp = regexp.MustCompile(`(?i)^[\w+\-.]+@[a-z\d\-.]+\.[a-z]+$`)

// User represents a user account in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"-"` // Private, never published through the API or live feed
	PasswordHash string    `json:"-"` // Never expose this to the client
	Salt         string    `json:"-"` // Rotated on password change, invalidates remember tokens
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// GravatarURL returns the avatar image URL for the user's email.
func (u User) GravatarURL(size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(u.Email))))
	return fmt.Sprintf("https://secure.gravatar.com/avatar/%s?s=%d&d=identicon", hex.EncodeToString(sum[:]), size)
}

// UserForm carries the user-editable attributes from sign up and profile edit forms.
type UserForm struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// Normalize trims whitespace and lowercases the email.
func (f *UserForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

// Validate checks presence, length, format and confirmation rules. Email
// uniqueness needs the database and is checked by the user service.
func (f UserForm) Validate() ValidationErrors {
	var errs ValidationErrors

	switch {
	case strings.TrimSpace(f.Name) == "":
		errs.Add("Name", "can't be blank")
	case utf8.RuneCountInString(f.Name) > maxNameLength:
		errs.Add("Name", fmt.Sprintf("is too long (maximum is %d characters)", maxNameLength))
	}

	switch {
	case strings.TrimSpace(f.Email) == "":
		errs.Add("Email", "can't be blank")
	case !emailRegexp.MatchString(f.Email):
		errs.Add("Email", "is invalid")
	}

	switch n := utf8.RuneCountInString(f.Password); {
	case f.Password == "":
		errs.Add("Password", "can't be blank")
	case n < minPasswordLength:
		errs.Add("Password", fmt.Sprintf("is too short (minimum is %d characters)", minPasswordLength))
	case n > maxPasswordLength:
		errs.Add("Password", fmt.Sprintf("is too long (maximum is %d characters)", maxPasswordLength))
	}
	if f.Password != f.PasswordConfirmation {
		errs.Add("Password", "doesn't match confirmation")
	}

	return errs
}
