package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMicropostLength is the longest a micropost may be, in characters.
const MaxMicropostLength = 140

// Micropost is a short message posted by a user.
type Micropost struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId"`
	User      *User     `json:"user,omitempty"` // Populated by feed queries
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the micropost's content and owner.
func (m Micropost) Validate() ValidationErrors {
	var errs ValidationErrors
	switch {
	case strings.TrimSpace(m.Content) == "":
		errs.Add("Content", "can't be blank")
	case utf8.RuneCountInString(m.Content) > MaxMicropostLength:
		errs.Add("Content", fmt.Sprintf("is too long (maximum is %d characters)", MaxMicropostLength))
	}
	if m.UserID == "" {
		errs.Add("User", "can't be blank")
	}
	return errs
}
