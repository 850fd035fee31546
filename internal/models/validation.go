package models

import "strings"

// FieldError is a single validation failure on a named attribute.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FullMessage reads like "Name can't be blank".
func (e FieldError) FullMessage() string {
	return e.Field + " " + e.Message
}

// ValidationErrors collects field errors in the order they were found.
type ValidationErrors []FieldError

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Any reports whether there is at least one error.
func (v ValidationErrors) Any() bool {
	return len(v) > 0
}

// FullMessages returns every error as a sentence.
func (v ValidationErrors) FullMessages() []string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.FullMessage()
	}
	return msgs
}

func (v ValidationErrors) Error() string {
	return "validation failed: " + strings.Join(v.FullMessages(), ", ")
}
