package apperr

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func (e *ValidationError) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "this field is required")
	}
}

func (e *ValidationError) MaxLen(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		e.Add(field, "too long")
	}
}

// OneOf accepts an empty value; pair it with Required when the field is mandatory.
func (e *ValidationError) OneOf(field, value string, allowed []string) {
	if value == "" {
		return
	}
	if !slices.Contains(allowed, value) {
		e.Add(field, "must be one of: "+strings.Join(allowed, ", "))
	}
}

// Email accepts an empty value.
func (e *ValidationError) Email(field, value string) {
	if value == "" {
		return
	}
	if !emailRegex.MatchString(value) {
		e.Add(field, "invalid email format")
	}
}
