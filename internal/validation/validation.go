// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 150
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxEmailLength    = 254
	MaxImageURLLength = 500
	MaxAboutMeLength  = 5000
	MaxTitleLength    = 200
	MaxCommentLength  = 10000
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9@.+_\- ]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
	specialPattern  = regexp.MustCompile(`[@$!%*?&]`)
)

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("This field may not be blank.")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("Ensure this field has no more than %d characters.", MaxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("Enter a valid username. This value may contain only letters, numbers, spaces, and @/./+/-/_ characters.")
	}
	return nil
}

// PasswordIssues lists every requirement the password fails, in a fixed order.
// An empty result means the password is acceptable.
func PasswordIssues(password string) []string {
	var issues []string
	if len(password) < MinPasswordLength {
		issues = append(issues, fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		issues = append(issues, fmt.Sprintf("Password must not exceed %d characters.", MaxPasswordLength))
	}
	if !upperPattern.MatchString(password) {
		issues = append(issues, "Password must contain at least one uppercase letter.")
	}
	if !lowerPattern.MatchString(password) {
		issues = append(issues, "Password must contain at least one lowercase letter.")
	}
	if !digitPattern.MatchString(password) {
		issues = append(issues, "Password must contain at least one digit.")
	}
	if !specialPattern.MatchString(password) {
		issues = append(issues, "Password must contain at least one special character (@$!%*?&).")
	}
	return issues
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > MaxEmailLength || !emailPattern.MatchString(email) {
		return errors.New("Enter a valid email address.")
	}
	return nil
}

// ValidateImageURL accepts absolute http(s) URLs.
func ValidateImageURL(raw string) error {
	if len(raw) > MaxImageURLLength {
		return fmt.Errorf("Ensure this field has no more than %d characters.", MaxImageURLLength)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("Enter a valid URL.")
	}
	return nil
}

// ValidateAboutMe bounds the profile bio.
func ValidateAboutMe(about string) error {
	if utf8.RuneCountInString(about) > MaxAboutMeLength {
		return fmt.Errorf("Ensure this field has no more than %d characters.", MaxAboutMeLength)
	}
	return nil
}

// ValidateTitle checks a post title.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("This field may not be blank.")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("Ensure this field has no more than %d characters.", MaxTitleLength)
	}
	return nil
}

// ValidateContent checks required free text such as post bodies.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("This field may not be blank.")
	}
	return nil
}

// ValidateComment checks a comment body.
func ValidateComment(content string) error {
	if err := ValidateContent(content); err != nil {
		return err
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return fmt.Errorf("Ensure this field has no more than %d characters.", MaxCommentLength)
	}
	return nil
}

// Errors collects messages per field, preserving insertion order within a field.
type Errors map[string][]string

// Add records msg against field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// AddErr records err against field when err is non-nil.
func (e Errors) AddErr(field string, err error) {
	if err != nil {
		e.Add(field, err.Error())
	}
}

// Empty reports whether no messages were collected.
func (e Errors) Empty() bool {
	return len(e) == 0
}
