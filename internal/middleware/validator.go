package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Input validation and sanitization utilities

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._]{1,64}$`)
	postIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

// ValidateUsername checks a competitor account handle.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("invalid username format (letters, digits, dot, underscore only, max 64 chars)")
	}
	return nil
}

func ValidatePostID(id string) error {
	if id == "" {
		return fmt.Errorf("post id cannot be empty")
	}
	if !postIDPattern.MatchString(id) {
		return fmt.Errorf("invalid post id format")
	}
	return nil
}

// ValidatePeriod accepts daily, weekly or monthly; empty means weekly.
func ValidatePeriod(period string) error {
	switch period {
	case "", "daily", "weekly", "monthly":
		return nil
	}
	return fmt.Errorf("invalid period: %s (allowed: daily, weekly, monthly)", period)
}

// ParseDate accepts YYYY-MM-DD or RFC3339. Empty input gives the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC3339)", s)
	}
	return t.UTC(), nil
}

// SplitList splits a comma separated query value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays clamps a window length; def is used for zero or negative input.
func ValidateDays(days, def int) int {
	if days <= 0 {
		return def
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
