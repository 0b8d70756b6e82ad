// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

// similarityThreshold is the ratio at which a password counts as derived from a user attribute.
const similarityThreshold = 0.7

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Problems collects every rule a value failed.
type Problems []string

func (p Problems) Error() string {
	return strings.Join(p, " ")
}

// Attribute is a named user attribute a password must not resemble.
type Attribute struct {
	Name  string
	Value string
}

// ValidatePassword checks length (bytes for the upper bound), numeric-only, common passwords and
// similarity to the given user attributes. It reports every failed rule.
func ValidatePassword(password string, attrs ...Attribute) error {
	var problems Problems

	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf(
			"This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		problems = append(problems, fmt.Sprintf(
			"This password is too long. It must contain at most %d bytes.", MaxPasswordBytes))
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		problems = append(problems, "This password is entirely numeric.")
	}
	if isCommonPassword(password) {
		problems = append(problems, "This password is too common.")
	}
	for _, attr := range attrs {
		if tooSimilar(password, attr.Value) {
			problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", attr.Name))
			break
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

// UserAttributes returns the attributes of a prospective user that a
// password is compared against.
func UserAttributes(username, email string) []Attribute {
	attrs := []Attribute{{Name: "username", Value: username}, {Name: "email address", Value: email}}
	if local, _, ok := strings.Cut(email, "@"); ok {
		attrs = append(attrs, Attribute{Name: "email address", Value: local})
	}
	return attrs
}

func tooSimilar(password, value string) bool {
	if password == "" || value == "" {
		return false
	}
	a, b := strings.ToLower(password), strings.ToLower(value)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return similarity(a, b) >= similarityThreshold
}

// similarity is 2*LCS/(len(a)+len(b)) over runes.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 0
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return 2 * float64(prev[len(rb)]) / float64(len(ra)+len(rb))
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > 150 {
		return fmt.Errorf("username must not exceed 150 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may contain only letters, numbers, and @/./+/-/_ characters")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) || strings.Contains(email, "..") {
		return fmt.Errorf("invalid email format")
	}
	return nil
}
