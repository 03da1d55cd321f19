package lookup

import (
	"strings"
	"unicode"

	dErrors "dbservice/pkg/domain-errors"
)

const (
	minQueryLength = 10
	maxQueryDigits = 13
)

// Query is a validated registry lookup key: a mobile number or CNIC reduced
// to its digits.
//
// Invariants:
//   - At least 10 characters as entered
//   - Between 10 and 13 digits once separators are removed
type Query struct {
	digits string
}

var errQueryRequired = dErrors.New(dErrors.CodeBadRequest, "query parameter is required")

// NewQuery validates raw user input. Dashes, spaces and other separators are
// stripped before the digit count is checked.
func NewQuery(raw string) (Query, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Query{}, errQueryRequired
	}
	if len(raw) < minQueryLength {
		return Query{}, dErrors.New(dErrors.CodeBadRequest, "query must be at least 10 characters")
	}
	digits := Digits(raw)
	if len(digits) < minQueryLength || len(digits) > maxQueryDigits {
		return Query{}, dErrors.New(dErrors.CodeBadRequest, "query must contain 10 to 13 digits")
	}
	return Query{digits: digits}, nil
}

// MustQuery panics on invalid input. Use only in tests.
func MustQuery(raw string) Query {
	q, err := NewQuery(raw)
	if err != nil {
		panic(err)
	}
	return q
}

// String returns the digit string sent upstream.
func (q Query) String() string {
	return q.digits
}

// IsZero reports whether q was never validated.
func (q Query) IsZero() bool {
	return q.digits == ""
}

// Digits drops every non-digit rune from s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
