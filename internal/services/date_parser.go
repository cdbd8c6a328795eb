package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateBounds is the inclusive span a date expression covers, to the millisecond.
type DateBounds struct {
	Start time.Time
	End   time.Time
}

// DateRange filters history listings to [From, To].
type DateRange struct {
	From time.Time
	To   time.Time
}

var (
	dateWhitespace = regexp.MustCompile(`\s+`)
	dateSlashes    = regexp.MustCompile(`/+`)
	dateDigits     = regexp.MustCompile(`^\d+$`)
)

// ParseDateExpr parses dd/mm/yyyy, mm/yyyy or yyyy ("-" separators accepted)
// into the bounds of that day, month or year in loc. Components are not
// checked against the calendar: 31/02/2024 rolls over to 2 March.
func ParseDateExpr(expr string, loc *time.Location) (DateBounds, error) {
	if loc == nil {
		loc = time.UTC
	}

	normalized := strings.ReplaceAll(strings.TrimSpace(expr), "-", "/")
	normalized = dateWhitespace.ReplaceAllString(normalized, "")
	normalized = dateSlashes.ReplaceAllString(normalized, "/")
	if normalized == "" || normalized == "/" {
		return DateBounds{}, fmt.Errorf("%w: empty date", ErrInvalidInput)
	}

	var parts []int
	for _, token := range strings.Split(normalized, "/") {
		if token == "" {
			continue
		}
		if !dateDigits.MatchString(token) {
			return DateBounds{}, fmt.Errorf("%w: date component %q is not a number", ErrInvalidInput, token)
		}
		n, err := strconv.Atoi(token)
		if err != nil {
			return DateBounds{}, fmt.Errorf("%w: date component %q out of range", ErrInvalidInput, token)
		}
		parts = append(parts, n)
	}

	var start, next time.Time
	switch len(parts) {
	case 3:
		start = time.Date(parts[2], time.Month(parts[1]), parts[0], 0, 0, 0, 0, loc)
		next = time.Date(parts[2], time.Month(parts[1]), parts[0]+1, 0, 0, 0, 0, loc)
	case 2:
		start = time.Date(parts[1], time.Month(parts[0]), 1, 0, 0, 0, 0, loc)
		next = time.Date(parts[1], time.Month(parts[0])+1, 1, 0, 0, 0, 0, loc)
	case 1:
		start = time.Date(parts[0], time.January, 1, 0, 0, 0, 0, loc)
		next = time.Date(parts[0]+1, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return DateBounds{}, fmt.Errorf("%w: %q", ErrMalformedDateInput, expr)
	}

	return DateBounds{Start: start, End: next.Add(-time.Millisecond)}, nil
}

// NewDateRange builds a range from optional start and end expressions. Both
// empty means no filter; a lone side is an ErrIncompleteDateRange.
func NewDateRange(from, to string, loc *time.Location) (*DateRange, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" && to == "" {
		return nil, nil
	}

	var (
		start, end DateBounds
		err        error
	)
	if from != "" {
		if start, err = ParseDateExpr(from, loc); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if end, err = ParseDateExpr(to, loc); err != nil {
			return nil, err
		}
	}
	if from == "" || to == "" {
		return nil, ErrIncompleteDateRange
	}

	return &DateRange{From: start.Start, To: end.End}, nil
}
