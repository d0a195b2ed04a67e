// Package validation holds the reusable input checks every mutating service
// runs before touching storage. Each helper either returns the normalized
// value or a CodeValidation error naming the field and the violated rule;
// no caller state is touched on failure.
package validation

import (
	"math"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

// String normalizes a string field. Required fields must be non-empty after
// trimming; optional fields may be absent (nil) but not blank.
func String(value *string, field string, required bool) (*string, error) {
	if required {
		if value == nil || strings.TrimSpace(*value) == "" {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required and must be a non-empty string", field)
		}
		trimmed := strings.TrimSpace(*value)
		return &trimmed, nil
	}
	if value == nil {
		return nil, nil
	}
	if strings.TrimSpace(*value) == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a non-empty string if provided", field)
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed, nil
}

// NumberOptions bounds a numeric field. Each constraint is checked only when
// the value is present.
type NumberOptions struct {
	Min     *float64
	Max     *float64
	Integer bool
}

// Number checks a numeric field and returns it unchanged (never clamped).
func Number(value *float64, field string, opts NumberOptions, required bool) (*float64, error) {
	if value == nil {
		if required {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a number", field)
		}
		return nil, nil
	}
	v := *value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a number", field)
	}
	if opts.Integer && v != math.Trunc(v) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be an integer", field)
	}
	if opts.Min != nil && v < *opts.Min {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be >= %s", field, formatBound(*opts.Min))
	}
	if opts.Max != nil && v > *opts.Max {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be <= %s", field, formatBound(*opts.Max))
	}
	return value, nil
}

// Enum checks membership in a closed set of allowed values.
func Enum(value string, field string, allowed []string, required bool) (string, error) {
	if value == "" {
		if required {
			return "", pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", field)
		}
		return "", nil
	}
	for _, candidate := range allowed {
		if candidate == value {
			return value, nil
		}
	}
	return "", pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be one of: %s", field, strings.Join(allowed, ", "))
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

// Date parses a date field, accepting RFC3339 or plain calendar dates.
func Date(value string, field string, required bool) (*time.Time, error) {
	if value == "" {
		if required {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", field)
		}
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed, nil
		}
	}
	return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a valid date", field)
}

// ArrayOptions bounds the length of an array field.
type ArrayOptions struct {
	MinLength *int
	MaxLength *int
}

// Array checks presence and length constraints on a slice field.
func Array[T any](value []T, field string, opts ArrayOptions, required bool) ([]T, error) {
	if value == nil {
		if required {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be an array", field)
		}
		return nil, nil
	}
	if opts.MinLength != nil && len(value) < *opts.MinLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must have at least %d items", field, *opts.MinLength)
	}
	if opts.MaxLength != nil && len(value) > *opts.MaxLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must have at most %d items", field, *opts.MaxLength)
	}
	return value, nil
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Helpers for building option values inline.

func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func Str(v string) *string     { return &v }
