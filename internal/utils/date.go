package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/noah-isme/kegiatan-api/internal/models"
)

// MinActivityYear is the earliest year every supported DATE column can hold.
const MinActivityYear = 1000

// ErrActivityDateOutOfRange reports a well-formed date before MinActivityYear.
var ErrActivityDateOutOfRange = errors.New("activity date is before year 1000")

// ParseActivityDate parses a DD-MM-YYYY date as midnight UTC.
func ParseActivityDate(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(models.ActivityDateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if parsed.Year() < MinActivityYear {
		return time.Time{}, ErrActivityDateOutOfRange
	}
	return parsed, nil
}

// FormatActivityDate renders a date as DD-MM-YYYY, or an empty string for the zero time.
func FormatActivityDate(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(models.ActivityDateLayout)
}
