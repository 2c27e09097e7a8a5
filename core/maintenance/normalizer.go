package maintenance

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// layouts accepted from the admin form; naive, anchored in the reference timezone
	layoutHTMLForm = "2006-01-02T15:04"
	layoutSQL      = "2006-01-02 15:04:05"
	// aware ISO-8601 fallback; "Z" suffixes are rewritten to "+00:00" first
	layoutISO = "2006-01-02T15:04:05-07:00"
)

var ErrMalformedTimestamp = errors.New("malformed timestamp")

// ParseInstant resolves an operator-entered timestamp into an instant in the
// reference timezone loc. Naive values are interpreted in loc; aware ISO-8601
// values are converted into it. Anything else fails with ErrMalformedTimestamp.
func ParseInstant(value string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, ErrMalformedTimestamp
	}
	if t, err := time.ParseInLocation(layoutHTMLForm, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(layoutSQL, s, loc); err == nil {
		return t, nil
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	if t, err := time.Parse(layoutISO, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, errors.Wrapf(ErrMalformedTimestamp, "%q", value)
}

// FormatInstant renders t in loc using the storage layout ParseInstant accepts.
func FormatInstant(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(layoutSQL)
}

// parseOptional treats "" as unset rather than malformed.
func parseOptional(value string, loc *time.Location) (time.Time, bool, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false, nil
	}
	t, err := ParseInstant(value, loc)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
