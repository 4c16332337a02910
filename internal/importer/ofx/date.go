package ofx

import (
	"fmt"
	"strings"
	"time"
)

// ParseError reports an OFX value that could not be parsed. Every date
// helper in this package fails with a *ParseError rather than panicking or
// silently returning a zero value; callers decide how the failure fits the
// surrounding pipeline stage.
type ParseError struct {
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ofx: unparsable value %q: %s", e.Value, e.Reason)
}

// dateLayouts accepted for OFX date stamps. The full form is the 14-digit
// yyyyMMddHHmmss stamp; institutions also emit the date-only prefix.
var dateLayouts = []string{
	"20060102150405",
	"20060102",
}

// ParseDate parses an OFX date stamp. A bracketed timezone suffix such as
// "[-5:EST]" is discarded before parsing; the time-of-day portion is not
// meaningful for expense records.
func ParseDate(s string) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if i := strings.IndexByte(raw, '['); i >= 0 {
		raw = raw[:i]
	}
	// Some institutions append fractional seconds to the 14-digit stamp.
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return time.Time{}, &ParseError{Value: s, Reason: "empty date"}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Value: s, Reason: "not a yyyyMMddHHmmss stamp"}
}
