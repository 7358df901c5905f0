package core

import (
	"fmt"
	"time"

	"schedcore/pkg/domain"
)

// WireTimeLayout is the only timestamp representation accepted or emitted on
// the wire: four-digit year, zero-padded fields, literal T and Z, no
// fractional seconds.
const WireTimeLayout = "2006-01-02T15:04:05Z"

// ParseWireTime parses a strict ISO-8601 UTC instant. Go's parser tolerates
// some unpadded fields, so the result is re-formatted and compared against
// the input to reject any deviation from the canonical form.
func ParseWireTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(WireTimeLayout, s, time.UTC)
	if err != nil || t.Format(WireTimeLayout) != s {
		return time.Time{}, domain.MalformedInputError{
			Message: fmt.Sprintf("timestamp %q is not in YYYY-MM-DDTHH:mm:ssZ form", s),
		}
	}
	return t, nil
}

// FormatWireTime renders an instant in the canonical wire form.
func FormatWireTime(t time.Time) string {
	return t.UTC().Format(WireTimeLayout)
}

// NormalizeInstant converts an instant to its canonical persisted value:
// UTC, truncated to whole seconds.
func NormalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
