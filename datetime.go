package gpxtrack

import (
	"strings"
	"time"
)

var zonedLayouts = [...]string{
	"2006-01-02T15:04:05Z07:00", // fractional seconds are accepted when parsing
	"2006-01-02T15:04Z07:00",
}

var localLayouts = [...]string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseDateTime applies the zoned-then-local rule. blank reports text that is
// empty or whitespace only; ok is false for any other text neither rule accepts.
func parseDateTime(text string, loc *time.Location) (t time.Time, blank, ok bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, true, false
	}

	zoned := s
	if i := strings.IndexByte(zoned, '['); i > 0 && strings.HasSuffix(zoned, "]") {
		zoned = zoned[:i] // "+02:00[Europe/Berlin]": the offset is authoritative.
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, zoned); err == nil {
			return t, false, true
		}
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, true
		}
	}

	return time.Time{}, false, false
}
