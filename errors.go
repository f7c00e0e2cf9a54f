package gpxtrack

import "fmt"

type errorString string

func (e errorString) Error() string { return string(e) }

// Sentinel errors, every parse failure wraps exactly one of them.
const (
	ErrMalformedNumber     = errorString("malformed number")
	ErrDateTimeFormat      = errorString("unsupported date-time format")
	ErrStructuralViolation = errorString("structural violation")
)

// DateTimeFormatError reports time text that matches neither the zoned nor
// the local date-time format. Message is the localized text meant for users.
type DateTimeFormatError struct {
	Text    string
	Message string
}

func (e *DateTimeFormatError) Error() string { return e.Message }

func (e *DateTimeFormatError) Unwrap() error { return ErrDateTimeFormat }

// StructuralError reports an event that does not fit the current nesting,
// e.g. a trkpt closing outside any trkseg.
type StructuralError struct {
	Element string
	Reason  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Element, ErrStructuralViolation, e.Reason)
}

func (e *StructuralError) Unwrap() error { return ErrStructuralViolation }
