package gpxtrack

import (
	"time"

	"github.com/muktihari/gpxtrack/internal/i18n"
	"github.com/muktihari/gpxtrack/internal/xmltoken"
	"github.com/rs/zerolog"
)

// Messages resolves a message key to user-facing text with one argument
// substituted. *i18n.Catalog implements it.
type Messages interface {
	Message(key string, arg any) string
}

type options struct {
	logger          zerolog.Logger
	location        *time.Location
	messages        Messages
	strictSegments  bool
	blankTimeAsZero bool
	tokenizer       []xmltoken.Option
}

func defaultOptions() options {
	return options{
		logger:   zerolog.Nop(),
		location: time.Local,
		messages: i18n.Default(),
	}
}

// Option is Handler and decoder option.
type Option func(o *options)

// WithLogger directs the Handler to report diagnostics to logger.
// Default: a disabled logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLocation sets the zone attached to date-times written without an
// offset, e.g. "2023-05-01T10:00:00". Default: time.Local.
func WithLocation(loc *time.Location) Option {
	if loc == nil {
		loc = time.Local
	}
	return func(o *options) { o.location = loc }
}

// WithMessages sets the catalog used for user-facing error text.
// Default: English.
func WithMessages(m Messages) Option {
	if m == nil {
		m = i18n.Default()
	}
	return func(o *options) { o.messages = m }
}

// WithStrictSegments turns a trkseg opened while another trkseg is still
// open into an ErrStructuralViolation. By default the open segment is
// dropped and parsing continues.
func WithStrictSegments() Option {
	return func(o *options) { o.strictSegments = true }
}

// WithBlankTimeAsZero records an empty time element as epoch zero instead of
// an absent timestamp, for consumers that expect every point to carry a time.
func WithBlankTimeAsZero() Option {
	return func(o *options) { o.blankTimeAsZero = true }
}

// WithReadBufferSize sets the read buffer of the built-in tokenizer used by
// Decode and DecodeFile. Default: 4096.
func WithReadBufferSize(size int) Option {
	return func(o *options) {
		o.tokenizer = append(o.tokenizer, xmltoken.WithReadBufferSize(size))
	}
}
