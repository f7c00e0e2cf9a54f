package gpxtrack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muktihari/gpxtrack/internal/i18n"
)

const (
	elemTrkseg = "trkseg"
	elemTrkpt  = "trkpt"
	elemWpt    = "wpt"
	elemTime   = "time"
	elemSpeed  = "speed"
	elemName   = "name"
	elemCmt    = "cmt"

	attrLat = "lat"
	attrLon = "lon"
)

type pointBuilder struct {
	open    bool
	lat     float64
	lon     float64
	time    Timestamp
	speed   *float64
	comment *string
}

func (b *pointBuilder) build() GeoPoint {
	return GeoPoint{Lat: b.lat, Lon: b.lon, Time: b.time, Speed: b.speed, Comment: b.comment}
}

type waypointBuilder struct {
	open bool
	lat  float64
	lon  float64
	time Timestamp
	name *string
}

func (b *waypointBuilder) build() Waypoint {
	return Waypoint{Lat: b.lat, Lon: b.lon, Time: b.time, Name: b.name}
}

// Handler turns XML events of one GPX document into a Result. A driver calls
// StartElement, CharData and EndElement in document order, then Result.
//
// Element names are compared as written, prefix included. A Handler is not
// safe for concurrent use and must not be reused for another document.
type Handler struct {
	options options

	chars *charStack

	segment     Segment
	segmentOpen bool
	dropped     int // trkseg ends still owed by segments dropped on a nested start.

	point    pointBuilder
	waypoint waypointBuilder
	inner    string // innermost open point element: elemTrkpt, elemWpt or "".

	segments  []Segment
	waypoints []Waypoint
}

// NewHandler creates a Handler ready for the first event of a document.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		options: defaultOptions(),
		chars:   newCharStack(),
	}
	for i := range opts {
		opts[i](&h.options)
	}
	return h
}

// StartElement handles an opening tag. Coordinates of trkpt and wpt are read
// here since attributes are not available at the end tag.
func (h *Handler) StartElement(name string, attrs Attributes) error {
	h.chars.push()
	if attrs == nil {
		attrs = AttrMap(nil)
	}

	switch name {
	case elemTrkseg:
		if h.segmentOpen {
			if h.options.strictSegments {
				return &StructuralError{Element: name, Reason: "opened while another trkseg is open"}
			}
			h.options.logger.Warn().
				Int("points", len(h.segment)).
				Msg("trkseg opened while another trkseg is open, dropping the open one")
			h.dropped++
		}
		h.segment, h.segmentOpen = Segment{}, true
	case elemTrkpt:
		lat, lon, err := parseLatLon(attrs)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		h.point = pointBuilder{open: true, lat: lat, lon: lon}
		h.inner = elemTrkpt
	case elemWpt:
		lat, lon, err := parseLatLon(attrs)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		h.waypoint = waypointBuilder{open: true, lat: lat, lon: lon}
		h.inner = elemWpt
	}

	return nil
}

// CharData appends a text fragment to the innermost open element. A text
// node may arrive in several fragments.
func (h *Handler) CharData(b []byte) {
	if len(b) == 0 {
		return
	}
	h.chars.write(b)
}

// EndElement handles a closing tag, consuming the text gathered since the
// matching StartElement.
func (h *Handler) EndElement(name string) error {
	text, ok := h.chars.pop()
	if !ok {
		return &StructuralError{Element: name, Reason: "closed without a matching start"}
	}

	switch name {
	case elemTrkseg:
		if !h.segmentOpen {
			if h.dropped > 0 {
				h.dropped--
				break
			}
			return &StructuralError{Element: name, Reason: "closed while no trkseg is open"}
		}
		h.options.logger.Debug().
			Int("segment", len(h.segments)).
			Int("points", len(h.segment)).
			Msg("trkseg done")
		h.segments = append(h.segments, h.segment)
		h.segment, h.segmentOpen = nil, false
	case elemTrkpt:
		if !h.segmentOpen {
			return &StructuralError{Element: name, Reason: "closed outside any trkseg"}
		}
		h.segment = append(h.segment, h.point.build())
		h.point = pointBuilder{}
		h.inner = h.innerAfterClose()
	case elemWpt:
		h.waypoints = append(h.waypoints, h.waypoint.build())
		h.waypoint = waypointBuilder{}
		h.inner = h.innerAfterClose()
	case elemTime:
		ts, err := h.parseTime(text)
		if err != nil {
			return err
		}
		switch h.inner {
		case elemTrkpt:
			h.point.time = ts
		case elemWpt:
			h.waypoint.time = ts
		}
	case elemSpeed:
		if text == "" {
			break // <speed></speed> has no value, "  " is not a number
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return fmt.Errorf("%s %q: %w: %w", name, text, ErrMalformedNumber, err)
		}
		if h.inner == elemTrkpt {
			h.point.speed = &v
		}
	case elemName:
		if h.inner == elemWpt {
			h.waypoint.name = &text
		}
	case elemCmt:
		if h.inner == elemTrkpt {
			h.point.comment = &text
		}
	}

	return nil
}

// Result returns what has been parsed so far. Calling it again yields the
// same content, it does not alter the Handler.
func (h *Handler) Result() Result {
	return Result{segments: h.segments, waypoints: h.waypoints}
}

func (h *Handler) innerAfterClose() string {
	switch {
	case h.point.open:
		return elemTrkpt
	case h.waypoint.open:
		return elemWpt
	}
	return ""
}

func (h *Handler) parseTime(text string) (Timestamp, error) {
	t, blank, ok := parseDateTime(text, h.options.location)
	switch {
	case ok:
		return TimestampOf(t), nil
	case blank && h.options.blankTimeAsZero:
		return Timestamp{Valid: true}, nil
	case blank:
		return Timestamp{}, nil
	}

	h.options.logger.Error().Str("text", text).Msg("unable to parse date and time")
	return Timestamp{}, &DateTimeFormatError{
		Text:    text,
		Message: h.options.messages.Message(i18n.KeyDateTimeFormat, text),
	}
}

func parseLatLon(attrs Attributes) (lat, lon float64, err error) {
	if lat, err = parseCoord(attrs, attrLat); err != nil {
		return 0, 0, err
	}
	if lon, err = parseCoord(attrs, attrLon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func parseCoord(attrs Attributes, name string) (float64, error) {
	v, ok := attrs.Value(name)
	if !ok {
		return 0, fmt.Errorf("%s: missing: %w", name, ErrMalformedNumber)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w: %w", name, v, ErrMalformedNumber, err)
	}
	return f, nil
}
