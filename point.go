package gpxtrack

import "time"

// Timestamp is an optional instant in milliseconds since the Unix epoch, UTC.
// The zero value is an absent timestamp.
type Timestamp struct {
	Millis int64
	Valid  bool
}

// TimestampOf returns a valid Timestamp for t.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Millis: t.UnixMilli(), Valid: true}
}

// Time returns the instant in UTC, or the zero time.Time when absent.
func (t Timestamp) Time() time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return time.UnixMilli(t.Millis).UTC()
}

// GeoPoint is one timestamped location sample of a track segment (trkpt).
type GeoPoint struct {
	Lat     float64
	Lon     float64
	Time    Timestamp
	Speed   *float64 // nil when the point has no or an empty speed element.
	Comment *string  // nil when the point has no cmt element.
}

// Waypoint is a standalone named point of interest (wpt).
type Waypoint struct {
	Lat  float64
	Lon  float64
	Time Timestamp
	Name *string // nil when the waypoint has no name element.
}

// Segment is an ordered run of points from one trkseg, in document order.
type Segment []GeoPoint
