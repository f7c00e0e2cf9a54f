package gpxtrack

import (
	"math"
	"slices"
	"time"
)

// Result is the outcome of parsing one GPX document: track segments in
// trkseg document order and waypoints in wpt document order.
// Accessors return copies, so a Result is safe to share once built.
type Result struct {
	segments  []Segment
	waypoints []Waypoint
}

// NewResult builds a Result from already decoded data, e.g. loaded from storage.
func NewResult(segments []Segment, waypoints []Waypoint) Result {
	return Result{
		segments:  cloneSegments(segments),
		waypoints: slices.Clone(waypoints),
	}
}

// Segments returns the track segments in document order.
func (r Result) Segments() []Segment { return cloneSegments(r.segments) }

// Waypoints returns the waypoints in document order.
func (r Result) Waypoints() []Waypoint { return slices.Clone(r.waypoints) }

// PointCount returns the number of track points across all segments.
func (r Result) PointCount() int {
	var n int
	for i := range r.segments {
		n += len(r.segments[i])
	}
	return n
}

// Bounds is a latitude/longitude envelope in degrees.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Bounds returns the envelope of every track point and waypoint.
// ok is false when the Result holds no coordinates at all.
func (r Result) Bounds() (b Bounds, ok bool) {
	b = Bounds{
		MinLat: math.MaxFloat64, MaxLat: -math.MaxFloat64,
		MinLon: math.MaxFloat64, MaxLon: -math.MaxFloat64,
	}
	extend := func(lat, lon float64) {
		b.MinLat, b.MaxLat = min(b.MinLat, lat), max(b.MaxLat, lat)
		b.MinLon, b.MaxLon = min(b.MinLon, lon), max(b.MaxLon, lon)
		ok = true
	}
	for _, seg := range r.segments {
		for i := range seg {
			extend(seg[i].Lat, seg[i].Lon)
		}
	}
	for i := range r.waypoints {
		extend(r.waypoints[i].Lat, r.waypoints[i].Lon)
	}
	if !ok {
		return Bounds{}, false
	}
	return b, true
}

// TimeSpan returns the earliest and latest track point timestamps.
// ok is false when no track point carries a timestamp.
func (r Result) TimeSpan() (start, end time.Time, ok bool) {
	var lo, hi int64
	for _, seg := range r.segments {
		for i := range seg {
			ts := seg[i].Time
			if !ts.Valid {
				continue
			}
			if !ok {
				lo, hi, ok = ts.Millis, ts.Millis, true
				continue
			}
			lo, hi = min(lo, ts.Millis), max(hi, ts.Millis)
		}
	}
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return time.UnixMilli(lo).UTC(), time.UnixMilli(hi).UTC(), true
}

func cloneSegments(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	out := make([]Segment, len(segments))
	for i := range segments {
		out[i] = slices.Clone(segments[i])
	}
	return out
}
