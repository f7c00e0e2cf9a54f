package store

import (
	"time"

	"github.com/muktihari/gpxtrack"
)

// File is one imported GPX document.
type File struct {
	ID         uint   `gorm:"primarykey"`
	Name       string `gorm:"size:512"`
	ImportedAt time.Time
}

func (File) TableName() string { return "gpx_files" }

// Segment is one trkseg of a File, Seq being its position in the document.
type Segment struct {
	ID     uint `gorm:"primarykey"`
	FileID uint `gorm:"index;not null"`
	Seq    int  `gorm:"not null"`
}

func (Segment) TableName() string { return "gpx_segments" }

// Point is one trkpt of a Segment.
type Point struct {
	ID         uint `gorm:"primarykey"`
	SegmentID  uint `gorm:"index;not null"`
	Seq        int  `gorm:"not null"`
	Lat        float64
	Lon        float64
	TimeMillis *int64
	Speed      *float64
	Comment    *string
}

func (Point) TableName() string { return "gpx_points" }

// Waypoint is one wpt of a File.
type Waypoint struct {
	ID         uint `gorm:"primarykey"`
	FileID     uint `gorm:"index;not null"`
	Seq        int  `gorm:"not null"`
	Lat        float64
	Lon        float64
	TimeMillis *int64
	Name       *string
}

func (Waypoint) TableName() string { return "gpx_waypoints" }

func toMillis(ts gpxtrack.Timestamp) *int64 {
	if !ts.Valid {
		return nil
	}
	v := ts.Millis
	return &v
}

func fromMillis(v *int64) gpxtrack.Timestamp {
	if v == nil {
		return gpxtrack.Timestamp{}
	}
	return gpxtrack.Timestamp{Millis: *v, Valid: true}
}

func newPoint(segmentID uint, seq int, p gpxtrack.GeoPoint) Point {
	return Point{
		SegmentID:  segmentID,
		Seq:        seq,
		Lat:        p.Lat,
		Lon:        p.Lon,
		TimeMillis: toMillis(p.Time),
		Speed:      p.Speed,
		Comment:    p.Comment,
	}
}

func (p Point) geoPoint() gpxtrack.GeoPoint {
	return gpxtrack.GeoPoint{
		Lat:     p.Lat,
		Lon:     p.Lon,
		Time:    fromMillis(p.TimeMillis),
		Speed:   p.Speed,
		Comment: p.Comment,
	}
}

func newWaypoint(fileID uint, seq int, w gpxtrack.Waypoint) Waypoint {
	return Waypoint{
		FileID:     fileID,
		Seq:        seq,
		Lat:        w.Lat,
		Lon:        w.Lon,
		TimeMillis: toMillis(w.Time),
		Name:       w.Name,
	}
}

func (w Waypoint) waypoint() gpxtrack.Waypoint {
	return gpxtrack.Waypoint{
		Lat:  w.Lat,
		Lon:  w.Lon,
		Time: fromMillis(w.TimeMillis),
		Name: w.Name,
	}
}
