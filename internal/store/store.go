// Package store persists decoded GPX results with gorm, on SQLite by default
// or on Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/muktihari/gpxtrack"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type errorString string

func (e errorString) Error() string { return string(e) }

const (
	ErrNotFound      = errorString("file not found")
	ErrUnknownDriver = errorString("unknown driver")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	memoryDSN = "file::memory:?cache=shared"
	batchSize = 2000
)

// Config selects the database. An empty SQLitePath opens a shared in-memory
// SQLite database.
type Config struct {
	Driver     string
	SQLitePath string
	DSN        string
}

// Store saves and loads Results.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects to the configured database and migrates the schema.
func Open(cfg Config, log zerolog.Logger) (*Store, error) {
	gormConfig := &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        batchSize,
		Logger: logger.New(&log, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite, "":
		dsn := cfg.SQLitePath
		if dsn == "" {
			dsn = memoryDSN
		}
		dialector = sqlite.Open(dsn)
		log.Debug().Str("path", dsn).Msg("using sqlite")
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
		log.Debug().Msg("using postgres")
	default:
		return nil, fmt.Errorf("%q: %w", cfg.Driver, ErrUnknownDriver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if err = db.AutoMigrate(&File{}, &Segment{}, &Point{}, &Waypoint{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save stores res under name in a single transaction and returns the new
// file id.
func (s *Store) Save(ctx context.Context, name string, res gpxtrack.Result) (uint, error) {
	file := File{Name: name, ImportedAt: time.Now().UTC()}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&file).Error; err != nil {
			return fmt.Errorf("file: %w", err)
		}

		for i, seg := range res.Segments() {
			row := Segment{FileID: file.ID, Seq: i}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			if len(seg) == 0 {
				continue
			}
			points := make([]Point, len(seg))
			for j := range seg {
				points[j] = newPoint(row.ID, j, seg[j])
			}
			if err := tx.CreateInBatches(points, batchSize).Error; err != nil {
				return fmt.Errorf("segment %d: points: %w", i, err)
			}
		}

		waypoints := res.Waypoints()
		if len(waypoints) == 0 {
			return nil
		}
		rows := make([]Waypoint, len(waypoints))
		for i := range waypoints {
			rows[i] = newWaypoint(file.ID, i, waypoints[i])
		}
		if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("waypoints: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Debug().
		Uint("id", file.ID).
		Str("name", name).
		Int("points", res.PointCount()).
		Msg("result saved")

	return file.ID, nil
}

// Load rebuilds the Result saved under id, in document order.
func (s *Store) Load(ctx context.Context, id uint) (gpxtrack.Result, error) {
	db := s.db.WithContext(ctx)

	var file File
	if err := db.First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gpxtrack.Result{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
		}
		return gpxtrack.Result{}, err
	}

	var segRows []Segment
	if err := db.Where("file_id = ?", id).Order("seq").Find(&segRows).Error; err != nil {
		return gpxtrack.Result{}, fmt.Errorf("segments: %w", err)
	}

	segments := make([]gpxtrack.Segment, len(segRows))
	if len(segRows) > 0 {
		index := make(map[uint]int, len(segRows))
		ids := make([]uint, len(segRows))
		for i := range segRows {
			index[segRows[i].ID] = i
			ids[i] = segRows[i].ID
		}

		var points []Point
		if err := db.Where("segment_id IN ?", ids).Order("segment_id, seq").Find(&points).Error; err != nil {
			return gpxtrack.Result{}, fmt.Errorf("points: %w", err)
		}
		for i := range points {
			k := index[points[i].SegmentID]
			segments[k] = append(segments[k], points[i].geoPoint())
		}
	}

	var wptRows []Waypoint
	if err := db.Where("file_id = ?", id).Order("seq").Find(&wptRows).Error; err != nil {
		return gpxtrack.Result{}, fmt.Errorf("waypoints: %w", err)
	}
	var waypoints []gpxtrack.Waypoint
	for i := range wptRows {
		waypoints = append(waypoints, wptRows[i].waypoint())
	}

	return gpxtrack.NewResult(segments, waypoints), nil
}

// Files lists the stored files, most recent first.
func (s *Store) Files(ctx context.Context) ([]File, error) {
	var files []File
	if err := s.db.WithContext(ctx).Order("id desc").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}
