package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/muktihari/gpxtrack/internal/i18n"
	"github.com/muktihari/gpxtrack/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(name string) string { return filepath.Join("..", "..", "testdata", name) }

func writeGPX(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bad.gpx")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestRunSummary(t *testing.T) {
	t.Setenv("GPXINSPECT_TIMEZONE", "UTC")
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-no-color", fixture("track.gpx")}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "decoded")
	assert.Contains(t, out, "segments=2")
	assert.Contains(t, out, "points=4")
	assert.Contains(t, out, "waypoints=2")
	assert.Empty(t, stderr.String())
}

func TestRunBothDrivers(t *testing.T) {
	for _, args := range [][]string{{}, {"-stdlib"}} {
		var stdout, stderr bytes.Buffer
		args = append(args, "-no-color", fixture("track.gpx"), fixture("waypoints_only.gpx"), fixture("empty_segments.gpx"))

		code := run(context.Background(), args, &stdout, &stderr)
		require.Equal(t, 0, code, stderr.String())
		assert.Contains(t, stdout.String(), "files=3")
		assert.Contains(t, stdout.String(), "failed=0")
	}
}

func TestRunDateTimeErrorInGerman(t *testing.T) {
	t.Setenv("GPXINSPECT_LANGUAGE", "de")
	path := writeGPX(t, `<gpx><wpt lat="1" lon="2"><time>gestern</time></wpt></gpx>`)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-no-color", path}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Datum und Uhrzeit konnten nicht aus der Zeichenkette 'gestern' gelesen werden")
	assert.Contains(t, stdout.String(), "failed=1")
}

func TestRunMalformedNumber(t *testing.T) {
	path := writeGPX(t, `<gpx><wpt lat="north" lon="2"></wpt></gpx>`)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-no-color", path, fixture("waypoints_only.gpx")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Invalid number in GPX file")
	assert.Contains(t, stdout.String(), "failed=1")
}

func TestRunSave(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "gpx.db")
	t.Setenv("GPXINSPECT_STORE_SQLITEPATH", dbPath)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-no-color", "-save", fixture("waypoints_only.gpx")}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "saved")

	st, err := store.Open(store.Config{Driver: store.DriverSQLite, SQLitePath: dbPath}, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	files, err := st.Files(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "waypoints_only.gpx", files[0].Name)

	res, err := st.Load(context.Background(), files[0].ID)
	require.NoError(t, err)
	require.Len(t, res.Waypoints(), 1)
	assert.Equal(t, "Borobudur", *res.Waypoints()[0].Name)
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage")
}

func TestUserMessageFallsBackToErrorText(t *testing.T) {
	err := os.ErrNotExist
	assert.Equal(t, err.Error(), userMessage(i18n.Default(), err))
}
