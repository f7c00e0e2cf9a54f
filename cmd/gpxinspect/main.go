// Command gpxinspect decodes GPX files, logs a summary of each and
// optionally stores the decoded tracks.
//
//	gpxinspect [-config path] [-env path] [-stdlib] [-save] [-no-color] file.gpx...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/muktihari/gpxtrack"
	"github.com/muktihari/gpxtrack/internal/config"
	"github.com/muktihari/gpxtrack/internal/i18n"
	"github.com/muktihari/gpxtrack/internal/logging"
	"github.com/muktihari/gpxtrack/internal/store"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type decodeFunc func(path string, opts ...gpxtrack.Option) (gpxtrack.Result, error)

func decodeFileStdlib(path string, opts ...gpxtrack.Option) (gpxtrack.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return gpxtrack.Result{}, err
	}
	defer f.Close()

	return gpxtrack.DecodeStdlib(f, opts...)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gpxinspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default: ./gpxinspect.{json,yaml} when present)")
	envPath := fs.String("env", ".env", "dotenv file exported before reading the config")
	useStdlib := fs.Bool("stdlib", false, "decode with encoding/xml, honouring non UTF-8 encodings")
	save := fs.Bool("save", false, "store decoded results, same as store.enabled=true")
	noColor := fs.Bool("no-color", false, "disable colored log output")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: gpxinspect [flags] file.gpx...")
		fs.PrintDefaults()
		return 2
	}

	if err := config.LoadDotEnv(*envPath); err != nil {
		fmt.Fprintf(stderr, "gpxinspect: %v\n", err)
		return 1
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "gpxinspect: %v\n", err)
		return 1
	}

	log := logging.New(cfg.LogLevel, stdout, *noColor)

	catalog, err := i18n.New(cfg.Language)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to english messages")
		catalog = i18n.Default()
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Error().Err(err).Msg("invalid timezone")
		return 1
	}

	opts := []gpxtrack.Option{
		gpxtrack.WithLogger(log),
		gpxtrack.WithLocation(loc),
		gpxtrack.WithMessages(catalog),
	}
	if cfg.StrictSegments {
		opts = append(opts, gpxtrack.WithStrictSegments())
	}
	if cfg.BlankTimeAsZero {
		opts = append(opts, gpxtrack.WithBlankTimeAsZero())
	}

	var st *store.Store
	if *save || cfg.Store.Enabled {
		st, err = store.Open(store.Config{
			Driver:     cfg.Store.Driver,
			SQLitePath: cfg.Store.SQLitePath,
			DSN:        cfg.Store.DSN,
		}, log)
		if err != nil {
			log.Error().Err(err).Msg("could not open store")
			return 1
		}
		defer st.Close()
	}

	decode := decodeFunc(gpxtrack.DecodeFile)
	if *useStdlib {
		decode = decodeFileStdlib
	}

	var bar *progressbar.ProgressBar
	if fs.NArg() > 1 {
		bar = progressbar.NewOptions(fs.NArg(),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionSetDescription("[GPX]"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}

	var failed int
	for _, path := range fs.Args() {
		if err := inspect(ctx, log, st, decode, path, opts); err != nil {
			failed++
			log.Error().Err(err).Str("file", path).Msg("decode failed")
			fmt.Fprintf(stderr, "%s: %s\n", path, userMessage(catalog, err))
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(stderr)
	}

	log.Info().Int("files", fs.NArg()).Int("failed", failed).Msg("done")
	if failed > 0 {
		return 1
	}
	return 0
}

func inspect(ctx context.Context, log zerolog.Logger, st *store.Store, decode decodeFunc, path string, opts []gpxtrack.Option) error {
	res, err := decode(path, opts...)
	if err != nil {
		return err
	}

	ev := log.Info().
		Str("file", path).
		Int("segments", len(res.Segments())).
		Int("points", res.PointCount()).
		Int("waypoints", len(res.Waypoints()))
	if b, ok := res.Bounds(); ok {
		ev = ev.Floats64("lat", []float64{b.MinLat, b.MaxLat}).
			Floats64("lon", []float64{b.MinLon, b.MaxLon})
	}
	if start, end, ok := res.TimeSpan(); ok {
		ev = ev.Time("start", start).Time("end", end).Dur("duration", end.Sub(start))
	}
	ev.Msg("decoded")

	if st == nil {
		return nil
	}
	id, err := st.Save(ctx, filepath.Base(path), res)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	log.Info().Str("file", path).Uint("id", id).Msg("saved")
	return nil
}

// userMessage renders err in the catalog language.
func userMessage(catalog *i18n.Catalog, err error) string {
	var dtErr *gpxtrack.DateTimeFormatError
	switch {
	case errors.As(err, &dtErr):
		return dtErr.Message
	case errors.Is(err, gpxtrack.ErrMalformedNumber):
		return catalog.Message(i18n.KeyMalformedNumber, err)
	case errors.Is(err, gpxtrack.ErrStructuralViolation):
		return catalog.Message(i18n.KeyStructure, err)
	}
	return err.Error()
}
