package gpxtrack_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/muktihari/gpxtrack"
)

type decodeFunc func(r io.Reader, opts ...gpxtrack.Option) (gpxtrack.Result, error)

var drivers = []struct {
	name   string
	decode decodeFunc
}{
	{name: "xmltoken", decode: gpxtrack.Decode},
	{name: "stdlib", decode: gpxtrack.DecodeStdlib},
}

func TestDecodeFixtures(t *testing.T) {
	at := func(hour, min, sec, msec int) gpxtrack.Timestamp {
		return millis(time.Date(2023, 5, 1, hour, min, sec, msec*int(time.Millisecond), time.UTC))
	}

	tt := []struct {
		filename          string
		expectedSegments  []gpxtrack.Segment
		expectedWaypoints []gpxtrack.Waypoint
	}{
		{
			filename: "track.gpx",
			expectedSegments: []gpxtrack.Segment{
				{
					{Lat: 46.5197, Lon: 6.6323, Time: at(10, 0, 0, 0), Speed: ptr(3.5), Comment: ptr("leaving")},
					{Lat: 46.5201, Lon: 6.6330, Time: at(10, 0, 5, 250)},
				},
				{
					{Lat: 46.5210, Lon: 6.6340, Time: at(10, 0, 10, 0)},
					{Lat: 46.5220, Lon: 6.6350},
				},
			},
			expectedWaypoints: []gpxtrack.Waypoint{
				{Lat: 46.5197, Lon: 6.6323, Time: at(9, 58, 0, 0), Name: ptr("Start & Finish")},
				{Lat: 46.5300, Lon: 6.6400},
			},
		},
		{
			filename: "waypoints_only.gpx",
			expectedWaypoints: []gpxtrack.Waypoint{
				{Lat: -7.1872750, Lon: 110.3450230, Name: ptr("Borobudur")},
			},
		},
		{
			filename: "empty_segments.gpx",
			expectedSegments: []gpxtrack.Segment{
				{{Lat: 1, Lon: 2, Time: at(10, 0, 0, 0), Speed: ptr(12.5)}},
				{},
				{{Lat: 3, Lon: 4, Comment: ptr("")}},
			},
		},
		{
			filename: "mixed_text.gpx",
			expectedSegments: []gpxtrack.Segment{
				{
					{Lat: 47.3, Lon: 8.3, Time: at(10, 0, 0, 0), Comment: ptr("\n  line one\n")},
					{Lat: 47.4, Lon: 8.4, Comment: ptr(" <b>&amp;</b> ")},
				},
			},
			expectedWaypoints: []gpxtrack.Waypoint{
				{Lat: 47.0, Lon: 8.0, Name: ptr("  Summit  ")},
				{Lat: 47.1, Lon: 8.1, Name: ptr("foobar")},
				{Lat: 47.2, Lon: 8.2, Name: ptr("a b c")},
			},
		},
	}

	for _, tc := range tt {
		data, err := os.ReadFile(filepath.Join("testdata", tc.filename))
		if err != nil {
			t.Fatal(err)
		}
		for _, d := range drivers {
			t.Run(fmt.Sprintf("%s:%s", d.name, tc.filename), func(t *testing.T) {
				res, err := d.decode(bytes.NewReader(data), gpxtrack.WithLocation(time.UTC))
				if err != nil {
					t.Fatalf("expected nil, got: %v", err)
				}
				if diff := cmp.Diff(res.Segments(), tc.expectedSegments, diffOpts); diff != "" {
					t.Fatalf("segments: %s", diff)
				}
				if diff := cmp.Diff(res.Waypoints(), tc.expectedWaypoints, diffOpts); diff != "" {
					t.Fatalf("waypoints: %s", diff)
				}
			})
		}
	}
}

func TestDecodeDriversAgree(t *testing.T) {
	filepath.Walk("testdata", func(path string, info fs.FileInfo, _ error) error {
		if info.IsDir() || strings.ToLower(filepath.Ext(path)) != ".gpx" {
			return nil
		}

		t.Run(path, func(t *testing.T) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			res1, err := gpxtrack.DecodeStdlib(bytes.NewReader(data), gpxtrack.WithLocation(time.UTC))
			if err != nil {
				t.Fatalf("stdlib: %v", err)
			}
			res2, err := gpxtrack.Decode(bytes.NewReader(data), gpxtrack.WithLocation(time.UTC))
			if err != nil {
				t.Fatalf("xmltoken: %v", err)
			}

			if diff := cmp.Diff(res1.Segments(), res2.Segments(), diffOpts); diff != "" {
				t.Fatalf("segments: %s", diff)
			}
			if diff := cmp.Diff(res1.Waypoints(), res2.Waypoints(), diffOpts); diff != "" {
				t.Fatalf("waypoints: %s", diff)
			}
		})

		return nil
	})
}

func TestDecodeSmallReadBuffer(t *testing.T) {
	for _, filename := range []string{"track.gpx", "mixed_text.gpx"} {
		path := filepath.Join("testdata", filename)
		expected, err := gpxtrack.DecodeFile(path, gpxtrack.WithLocation(time.UTC))
		if err != nil {
			t.Fatal(err)
		}
		testDecodeSmallReadBuffer(t, path, expected)
	}
}

func testDecodeSmallReadBuffer(t *testing.T, path string, expected gpxtrack.Result) {
	for _, size := range []int{1, 5, 64} {
		t.Run(fmt.Sprintf("%s:%d", filepath.Base(path), size), func(t *testing.T) {
			res, err := gpxtrack.DecodeFile(path, gpxtrack.WithLocation(time.UTC), gpxtrack.WithReadBufferSize(size))
			if err != nil {
				t.Fatalf("expected nil, got: %v", err)
			}
			if diff := cmp.Diff(res.Segments(), expected.Segments(), diffOpts); diff != "" {
				t.Fatal(diff)
			}
			if diff := cmp.Diff(res.Waypoints(), expected.Waypoints(), diffOpts); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestDecodeTextAsWritten(t *testing.T) {
	tt := []struct {
		name     string
		doc      string
		expected []gpxtrack.Waypoint
	}{
		{
			name:     "padded name",
			doc:      `<gpx><wpt lat="1" lon="2"><name> Summit </name></wpt></gpx>`,
			expected: []gpxtrack.Waypoint{{Lat: 1, Lon: 2, Name: ptr(" Summit ")}},
		},
		{
			name:     "comment inside text",
			doc:      `<gpx><wpt lat="1" lon="2"><name>foo<!-- c -->bar</name></wpt></gpx>`,
			expected: []gpxtrack.Waypoint{{Lat: 1, Lon: 2, Name: ptr("foobar")}},
		},
		{
			name:     "procinst inside text",
			doc:      `<gpx><wpt lat="1" lon="2"><name>a<?pi x?>b</name></wpt></gpx>`,
			expected: []gpxtrack.Waypoint{{Lat: 1, Lon: 2, Name: ptr("ab")}},
		},
		{
			name:     "mixed cdata",
			doc:      `<gpx><wpt lat="1" lon="2"><name>a <![CDATA[b]]> c</name></wpt></gpx>`,
			expected: []gpxtrack.Waypoint{{Lat: 1, Lon: 2, Name: ptr("a b c")}},
		},
		{
			name: "comment before time",
			doc:  `<gpx><wpt lat="1" lon="2"><time><!--x-->2023-05-01T10:00:00Z</time></wpt></gpx>`,
			expected: []gpxtrack.Waypoint{
				{Lat: 1, Lon: 2, Time: millis(time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC))},
			},
		},
	}

	for _, tc := range tt {
		for _, d := range drivers {
			t.Run(fmt.Sprintf("%s:%s", d.name, tc.name), func(t *testing.T) {
				res, err := d.decode(strings.NewReader(tc.doc), gpxtrack.WithLocation(time.UTC))
				if err != nil {
					t.Fatalf("expected nil, got: %v", err)
				}
				if diff := cmp.Diff(res.Waypoints(), tc.expected, diffOpts); diff != "" {
					t.Fatal(diff)
				}
			})
		}
	}
}

func TestDecodeCommentCRLF(t *testing.T) {
	const doc = "<gpx><trk><trkseg><trkpt lat=\"1\" lon=\"2\"><cmt>one\r\ntwo\rthree</cmt></trkpt></trkseg></trk></gpx>"
	expected := []gpxtrack.Segment{{{Lat: 1, Lon: 2, Comment: ptr("one\ntwo\nthree")}}}

	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			res, err := d.decode(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("expected nil, got: %v", err)
			}
			if diff := cmp.Diff(res.Segments(), expected, diffOpts); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestDecodeEntities(t *testing.T) {
	const doc = `<gpx>` +
		`<wpt lat='1.5' lon="&#50;"><name>&lt;Fish&gt; &amp; Chips &#233;</name></wpt>` +
		`<trk><trkseg><trkpt lat="1" lon="2"><cmt>a &quot;b&quot; &apos;c&apos;</cmt></trkpt></trkseg></trk>` +
		`</gpx>`

	expectedSegments := []gpxtrack.Segment{
		{{Lat: 1, Lon: 2, Comment: ptr(`a "b" 'c'`)}},
	}
	expectedWaypoints := []gpxtrack.Waypoint{
		{Lat: 1.5, Lon: 2, Name: ptr("<Fish> & Chips é")},
	}

	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			res, err := d.decode(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("expected nil, got: %v", err)
			}
			if diff := cmp.Diff(res.Segments(), expectedSegments, diffOpts); diff != "" {
				t.Fatal(diff)
			}
			if diff := cmp.Diff(res.Waypoints(), expectedWaypoints, diffOpts); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tt := []struct {
		name string
		doc  string
		err  error
	}{
		{
			name: "malformed lat",
			doc:  `<gpx><trk><trkseg><trkpt lat="north" lon="1"/></trkseg></trk></gpx>`,
			err:  gpxtrack.ErrMalformedNumber,
		},
		{
			name: "missing lon",
			doc:  `<gpx><wpt lat="1"></wpt></gpx>`,
			err:  gpxtrack.ErrMalformedNumber,
		},
		{
			name: "malformed speed",
			doc:  `<gpx><trk><trkseg><trkpt lat="1" lon="1"><speed>fast</speed></trkpt></trkseg></trk></gpx>`,
			err:  gpxtrack.ErrMalformedNumber,
		},
		{
			name: "speed of only whitespace",
			doc:  `<gpx><trk><trkseg><trkpt lat="1" lon="1"><speed>  </speed></trkpt></trkseg></trk></gpx>`,
			err:  gpxtrack.ErrMalformedNumber,
		},
		{
			name: "malformed time",
			doc:  `<gpx><trk><trkseg><trkpt lat="1" lon="1"><time>yesterday</time></trkpt></trkseg></trk></gpx>`,
			err:  gpxtrack.ErrDateTimeFormat,
		},
		{
			name: "trkseg end without start",
			doc:  `<gpx></trkseg></gpx>`,
			err:  gpxtrack.ErrStructuralViolation,
		},
		{
			name: "trkpt outside trkseg",
			doc:  `<gpx><trkpt lat="1" lon="1"></trkpt></gpx>`,
			err:  gpxtrack.ErrStructuralViolation,
		},
	}

	for _, tc := range tt {
		for _, d := range drivers {
			t.Run(fmt.Sprintf("%s:%s", d.name, tc.name), func(t *testing.T) {
				res, err := d.decode(strings.NewReader(tc.doc))
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected: %v, got: %v", tc.err, err)
				}
				if res.Segments() != nil || res.Waypoints() != nil {
					t.Fatalf("expected empty result on error, got: %v %v", res.Segments(), res.Waypoints())
				}
			})
		}
	}
}

func TestDecodeUnexpectedEOF(t *testing.T) {
	_, err := gpxtrack.Decode(strings.NewReader(`<gpx><trk><trkseg><trkpt lat="1"`))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected: %v, got: %v", io.ErrUnexpectedEOF, err)
	}
	if !strings.HasPrefix(err.Error(), "gpx: ") {
		t.Fatalf("expected error prefixed with %q, got: %q", "gpx: ", err.Error())
	}
}

func TestDecodeStdlibCharset(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<gpx><wpt lat=\"1\" lon=\"2\"><name>Caf\xe9</name></wpt></gpx>")

	res, err := gpxtrack.DecodeStdlib(bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("expected nil, got: %v", err)
	}
	expected := []gpxtrack.Waypoint{{Lat: 1, Lon: 2, Name: ptr("Café")}}
	if diff := cmp.Diff(res.Waypoints(), expected, diffOpts); diff != "" {
		t.Fatal(diff)
	}

	doc = []byte(`<?xml version="1.0" encoding="x-no-such-charset"?><gpx></gpx>`)
	if _, err = gpxtrack.DecodeStdlib(bytes.NewReader(doc)); err == nil {
		t.Fatalf("expected error for an unknown charset")
	}
}

func TestDecodeFileNotExist(t *testing.T) {
	_, err := gpxtrack.DecodeFile(filepath.Join("testdata", "missing.gpx"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected: %v, got: %v", fs.ErrNotExist, err)
	}
}
