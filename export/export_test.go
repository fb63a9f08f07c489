package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/lucasjlepore/virbfit"
)

func samplePoints() []virbfit.Point {
	base := time.Date(2021, 6, 12, 9, 30, 0, 0, time.UTC)
	return []virbfit.Point{
		{
			Latitude: 59.25, Longitude: 18.0, Altitude: 12.5,
			Speed2D: 4.2, Speed3D: 4.3, Heading: 182.5, Fix: 3,
			DateTime: base, Duration: 10 * time.Second,
		},
		{
			Latitude: 59.26, Longitude: 18.01, Altitude: 13.0,
			Speed2D: 4.0, Speed3D: 4.1, Heading: 184.0, Fix: 3,
			DateTime: base.Add(10 * time.Second), Duration: 5 * time.Second,
		},
	}
}

func sampleSession() *virbfit.Session {
	t0 := time.Date(2021, 6, 12, 9, 29, 0, 0, time.UTC)
	return &virbfit.Session{
		FitPath: "rec.fit",
		UUIDs:   []string{"UUID-A", "UUID-B"},
		Clips: []virbfit.Clip{
			{UUID: "UUID-A", MP4: "a.mp4", Duration: 90 * time.Second},
			{UUID: "UUID-B"},
		},
		T0:  t0,
		End: t0.Add(90 * time.Second),
	}
}

func TestWriteTrackCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.csv")
	if err := WriteTrackCSV(path, samplePoints()); err != nil {
		t.Fatalf("WriteTrackCSV error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d rows", len(rows))
	}
	if rows[0][0] != "datetime_iso" || rows[0][8] != "duration_ms" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "2021-06-12T09:30:00Z" {
		t.Errorf("datetime = %q", rows[1][0])
	}
	if rows[1][1] != "59.25" {
		t.Errorf("latitude = %q", rows[1][1])
	}
	if rows[1][8] != "10000" {
		t.Errorf("duration_ms = %q", rows[1][8])
	}
}

func TestWriteTrackParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.parquet")
	points := samplePoints()
	if err := WriteTrackParquet(path, points); err != nil {
		t.Fatalf("WriteTrackParquet error: %v", err)
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(trackParquetRow), 1)
	if err != nil {
		t.Fatalf("parquet reader: %v", err)
	}
	defer pr.ReadStop()

	if pr.GetNumRows() != int64(len(points)) {
		t.Fatalf("rows = %d, want %d", pr.GetNumRows(), len(points))
	}
	rows := make([]trackParquetRow, len(points))
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if rows[0].Latitude != 59.25 || rows[0].DurationMS != 10000 {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Fix != 3 || rows[1].HeadingDeg != 184.0 {
		t.Fatalf("row 1 = %+v", rows[1])
	}
}

func TestRunWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(sampleSession(), samplePoints(), Options{OutDir: dir, Format: "csv"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.PointCount != 2 {
		t.Errorf("PointCount = %d, want 2", res.PointCount)
	}
	if filepath.Base(res.TrackPath) != "track.csv" {
		t.Errorf("TrackPath = %s", res.TrackPath)
	}

	raw, err := os.ReadFile(res.SessionPath)
	if err != nil {
		t.Fatalf("read session.json: %v", err)
	}
	var decoded virbfit.Session
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode session.json: %v", err)
	}
	if len(decoded.UUIDs) != 2 || decoded.UUIDs[0] != "UUID-A" {
		t.Errorf("session uuids = %v", decoded.UUIDs)
	}
	if decoded.Clips[0].MP4 != "a.mp4" {
		t.Errorf("clip path = %q", decoded.Clips[0].MP4)
	}
}

func TestRunDefaultsToParquet(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(sampleSession(), samplePoints(), Options{OutDir: dir})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !strings.HasSuffix(res.TrackPath, "track.parquet") {
		t.Errorf("TrackPath = %s, want parquet default", res.TrackPath)
	}
	if _, err := os.Stat(res.TrackPath); err != nil {
		t.Errorf("track file missing: %v", err)
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	if _, err := Run(sampleSession(), nil, Options{OutDir: t.TempDir(), Format: "kml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
