// Package export writes session artifacts for downstream annotation tooling:
// the GPS track as Parquet or CSV, and the session descriptor as JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lucasjlepore/virbfit"
)

// Options selects what Run writes and where.
type Options struct {
	OutDir string
	Format string // parquet|csv, defaults to parquet
}

// Result lists the artifact paths Run produced.
type Result struct {
	TrackPath   string `json:"track_path"`
	SessionPath string `json:"session_path"`
	PointCount  int    `json:"point_count"`
}

// Run writes the track in the requested format plus the session descriptor.
func Run(s *virbfit.Session, points []virbfit.Point, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	trackPath := filepath.Join(opts.OutDir, "track."+format)
	switch format {
	case "csv":
		if err := WriteTrackCSV(trackPath, points); err != nil {
			return nil, fmt.Errorf("write track csv: %w", err)
		}
	case "parquet":
		if err := WriteTrackParquet(trackPath, points); err != nil {
			return nil, fmt.Errorf("write track parquet: %w", err)
		}
	}

	sessionPath := filepath.Join(opts.OutDir, "session.json")
	if err := writeJSON(sessionPath, s); err != nil {
		return nil, fmt.Errorf("write session.json: %w", err)
	}

	return &Result{
		TrackPath:   trackPath,
		SessionPath: sessionPath,
		PointCount:  len(points),
	}, nil
}

type trackParquetRow struct {
	DateTimeISO string  `parquet:"name=datetime_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Latitude    float64 `parquet:"name=latitude, type=DOUBLE"`
	Longitude   float64 `parquet:"name=longitude, type=DOUBLE"`
	AltitudeM   float64 `parquet:"name=altitude_m, type=DOUBLE"`
	Speed2DMPS  float64 `parquet:"name=speed_2d_mps, type=DOUBLE"`
	Speed3DMPS  float64 `parquet:"name=speed_3d_mps, type=DOUBLE"`
	HeadingDeg  float64 `parquet:"name=heading_deg, type=DOUBLE"`
	Fix         int32   `parquet:"name=fix, type=INT32"`
	DurationMS  int64   `parquet:"name=duration_ms, type=INT64"`
}

// WriteTrackParquet writes the points as a SNAPPY-compressed Parquet file.
func WriteTrackParquet(path string, points []virbfit.Point) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, new(trackParquetRow), 2)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, p := range points {
		row := trackParquetRow{
			DateTimeISO: p.DateTime.UTC().Format(time.RFC3339Nano),
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
			AltitudeM:   p.Altitude,
			Speed2DMPS:  p.Speed2D,
			Speed3DMPS:  p.Speed3D,
			HeadingDeg:  p.Heading,
			Fix:         int32(p.Fix),
			DurationMS:  p.Duration.Milliseconds(),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// WriteTrackCSV writes the points as CSV with a header row.
func WriteTrackCSV(path string, points []virbfit.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"datetime_iso", "latitude", "longitude", "altitude_m", "speed_2d_mps", "speed_3d_mps", "heading_deg", "fix", "duration_ms"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			p.DateTime.UTC().Format(time.RFC3339Nano),
			strconv.FormatFloat(p.Latitude, 'f', -1, 64),
			strconv.FormatFloat(p.Longitude, 'f', -1, 64),
			strconv.FormatFloat(p.Altitude, 'f', -1, 64),
			strconv.FormatFloat(p.Speed2D, 'f', -1, 64),
			strconv.FormatFloat(p.Speed3D, 'f', -1, 64),
			strconv.FormatFloat(p.Heading, 'f', -1, 64),
			strconv.Itoa(int(p.Fix)),
			strconv.FormatInt(p.Duration.Milliseconds(), 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
