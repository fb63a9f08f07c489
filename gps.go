package virbfit

import (
	"time"

	"github.com/lucasjlepore/virbfit/fitdec"
)

const (
	// DefaultMinFix keeps only points with a 3D satellite lock.
	DefaultMinFix = 3
	// DefaultDownsample keeps every tenth point of the 10 Hz VIRB stream.
	DefaultDownsample = 10
)

// Point is one GPS sample in user units. Timestamp is the offset from the
// stream's system clock zero; DateTime and Duration are filled in by the
// post-processing steps.
type Point struct {
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Altitude  float64       `json:"altitude_m"`
	Speed2D   float64       `json:"speed_2d_mps"`
	Speed3D   float64       `json:"speed_3d_mps"`
	Heading   float64       `json:"heading_deg"`
	Fix       uint8         `json:"fix"`
	Timestamp time.Duration `json:"-"`
	DateTime  time.Time     `json:"datetime"`
	Duration  time.Duration `json:"duration"`
}

// PointsFromFit converts the gps_metadata stream to points in file order.
// VIRB gps_metadata carries no per-point fix field; samples only appear once
// the receiver has a 3D lock, so points report fix 3.
func PointsFromFit(f *fitdec.Fit) []Point {
	return pointsFromMetadata(f.GpsMetadata())
}

func pointsFromMetadata(metadata []fitdec.GpsMetadata) []Point {
	points := make([]Point, 0, len(metadata))
	for _, g := range metadata {
		points = append(points, Point{
			Latitude:  g.LatitudeDegrees(),
			Longitude: g.LongitudeDegrees(),
			Altitude:  g.AltitudeMeters(),
			Speed2D:   g.Speed2D(),
			Speed3D:   g.Speed3D(),
			Heading:   g.HeadingDegrees(),
			Fix:       DefaultMinFix,
			Timestamp: g.Relative(),
		})
	}
	return points
}

// Prune drops points whose fix quality is below minFix, preserving order.
func Prune(points []Point, minFix uint8) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Fix >= minFix {
			out = append(out, p)
		}
	}
	return out
}

// Downsample keeps every Nth point by index (0, N, 2N, …). A factor of 1 or
// less keeps everything. Deliberately index-based: irregular source intervals
// are not corrected.
func Downsample(points []Point, factor int) []Point {
	if factor <= 1 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}
	out := make([]Point, 0, (len(points)+factor-1)/factor)
	for i := 0; i < len(points); i += factor {
		out = append(out, points[i])
	}
	return out
}

// SetAbsoluteTimes anchors each point at t0 + (relative offset − session
// start), clamping the offset to zero so points stamped before the session's
// first clip never precede t0.
func SetAbsoluteTimes(points []Point, t0 time.Time, sessionStart time.Duration) {
	for i := range points {
		offset := points[i].Timestamp - sessionStart
		if offset < 0 {
			offset = 0
		}
		points[i].DateTime = t0.Add(offset)
	}
}

// AssignDurations gives every point the time to its successor; the last point
// runs to the session end. Negative deltas clamp to zero, guarding clock
// rollback and out-of-order timestamps.
func AssignDurations(points []Point, end time.Time) {
	for i := range points {
		var d time.Duration
		if i+1 < len(points) {
			d = points[i+1].DateTime.Sub(points[i].DateTime)
		} else {
			d = end.Sub(points[i].DateTime)
		}
		if d < 0 {
			d = 0
		}
		points[i].Duration = d
	}
}
