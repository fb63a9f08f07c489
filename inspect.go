package virbfit

import (
	"sort"
	"time"

	"github.com/lucasjlepore/virbfit/fitdec"
)

// MessageCount is one row of a per-global-number tally.
type MessageCount struct {
	Global uint16 `json:"global"`
	Name   string `json:"name,omitempty"`
	Count  int    `json:"count"`
}

// Summary is a compact inspection view of one decoded FIT file.
type Summary struct {
	FilePath        string         `json:"file_path"`
	ProtocolVersion uint8          `json:"protocol_version"`
	ProfileVersion  uint16         `json:"profile_version"`
	DataSize        uint32         `json:"data_size"`
	RecordCount     int            `json:"record_count"`
	Messages        []MessageCount `json:"messages"`
	UUIDs           []string       `json:"uuids,omitempty"`
	GpsPoints       int            `json:"gps_points"`
	FirstTimestamp  time.Time      `json:"first_timestamp,omitempty"`
	LastTimestamp   time.Time      `json:"last_timestamp,omitempty"`
}

// Summarize tallies a decoded file for inspection output.
func Summarize(f *fitdec.Fit) *Summary {
	s := &Summary{
		FilePath:        f.Path,
		ProtocolVersion: f.Header.ProtocolVersion,
		ProfileVersion:  f.Header.ProfileVersion,
		DataSize:        f.Header.DataSize,
		RecordCount:     len(f.Records),
		UUIDs:           f.UUIDs(),
		GpsPoints:       len(f.GpsMetadata()),
	}

	counts := f.Counts()
	globals := make([]uint16, 0, len(counts))
	for g := range counts {
		globals = append(globals, g)
	}
	sort.Slice(globals, func(i, j int) bool { return globals[i] < globals[j] })
	for _, g := range globals {
		s.Messages = append(s.Messages, MessageCount{Global: g, Name: GlobalName(g), Count: counts[g]})
	}

	var firstTS, lastTS uint32
	seenTS := false
	for _, m := range f.Records {
		v, ok := m.Field(253)
		if !ok || v.Invalid() {
			continue
		}
		ts, ok := v.Uint32()
		if !ok {
			continue
		}
		if !seenTS {
			firstTS = ts
			seenTS = true
		}
		lastTS = ts
	}
	if seenTS {
		s.FirstTimestamp = fitdec.FitTimeUTC(firstTS)
		s.LastTimestamp = fitdec.FitTimeUTC(lastTS)
	}
	return s
}

// GlobalName names the message numbers of the VIRB telemetry subset; other
// numbers return an empty string and print as bare integers.
func GlobalName(global uint16) string {
	switch global {
	case fitdec.GlobalGpsMetadata:
		return "gps_metadata"
	case fitdec.GlobalCameraEvent:
		return "camera_event"
	case fitdec.GlobalTimestampCorrelation:
		return "timestamp_correlation"
	case fitdec.GlobalGyroscopeData:
		return "gyroscope_data"
	case fitdec.GlobalAccelerometerData:
		return "accelerometer_data"
	case fitdec.GlobalThreeDSensorCalibration:
		return "three_d_sensor_calibration"
	case fitdec.GlobalFieldDescription:
		return "field_description"
	case fitdec.GlobalMagnetometerData:
		return "magnetometer_data"
	case fitdec.GlobalBarometerData:
		return "barometer_data"
	case fitdec.GlobalOneDSensorCalibration:
		return "one_d_sensor_calibration"
	}
	return ""
}
