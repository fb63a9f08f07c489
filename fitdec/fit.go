package fitdec

import (
	"fmt"
	"time"
)

// Fit is one fully decoded FIT file. Records keep file order; unrecognized
// global numbers remain available as opaque DataMessages.
type Fit struct {
	Path    string
	Header  FileHeader
	Records []DataMessage
	CRC     uint16 // stored trailing checksum, not validated
}

// Filter returns all data messages with the given global number, in file
// order.
func (f *Fit) Filter(global uint16) []DataMessage {
	var out []DataMessage
	for _, m := range f.Records {
		if m.Global == global {
			out = append(out, m)
		}
	}
	return out
}

// FilterRange is Filter restricted to file-order indexes in [from, to).
// A negative to means unbounded.
func (f *Fit) FilterRange(global uint16, from, to int) []DataMessage {
	var out []DataMessage
	for _, m := range f.Records {
		if m.Global != global {
			continue
		}
		if m.Index < from {
			continue
		}
		if to >= 0 && m.Index >= to {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Group buckets all records by global message number, preserving file order
// within each bucket.
func (f *Fit) Group() map[uint16][]DataMessage {
	out := make(map[uint16][]DataMessage)
	for _, m := range f.Records {
		out[m.Global] = append(out[m.Global], m)
	}
	return out
}

// Counts returns the number of data messages per global number.
func (f *Fit) Counts() map[uint16]int {
	out := make(map[uint16]int)
	for _, m := range f.Records {
		out[m.Global]++
	}
	return out
}

// T0 derives the absolute time of the stream's system clock zero from the
// first timestamp_correlation message, plus a user hour offset for cameras
// set to local time.
func (f *Fit) T0(offsetHours int) (time.Time, error) {
	for _, m := range f.Records {
		if m.Global != GlobalTimestampCorrelation {
			continue
		}
		tc, ok := timestampCorrelationFromMessage(m)
		if !ok {
			continue
		}
		t0 := fitEpoch.
			Add(time.Duration(offsetHours) * time.Hour).
			Add(time.Duration(int64(tc.Timestamp)-int64(tc.SystemTimestamp)) * time.Second).
			Add(time.Duration(int64(tc.TimestampMS)-int64(tc.SystemTimestampMS)) * time.Millisecond)
		return t0, nil
	}
	return time.Time{}, fmt.Errorf("%w in %s", ErrNoCorrelation, f.Path)
}

// CameraEvents projects all camera_event messages in file order.
func (f *Fit) CameraEvents() []CameraEvent {
	var out []CameraEvent
	for _, m := range f.Records {
		if m.Global != GlobalCameraEvent {
			continue
		}
		if e, ok := cameraEventFromMessage(m); ok {
			out = append(out, e)
		}
	}
	return out
}

// UUIDs returns the distinct camera file UUIDs in first-seen order.
func (f *Fit) UUIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range f.CameraEvents() {
		if e.UUID == "" || seen[e.UUID] {
			continue
		}
		seen[e.UUID] = true
		out = append(out, e.UUID)
	}
	return out
}

// GpsMetadata projects all gps_metadata messages in file order.
func (f *Fit) GpsMetadata() []GpsMetadata {
	return f.GpsMetadataRange(0, -1)
}

// GpsMetadataRange projects the gps_metadata messages with file-order indexes
// in [from, to), so callers can scope samples to one recording's record span.
// A negative to means unbounded.
func (f *Fit) GpsMetadataRange(from, to int) []GpsMetadata {
	var out []GpsMetadata
	for _, m := range f.FilterRange(GlobalGpsMetadata, from, to) {
		if g, ok := gpsMetadataFromMessage(m); ok {
			out = append(out, g)
		}
	}
	return out
}

// SensorData projects one sensor stream in file order, applying the most
// recent preceding calibration message to each burst. Bursts before the first
// calibration stay raw.
func (f *Fit) SensorData(kind SensorKind) ([]SensorData, error) {
	if kind == Barometer {
		return nil, fmt.Errorf("barometer samples are one-dimensional, use BarometerData")
	}
	global := kind.Global()
	calType := kind.calibrationType()

	var out []SensorData
	var cal *ThreeDCalibration
	for _, m := range f.Records {
		switch m.Global {
		case GlobalThreeDSensorCalibration:
			if c, ok := threeDCalibrationFromMessage(m); ok && c.SensorType == calType {
				cal = &c
			}
		case global:
			d, ok := sensorDataFromMessage(m, kind)
			if !ok {
				continue
			}
			if cal != nil {
				cal.Apply(&d)
			}
			out = append(out, d)
		}
	}
	return out, nil
}

// BarometerData projects the pressure stream in file order, applying the most
// recent preceding one_d_sensor_calibration.
func (f *Fit) BarometerData() []BarometerData {
	var out []BarometerData
	var cal *OneDCalibration
	for _, m := range f.Records {
		switch m.Global {
		case GlobalOneDSensorCalibration:
			if c, ok := oneDCalibrationFromMessage(m); ok && c.SensorType == Barometer.calibrationType() {
				cal = &c
			}
		case GlobalBarometerData:
			d, ok := barometerDataFromMessage(m)
			if !ok {
				continue
			}
			if cal != nil {
				cal.Apply(&d)
			}
			out = append(out, d)
		}
	}
	return out
}
