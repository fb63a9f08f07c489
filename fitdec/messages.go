package fitdec

import (
	"math"
	"time"
)

// Global message numbers of the VIRB telemetry subset. Everything else stays
// available as opaque DataMessages.
const (
	GlobalGpsMetadata             uint16 = 160
	GlobalCameraEvent             uint16 = 161
	GlobalTimestampCorrelation    uint16 = 162
	GlobalGyroscopeData           uint16 = 164
	GlobalAccelerometerData       uint16 = 165
	GlobalThreeDSensorCalibration uint16 = 167
	GlobalFieldDescription        uint16 = 206
	GlobalMagnetometerData        uint16 = 208
	GlobalBarometerData           uint16 = 209
	GlobalOneDSensorCalibration   uint16 = 210
)

// camera_event event types.
const (
	CameraEventVideoStart           uint8 = 0
	CameraEventVideoSplit           uint8 = 1
	CameraEventVideoEnd             uint8 = 2
	CameraEventPhotoTaken           uint8 = 3
	CameraEventVideoSecondStreamEnd uint8 = 6
)

const semicircleDegrees = 180.0 / 2147483648.0

var fitEpoch = time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)

// FitTimeUTC converts a raw FIT timestamp (seconds since the FIT epoch,
// 1989-12-31T00:00:00Z) to an absolute time.
func FitTimeUTC(ts uint32) time.Time {
	return fitEpoch.Add(time.Duration(ts) * time.Second)
}

// CameraEvent is the projection of a camera_event message (global 161).
type CameraEvent struct {
	Timestamp   uint32
	TimestampMS uint16
	EventType   uint8
	UUID        string
	Orientation uint8
	Index       int
}

// Relative returns the event time as an offset from the stream's time base.
func (e CameraEvent) Relative() time.Duration {
	return time.Duration(e.Timestamp)*time.Second + time.Duration(e.TimestampMS)*time.Millisecond
}

func cameraEventFromMessage(m DataMessage) (CameraEvent, bool) {
	e := CameraEvent{Index: m.Index, EventType: 0xFF}
	for _, f := range m.Fields {
		switch f.Number {
		case 253:
			if v, ok := f.Value.Uint32(); ok {
				e.Timestamp = v
			}
		case 0:
			if v, ok := f.Value.Uint16(); ok && !f.Value.Invalid() {
				e.TimestampMS = v
			}
		case 1:
			if v, ok := f.Value.Uint8(); ok {
				e.EventType = v
			}
		case 2:
			if s, ok := f.Value.Str(); ok {
				e.UUID = s
			}
		case 3:
			if v, ok := f.Value.Uint8(); ok {
				e.Orientation = v
			}
		}
	}
	return e, e.EventType != 0xFF && e.UUID != ""
}

// GpsMetadata is the projection of a gps_metadata message (global 160), raw
// wire values. Conversion methods apply the profile scaling.
type GpsMetadata struct {
	Timestamp    uint32
	TimestampMS  uint16
	Latitude     int32 // semicircles
	Longitude    int32 // semicircles
	Altitude     uint32
	Speed        uint32
	Heading      uint16
	UTCTimestamp uint32
	Velocity     [3]int16
	Index        int
}

func (g GpsMetadata) LatitudeDegrees() float64  { return float64(g.Latitude) * semicircleDegrees }
func (g GpsMetadata) LongitudeDegrees() float64 { return float64(g.Longitude) * semicircleDegrees }

// AltitudeMeters removes the 500 m offset encoded at 1/5 m resolution.
func (g GpsMetadata) AltitudeMeters() float64 { return float64(g.Altitude)/5.0 - 500.0 }

// Speed2D is ground speed in m/s.
func (g GpsMetadata) Speed2D() float64 { return float64(g.Speed) / 1000.0 }

// Speed3D is the magnitude of the velocity vector in m/s.
func (g GpsMetadata) Speed3D() float64 {
	x := float64(g.Velocity[0])
	y := float64(g.Velocity[1])
	z := float64(g.Velocity[2])
	return math.Sqrt(x*x+y*y+z*z) / 100.0
}

func (g GpsMetadata) HeadingDegrees() float64 { return float64(g.Heading) / 100.0 }

// Relative returns the sample time as an offset from the stream's time base.
func (g GpsMetadata) Relative() time.Duration {
	return time.Duration(g.Timestamp)*time.Second + time.Duration(g.TimestampMS)*time.Millisecond
}

func gpsMetadataFromMessage(m DataMessage) (GpsMetadata, bool) {
	g := GpsMetadata{Index: m.Index}
	seenPos := false
	for _, f := range m.Fields {
		switch f.Number {
		case 253:
			if v, ok := f.Value.Uint32(); ok {
				g.Timestamp = v
			}
		case 0:
			if v, ok := f.Value.Uint16(); ok && !f.Value.Invalid() {
				g.TimestampMS = v
			}
		case 1:
			if v, ok := f.Value.Int32(); ok && !f.Value.Invalid() {
				g.Latitude = v
				seenPos = true
			}
		case 2:
			if v, ok := f.Value.Int32(); ok && !f.Value.Invalid() {
				g.Longitude = v
			}
		case 3:
			if v, ok := f.Value.Uint32(); ok && !f.Value.Invalid() {
				g.Altitude = v
			}
		case 4:
			if v, ok := f.Value.Uint32(); ok && !f.Value.Invalid() {
				g.Speed = v
			}
		case 5:
			if v, ok := f.Value.Uint16(); ok && !f.Value.Invalid() {
				g.Heading = v
			}
		case 6:
			if v, ok := f.Value.Uint32(); ok && !f.Value.Invalid() {
				g.UTCTimestamp = v
			}
		case 7:
			if vs, ok := f.Value.Int16s(); ok && len(vs) >= 3 {
				copy(g.Velocity[:], vs[:3])
			}
		}
	}
	return g, seenPos
}

// TimestampCorrelation (global 162) links the UTC clock to the system clock
// the other messages are stamped with.
type TimestampCorrelation struct {
	Timestamp         uint32 // UTC
	TimestampMS       uint16
	SystemTimestamp   uint32
	SystemTimestampMS uint16
}

func timestampCorrelationFromMessage(m DataMessage) (TimestampCorrelation, bool) {
	tc := TimestampCorrelation{}
	seen := false
	for _, f := range m.Fields {
		switch f.Number {
		case 253:
			if v, ok := f.Value.Uint32(); ok {
				tc.Timestamp = v
				seen = true
			}
		case 4:
			if v, ok := f.Value.Uint16(); ok && !f.Value.Invalid() {
				tc.TimestampMS = v
			}
		case 1:
			if v, ok := f.Value.Uint32(); ok && !f.Value.Invalid() {
				tc.SystemTimestamp = v
			}
		case 5:
			if v, ok := f.Value.Uint16(); ok && !f.Value.Invalid() {
				tc.SystemTimestampMS = v
			}
		}
	}
	return tc, seen
}

// SensorKind selects one of the inertial/pressure sensor streams.
type SensorKind int

const (
	Gyroscope SensorKind = iota
	Accelerometer
	Magnetometer
	Barometer
)

func (k SensorKind) String() string {
	switch k {
	case Gyroscope:
		return "gyroscope"
	case Accelerometer:
		return "accelerometer"
	case Magnetometer:
		return "magnetometer"
	case Barometer:
		return "barometer"
	}
	return "unknown"
}

// Global returns the data message number carrying this sensor's samples.
func (k SensorKind) Global() uint16 {
	switch k {
	case Gyroscope:
		return GlobalGyroscopeData
	case Accelerometer:
		return GlobalAccelerometerData
	case Magnetometer:
		return GlobalMagnetometerData
	case Barometer:
		return GlobalBarometerData
	}
	return 0
}

// sensor_type values used by the calibration messages.
func (k SensorKind) calibrationType() uint8 {
	switch k {
	case Accelerometer:
		return 0
	case Gyroscope:
		return 1
	case Magnetometer:
		return 2
	case Barometer:
		return 3
	}
	return 0xFF
}

// ThreeDCalibration is the projection of three_d_sensor_calibration
// (global 167). The orientation matrix is row-major, scaled by 65535.
type ThreeDCalibration struct {
	SensorType        uint8
	CalFactor         uint32
	CalDivisor        uint32
	LevelShift        uint32
	OffsetCal         [3]int32
	OrientationMatrix [9]int32
	Index             int
}

func threeDCalibrationFromMessage(m DataMessage) (ThreeDCalibration, bool) {
	c := ThreeDCalibration{SensorType: 0xFF, CalDivisor: 1, Index: m.Index}
	for _, f := range m.Fields {
		switch f.Number {
		case 0:
			if v, ok := f.Value.Uint8(); ok {
				c.SensorType = v
			}
		case 1:
			if v, ok := f.Value.Uint32(); ok && !f.Value.Invalid() {
				c.CalFactor = v
			}
		case 2:
			if v, ok := f.Value.Uint32(); ok && !f.Value.Invalid() && v != 0 {
				c.CalDivisor = v
			}
		case 3:
			if v, ok := f.Value.Uint32(); ok && !f.Value.Invalid() {
				c.LevelShift = v
			}
		case 4:
			if vs, ok := f.Value.Int32s(); ok && len(vs) >= 3 {
				copy(c.OffsetCal[:], vs[:3])
			}
		case 5:
			if vs, ok := f.Value.Int32s(); ok && len(vs) >= 9 {
				copy(c.OrientationMatrix[:], vs[:9])
			}
		}
	}
	return c, c.SensorType != 0xFF
}

// Apply maps raw samples through the calibration: subtract level shift and
// per-axis offset, rotate through the orientation matrix (values/65535), and
// scale by cal_factor/cal_divisor.
func (c ThreeDCalibration) Apply(d *SensorData) {
	gain := float64(c.CalFactor) / float64(c.CalDivisor)
	var m [9]float64
	for i, v := range c.OrientationMatrix {
		m[i] = float64(v) / 65535.0
	}
	shift := float64(c.LevelShift)

	n := len(d.X)
	if len(d.Y) < n {
		n = len(d.Y)
	}
	if len(d.Z) < n {
		n = len(d.Z)
	}
	d.Calibrated = make([][3]float64, n)
	for i := 0; i < n; i++ {
		x := float64(d.X[i]) - shift - float64(c.OffsetCal[0])
		y := float64(d.Y[i]) - shift - float64(c.OffsetCal[1])
		z := float64(d.Z[i]) - shift - float64(c.OffsetCal[2])
		d.Calibrated[i] = [3]float64{
			gain * (m[0]*x + m[1]*y + m[2]*z),
			gain * (m[3]*x + m[4]*y + m[5]*z),
			gain * (m[6]*x + m[7]*y + m[8]*z),
		}
	}
}

// OneDCalibration is the projection of one_d_sensor_calibration (global 210),
// used by the barometer.
type OneDCalibration struct {
	SensorType uint8
	CalFactor  uint32
	CalDivisor uint32
	LevelShift uint32
	OffsetCal  int32
	Index      int
}

func oneDCalibrationFromMessage(m DataMessage) (OneDCalibration, bool) {
	c := OneDCalibration{SensorType: 0xFF, CalDivisor: 1, Index: m.Index}
	for _, f := range m.Fields {
		switch f.Number {
		case 0:
			if v, ok := f.Value.Uint8(); ok {
				c.SensorType = v
			}
		case 1:
			if v, ok := f.Value.Uint32(); ok && !f.Value.Invalid() {
				c.CalFactor = v
			}
		case 2:
			if v, ok := f.Value.Uint32(); ok && !f.Value.Invalid() && v != 0 {
				c.CalDivisor = v
			}
		case 3:
			if v, ok := f.Value.Uint32(); ok && !f.Value.Invalid() {
				c.LevelShift = v
			}
		case 4:
			if v, ok := f.Value.Int32(); ok && !f.Value.Invalid() {
				c.OffsetCal = v
			}
		}
	}
	return c, c.SensorType != 0xFF
}

// Apply scales raw barometer samples to calibrated pressure values.
func (c OneDCalibration) Apply(d *BarometerData) {
	gain := float64(c.CalFactor) / float64(c.CalDivisor)
	d.Calibrated = make([]float64, len(d.Pressure))
	for i, raw := range d.Pressure {
		d.Calibrated[i] = gain * (float64(raw) - float64(c.LevelShift) - float64(c.OffsetCal))
	}
}

// SensorData is one burst of gyroscope/accelerometer/magnetometer samples
// (globals 164/165/208). X/Y/Z are raw ADC values; Calibrated is filled when
// a calibration message preceded the burst in the stream.
type SensorData struct {
	Kind             SensorKind
	Timestamp        uint32
	TimestampMS      uint16
	SampleTimeOffset []uint16
	X                []uint16
	Y                []uint16
	Z                []uint16
	Calibrated       [][3]float64
	Index            int
}

func sensorDataFromMessage(m DataMessage, kind SensorKind) (SensorData, bool) {
	d := SensorData{Kind: kind, Index: m.Index}
	for _, f := range m.Fields {
		switch f.Number {
		case 253:
			if v, ok := f.Value.Uint32(); ok {
				d.Timestamp = v
			}
		case 0:
			if v, ok := f.Value.Uint16(); ok && !f.Value.Invalid() {
				d.TimestampMS = v
			}
		case 1:
			if vs, ok := f.Value.Uint16s(); ok {
				d.SampleTimeOffset = vs
			}
		case 2:
			if vs, ok := f.Value.Uint16s(); ok {
				d.X = vs
			}
		case 3:
			if vs, ok := f.Value.Uint16s(); ok {
				d.Y = vs
			}
		case 4:
			if vs, ok := f.Value.Uint16s(); ok {
				d.Z = vs
			}
		}
	}
	return d, len(d.X) > 0
}

// BarometerData is one burst of pressure samples (global 209).
type BarometerData struct {
	Timestamp        uint32
	TimestampMS      uint16
	SampleTimeOffset []uint16
	Pressure         []uint32
	Calibrated       []float64
	Index            int
}

func barometerDataFromMessage(m DataMessage) (BarometerData, bool) {
	d := BarometerData{Index: m.Index}
	for _, f := range m.Fields {
		switch f.Number {
		case 253:
			if v, ok := f.Value.Uint32(); ok {
				d.Timestamp = v
			}
		case 0:
			if v, ok := f.Value.Uint16(); ok && !f.Value.Invalid() {
				d.TimestampMS = v
			}
		case 1:
			if vs, ok := f.Value.Uint16s(); ok {
				d.SampleTimeOffset = vs
			}
		case 2:
			if vs, ok := f.Value.Uint32s(); ok {
				d.Pressure = vs
			}
		}
	}
	return d, len(d.Pressure) > 0
}

