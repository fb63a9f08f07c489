package fitdec

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func mkU32(t *testing.T, v uint32) Value {
	t.Helper()
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, v)
	out, err := decodeValue(raw, BaseUint32, binary.LittleEndian)
	if err != nil {
		t.Fatalf("decodeValue: %v", err)
	}
	return out
}

func mkU16(t *testing.T, v uint16) Value {
	t.Helper()
	raw := make([]byte, 2)
	binary.LittleEndian.PutUint16(raw, v)
	out, err := decodeValue(raw, BaseUint16, binary.LittleEndian)
	if err != nil {
		t.Fatalf("decodeValue: %v", err)
	}
	return out
}

func TestGpsMetadataConversions(t *testing.T) {
	g := GpsMetadata{
		Latitude:  1 << 30, // 2^30 semicircles * 180/2^31 = 90 degrees
		Longitude: -(1 << 30),
		Altitude:  2500, // (2500/5)-500 = 0 m
		Speed:     1500, // 1.5 m/s
		Heading:   9000, // 90 degrees
		Velocity:  [3]int16{300, 400, 0},
	}
	if got := g.LatitudeDegrees(); math.Abs(got-90.0) > 1e-9 {
		t.Fatalf("latitude = %v, want 90", got)
	}
	if got := g.LongitudeDegrees(); math.Abs(got+90.0) > 1e-9 {
		t.Fatalf("longitude = %v, want -90", got)
	}
	if got := g.AltitudeMeters(); got != 0 {
		t.Fatalf("altitude = %v, want 0", got)
	}
	if got := g.Speed2D(); got != 1.5 {
		t.Fatalf("speed2d = %v, want 1.5", got)
	}
	if got := g.HeadingDegrees(); got != 90 {
		t.Fatalf("heading = %v, want 90", got)
	}
	if got := g.Speed3D(); math.Abs(got-5.0) > 1e-9 {
		t.Fatalf("speed3d = %v, want 5", got)
	}
}

func TestT0FromTimestampCorrelation(t *testing.T) {
	f := &Fit{Records: []DataMessage{{
		Global: GlobalTimestampCorrelation,
		Fields: []DataField{
			{Number: 253, Value: mkU32(t, 1000)}, // UTC
			{Number: 4, Value: mkU16(t, 250)},
			{Number: 1, Value: mkU32(t, 400)}, // system
			{Number: 5, Value: mkU16(t, 50)},
		},
	}}}

	t0, err := f.T0(2)
	if err != nil {
		t.Fatalf("T0 error: %v", err)
	}
	want := time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC).
		Add(2 * time.Hour).
		Add(600 * time.Second).
		Add(200 * time.Millisecond)
	if !t0.Equal(want) {
		t.Fatalf("t0 = %v, want %v", t0, want)
	}
}

func TestT0MissingCorrelation(t *testing.T) {
	f := &Fit{}
	if _, err := f.T0(0); err == nil {
		t.Fatal("expected error without timestamp_correlation")
	}
}

func TestThreeDCalibrationApply(t *testing.T) {
	cal := ThreeDCalibration{
		SensorType: 0,
		CalFactor:  2,
		CalDivisor: 1,
		LevelShift: 100,
		OffsetCal:  [3]int32{10, 20, 30},
		OrientationMatrix: [9]int32{
			65535, 0, 0,
			0, 65535, 0,
			0, 0, 65535,
		},
	}
	d := SensorData{
		Kind: Accelerometer,
		X:    []uint16{110},
		Y:    []uint16{140},
		Z:    []uint16{160},
	}
	cal.Apply(&d)
	if len(d.Calibrated) != 1 {
		t.Fatalf("expected 1 calibrated sample, got %d", len(d.Calibrated))
	}
	got := d.Calibrated[0]
	want := [3]float64{0, 40, 60} // 2 * (raw - 100 - offset)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("calibrated[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSensorDataPickedUpWithCalibration(t *testing.T) {
	// Full stream: calibration for the accelerometer, then a sample burst.
	calDef := defRecord(0, 0, GlobalThreeDSensorCalibration, [][3]byte{
		{0, 1, 0x00},  // sensor_type
		{1, 4, 0x86},  // calibration_factor
		{2, 4, 0x86},  // calibration_divisor
		{3, 4, 0x86},  // level_shift
		{4, 12, 0x85}, // offset_cal[3]
		{5, 36, 0x85}, // orientation_matrix[9]
	}, nil)
	calPayload := []byte{0}
	calPayload = append(calPayload, le32(1)...) // factor
	calPayload = append(calPayload, le32(1)...) // divisor
	calPayload = append(calPayload, le32(0)...) // shift
	for i := 0; i < 3; i++ {
		calPayload = append(calPayload, le32(0)...)
	}
	identity := []int32{65535, 0, 0, 0, 65535, 0, 0, 0, 65535}
	for _, v := range identity {
		calPayload = append(calPayload, le32(uint32(v))...)
	}

	dataDef := defRecord(1, 0, GlobalAccelerometerData, [][3]byte{
		{253, 4, 0x86},
		{1, 4, 0x84}, // sample_time_offset[2]
		{2, 4, 0x84}, // x[2]
		{3, 4, 0x84}, // y[2]
		{4, 4, 0x84}, // z[2]
	}, nil)
	burst := le32(500)
	burst = append(burst, le16(0)...)
	burst = append(burst, le16(10)...)
	burst = append(burst, le16(1)...)
	burst = append(burst, le16(2)...)
	burst = append(burst, le16(3)...)
	burst = append(burst, le16(4)...)
	burst = append(burst, le16(5)...)
	burst = append(burst, le16(6)...)

	data := buildFIT(t,
		calDef,
		dataRecord(0, calPayload...),
		dataDef,
		dataRecord(1, burst...),
	)

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	samples, err := f.SensorData(Accelerometer)
	if err != nil {
		t.Fatalf("SensorData error: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 burst, got %d", len(samples))
	}
	s := samples[0]
	if len(s.X) != 2 || s.X[0] != 1 || s.X[1] != 2 {
		t.Fatalf("x samples = %v", s.X)
	}
	if len(s.Calibrated) != 2 {
		t.Fatalf("expected calibrated samples, got %d", len(s.Calibrated))
	}
	// Identity matrix, unit gain: calibrated equals raw.
	if math.Abs(s.Calibrated[0][0]-1) > 1e-9 || math.Abs(s.Calibrated[1][2]-6) > 1e-9 {
		t.Fatalf("calibrated = %v", s.Calibrated)
	}
}

func TestCameraEventProjection(t *testing.T) {
	uuid := "VIRB0001-AAAA"
	def := defRecord(0, 0, GlobalCameraEvent, [][3]byte{
		{253, 4, 0x86},
		{1, 1, 0x00},
		{2, 16, 0x07},
	}, nil)
	payload := le32(100)
	payload = append(payload, CameraEventVideoStart)
	uuidBytes := make([]byte, 16)
	copy(uuidBytes, uuid)
	payload = append(payload, uuidBytes...)

	f, err := Decode(buildFIT(t, def, dataRecord(0, payload...)))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	events := f.CameraEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.UUID != uuid || e.EventType != CameraEventVideoStart || e.Timestamp != 100 {
		t.Fatalf("event = %+v", e)
	}
	if f.UUIDs()[0] != uuid {
		t.Fatalf("uuids = %v", f.UUIDs())
	}
}
