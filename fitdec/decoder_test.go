package fitdec

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/tormoder/fit/dyncrc16"
)

// buildFIT wraps raw records in a 12-byte header and a trailing checksum.
func buildFIT(t *testing.T, records ...[]byte) []byte {
	t.Helper()

	var body []byte
	for _, r := range records {
		body = append(body, r...)
	}

	header := make([]byte, headerSizeNoCRC)
	header[0] = headerSizeNoCRC
	header[1] = 0x20
	binary.LittleEndian.PutUint16(header[2:4], 2195)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(body)))
	copy(header[8:12], ".FIT")

	out := append(header, body...)
	crc := dyncrc16.Checksum(out)
	return append(out, byte(crc), byte(crc>>8))
}

// defRecord builds a definition record. Each field tuple is
// (number, size, basetype byte); devFields may be nil.
func defRecord(local, arch uint8, global uint16, fields [][3]byte, devFields [][3]byte) []byte {
	headerByte := mesgDefinitionMask | local
	if devFields != nil {
		headerByte |= devDataMask
	}
	out := []byte{headerByte, 0, arch}

	globalBytes := make([]byte, 2)
	if arch == 1 {
		binary.BigEndian.PutUint16(globalBytes, global)
	} else {
		binary.LittleEndian.PutUint16(globalBytes, global)
	}
	out = append(out, globalBytes...)

	out = append(out, uint8(len(fields)))
	for _, f := range fields {
		out = append(out, f[0], f[1], f[2])
	}
	if devFields != nil {
		out = append(out, uint8(len(devFields)))
		for _, f := range devFields {
			out = append(out, f[0], f[1], f[2])
		}
	}
	return out
}

func dataRecord(local uint8, payload ...byte) []byte {
	return append([]byte{local}, payload...)
}

func le32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

func le16(v uint16) []byte {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, v)
	return out
}

func TestDecodeSingleCameraEventField(t *testing.T) {
	data := buildFIT(t,
		defRecord(0, 0, GlobalCameraEvent, [][3]byte{{2, 4, 0x8C}}, nil), // uint32z
		dataRecord(0, le32(42)...),
	)

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(f.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(f.Records))
	}
	msg := f.Records[0]
	if msg.Global != GlobalCameraEvent {
		t.Fatalf("global = %d, want %d", msg.Global, GlobalCameraEvent)
	}
	v, ok := msg.Field(2)
	if !ok {
		t.Fatal("field 2 missing")
	}
	got, ok := v.Uint32()
	if !ok || got != 42 {
		t.Fatalf("field 2 = %v (%v), want 42", got, ok)
	}
}

func TestDecodeConsumesExactlyDeclaredBytes(t *testing.T) {
	// Three data records after one definition; the loop must land exactly on
	// the declared data-section end, no byte left over.
	data := buildFIT(t,
		defRecord(3, 0, 160, [][3]byte{{253, 4, 0x86}, {1, 4, 0x85}}, nil),
		dataRecord(3, append(le32(10), le32(100)...)...),
		dataRecord(3, append(le32(11), le32(101)...)...),
		dataRecord(3, append(le32(12), le32(102)...)...),
	)

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(f.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(f.Records))
	}
	for i, msg := range f.Records {
		if msg.Index != i {
			t.Fatalf("record %d has index %d", i, msg.Index)
		}
	}
}

func TestRedefinitionDiscardsPriorLayout(t *testing.T) {
	data := buildFIT(t,
		defRecord(0, 0, 161, [][3]byte{{2, 4, 0x86}}, nil),
		dataRecord(0, le32(7)...),
		defRecord(0, 0, 160, [][3]byte{{5, 2, 0x84}}, nil),
		dataRecord(0, le16(9)...),
	)

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(f.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(f.Records))
	}
	if f.Records[0].Global != 161 || f.Records[1].Global != 160 {
		t.Fatalf("globals = %d,%d want 161,160", f.Records[0].Global, f.Records[1].Global)
	}
	if v, ok := f.Records[1].Field(5); !ok {
		t.Fatal("field 5 missing after redefinition")
	} else if got, _ := v.Uint16(); got != 9 {
		t.Fatalf("field 5 = %d, want 9", got)
	}
}

func TestBigEndianArchitecture(t *testing.T) {
	body := defRecord(0, 1, 160, [][3]byte{{5, 2, 0x84}}, nil)
	data := buildFIT(t, body, dataRecord(0, 0x12, 0x34))

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	v, _ := f.Records[0].Field(5)
	if got, _ := v.Uint16(); got != 0x1234 {
		t.Fatalf("big-endian uint16 = 0x%04X, want 0x1234", got)
	}
}

func TestUnknownFieldDescriptionIsFatal(t *testing.T) {
	// Developer definition before any field_description message.
	data := buildFIT(t,
		defRecord(0, 0, 20, [][3]byte{{253, 4, 0x86}}, [][3]byte{{5, 2, 3}}),
		dataRecord(0, append(le32(1), le16(2)...)...),
	)

	_, err := Decode(data)
	if err == nil {
		t.Fatal("expected decode failure")
	}
	var ufd *UnknownFieldDescriptionError
	if !errors.As(err, &ufd) {
		t.Fatalf("expected UnknownFieldDescriptionError, got %v", err)
	}
	if ufd.FieldNumber != 5 || ufd.DeveloperDataIndex != 3 {
		t.Fatalf("error carries field=%d idx=%d, want 5/3", ufd.FieldNumber, ufd.DeveloperDataIndex)
	}
}

func TestDeveloperFieldResolvesAgainstEarlierDescription(t *testing.T) {
	// field_description: developer_data_index=0, field 5, uint16, named
	// "heart_rate" with units "bpm".
	descDef := defRecord(0, 0, GlobalFieldDescription, [][3]byte{
		{0, 1, 0x02},  // developer_data_index
		{1, 1, 0x02},  // field_definition_number
		{2, 1, 0x02},  // fit_base_type_id
		{3, 11, 0x07}, // field_name
		{8, 4, 0x07},  // units
	}, nil)
	descPayload := []byte{0, 5, 0x84}
	descPayload = append(descPayload, []byte("heart_rate\x00")...)
	descPayload = append(descPayload, []byte("bpm\x00")...)

	dataDef := defRecord(1, 0, 20, [][3]byte{{253, 4, 0x86}}, [][3]byte{{5, 2, 0}})

	data := buildFIT(t,
		descDef,
		dataRecord(0, descPayload...),
		dataDef,
		dataRecord(1, append(le32(1000), le16(72)...)...),
	)

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(f.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(f.Records))
	}
	df, ok := f.Records[1].DevField("heart_rate")
	if !ok {
		t.Fatal("developer field heart_rate missing")
	}
	if df.Units != "bpm" {
		t.Fatalf("units = %q, want bpm", df.Units)
	}
	if got, _ := df.Value.Uint16(); got != 72 {
		t.Fatalf("heart_rate = %d, want 72", got)
	}
}

func TestCompressedTimestampHeader(t *testing.T) {
	// Bit 7 set: local number in bits 5-6, payload decodes against the
	// active definition.
	data := buildFIT(t,
		defRecord(1, 0, 160, [][3]byte{{5, 2, 0x84}}, nil),
		append([]byte{0x80 | 1<<5 | 0x05}, le16(77)...),
	)

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	v, _ := f.Records[0].Field(5)
	if got, _ := v.Uint16(); got != 77 {
		t.Fatalf("compressed record field = %d, want 77", got)
	}
}

func TestInvalidHeaderRejected(t *testing.T) {
	good := buildFIT(t, defRecord(0, 0, 161, [][3]byte{{2, 4, 0x86}}, nil), dataRecord(0, le32(1)...))

	bad := append([]byte(nil), good...)
	copy(bad[8:12], "JUNK")
	if _, err := Decode(bad); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("bad signature: want ErrInvalidHeader, got %v", err)
	}

	bad = append([]byte(nil), good...)
	bad[0] = 13
	if _, err := Decode(bad); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("bad header size: want ErrInvalidHeader, got %v", err)
	}
}

func TestTruncatedFileRejected(t *testing.T) {
	good := buildFIT(t, defRecord(0, 0, 161, [][3]byte{{2, 4, 0x86}}, nil), dataRecord(0, le32(1)...))
	if _, err := Decode(good[:len(good)-6]); !errors.Is(err, ErrTruncated) {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
}

func TestTruncatedDataRecordIsFatal(t *testing.T) {
	// Definition declares 4 bytes but header claims the section ends after 2.
	body := defRecord(0, 0, 161, [][3]byte{{2, 4, 0x86}}, nil)
	body = append(body, dataRecord(0, 0x01, 0x02)...)

	header := make([]byte, headerSizeNoCRC)
	header[0] = headerSizeNoCRC
	header[1] = 0x20
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(body)))
	copy(header[8:12], ".FIT")
	data := append(header, body...)
	data = append(data, 0, 0)

	if _, err := Decode(data); !errors.Is(err, ErrTruncated) {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
}

func TestHeaderCRCValidation(t *testing.T) {
	body := defRecord(0, 0, 161, [][3]byte{{2, 4, 0x86}}, nil)
	body = append(body, dataRecord(0, le32(3)...)...)

	header := make([]byte, headerSizeCRC)
	header[0] = headerSizeCRC
	header[1] = 0x20
	binary.LittleEndian.PutUint16(header[2:4], 2195)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(body)))
	copy(header[8:12], ".FIT")
	binary.LittleEndian.PutUint16(header[12:14], dyncrc16.Checksum(header[:12]))

	data := append(append([]byte(nil), header...), body...)
	crc := dyncrc16.Checksum(data)
	data = append(data, byte(crc), byte(crc>>8))

	if _, err := Decode(data); err != nil {
		t.Fatalf("valid header crc rejected: %v", err)
	}

	bad := append([]byte(nil), data...)
	bad[12] ^= 0xFF
	if _, err := Decode(bad); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("corrupt header crc: want ErrInvalidHeader, got %v", err)
	}
}

func TestStringDecodePermissive(t *testing.T) {
	raw := []byte{'V', 'I', 0xC3, 'R', 'B', 0x00, 'x', 'x'}
	v, err := decodeValue(raw, BaseString, binary.LittleEndian)
	if err != nil {
		t.Fatalf("decodeValue error: %v", err)
	}
	s, ok := v.Str()
	if !ok || s != "VIRB" {
		t.Fatalf("string = %q, want VIRB", s)
	}
}

func TestArrayFieldPreservesOrder(t *testing.T) {
	raw := append(append(le16(1), le16(2)...), le16(3)...)
	v, err := decodeValue(raw, BaseUint16, binary.LittleEndian)
	if err != nil {
		t.Fatalf("decodeValue error: %v", err)
	}
	vs, ok := v.Uint16s()
	if !ok || len(vs) != 3 || vs[0] != 1 || vs[1] != 2 || vs[2] != 3 {
		t.Fatalf("array = %v, want [1 2 3]", vs)
	}
}

func TestInvalidSentinelDetection(t *testing.T) {
	v, err := decodeValue([]byte{0xFF, 0xFF}, BaseUint16, binary.LittleEndian)
	if err != nil {
		t.Fatalf("decodeValue error: %v", err)
	}
	if !v.Invalid() {
		t.Fatal("0xFFFF uint16 should be invalid")
	}
	v, err = decodeValue([]byte{0x00, 0x00}, BaseUint16z, binary.LittleEndian)
	if err != nil {
		t.Fatalf("decodeValue error: %v", err)
	}
	if !v.Invalid() {
		t.Fatal("zero uint16z should be invalid")
	}
}
