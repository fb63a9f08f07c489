package fitdec

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/tormoder/fit/dyncrc16"
)

const (
	compressedHeaderMask       = 0x80
	compressedLocalMesgNumMask = 0x60
	mesgDefinitionMask         = 0x40
	devDataMask                = 0x20
	localMesgNumMask           = 0x0F

	headerSizeNoCRC = 12
	headerSizeCRC   = 14
)

// FileHeader is the fixed-size FIT file header.
type FileHeader struct {
	Size            uint8
	ProtocolVersion uint8
	ProfileVersion  uint16
	DataSize        uint32
	DataType        string
	CRC             uint16
}

// Decoder drives one decode pass over a single FIT byte stream. The byte
// cursor, the active definition table, and the developer registry are owned
// exclusively by the pass; independent files decode safely in parallel with
// one Decoder each.
type Decoder struct {
	data        []byte
	pos         int
	definitions map[uint8]*DefinitionMessage
	registry    *registry
}

// DecodeFile reads and decodes the FIT file at path.
func DecodeFile(path string) (*Fit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fit file: %w", err)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Decode decodes a complete FIT byte stream: header, record stream, and the
// 2-byte trailing checksum (read but not validated). Any decode failure
// aborts the whole pass: a corrupt file yields exactly one terminal error,
// never partial output.
func Decode(data []byte) (*Fit, error) {
	if len(data) < headerSizeNoCRC+2 {
		return nil, fmt.Errorf("%w: file is %d bytes", ErrInvalidHeader, len(data))
	}

	header, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	dataStart := int(header.Size)
	required := dataStart + int(header.DataSize) + 2
	if len(data) < required {
		return nil, fmt.Errorf("%w: have %d bytes, header declares %d", ErrTruncated, len(data), required)
	}

	dec := &Decoder{
		data:        data[dataStart : dataStart+int(header.DataSize)],
		definitions: make(map[uint8]*DefinitionMessage),
		registry:    newRegistry(),
	}
	records, err := dec.parseRecords()
	if err != nil {
		return nil, err
	}

	return &Fit{
		Header:  header,
		Records: records,
		CRC:     binary.LittleEndian.Uint16(data[dataStart+int(header.DataSize):]),
	}, nil
}

// parseHeader validates the fixed header: declared size 12 or 14, the ".FIT"
// signature, and, when a nonzero header checksum is stored, its CRC-16.
func parseHeader(data []byte) (FileHeader, error) {
	size := data[0]
	if size != headerSizeNoCRC && size != headerSizeCRC {
		return FileHeader{}, fmt.Errorf("%w: header size %d", ErrInvalidHeader, size)
	}
	if len(data) < int(size) {
		return FileHeader{}, fmt.Errorf("%w: header needs %d bytes", ErrTruncated, size)
	}

	h := FileHeader{
		Size:            size,
		ProtocolVersion: data[1],
		ProfileVersion:  binary.LittleEndian.Uint16(data[2:4]),
		DataSize:        binary.LittleEndian.Uint32(data[4:8]),
		DataType:        string(data[8:12]),
	}
	if h.DataType != ".FIT" {
		return FileHeader{}, fmt.Errorf("%w: data type %q", ErrInvalidHeader, h.DataType)
	}

	if size == headerSizeCRC {
		h.CRC = binary.LittleEndian.Uint16(data[12:14])
		if h.CRC != 0 {
			if computed := dyncrc16.Checksum(data[:12]); computed != h.CRC {
				return FileHeader{}, fmt.Errorf("%w: header crc stored 0x%04X computed 0x%04X",
					ErrInvalidHeader, h.CRC, computed)
			}
		}
	}

	return h, nil
}

// parseRecords loops over 1-byte record headers, dispatching definition and
// data records, until the header-declared data section is consumed.
// Compressed-timestamp headers (bit 7) carry their local number in bits 5-6
// and decode as ordinary data records.
func (dec *Decoder) parseRecords() ([]DataMessage, error) {
	var records []DataMessage
	index := 0

	for dec.pos < len(dec.data) {
		headerByte := dec.data[dec.pos]
		dec.pos++

		switch {
		case headerByte&compressedHeaderMask != 0:
			local := (headerByte & compressedLocalMesgNumMask) >> 5
			def, ok := dec.definitions[local]
			if !ok {
				return nil, fmt.Errorf("no definition for compressed data record local=%d at offset %d", local, dec.pos-1)
			}
			msg, err := dec.parseData(def)
			if err != nil {
				return nil, err
			}
			msg.Index = index
			index++
			dec.observe(msg)
			records = append(records, msg)

		case headerByte&mesgDefinitionMask != 0:
			def, err := dec.parseDefinition(headerByte)
			if err != nil {
				return nil, err
			}
			// Redefinition discards the previous layout outright.
			dec.definitions[def.LocalNum] = def

		default:
			local := headerByte & localMesgNumMask
			def, ok := dec.definitions[local]
			if !ok {
				return nil, fmt.Errorf("no definition for data record local=%d at offset %d", local, dec.pos-1)
			}
			msg, err := dec.parseData(def)
			if err != nil {
				return nil, err
			}
			msg.Index = index
			index++
			dec.observe(msg)
			records = append(records, msg)
		}
	}

	return records, nil
}

// observe feeds field_description messages into the developer registry as the
// scan progresses, keeping the seen-before-use ordering.
func (dec *Decoder) observe(msg DataMessage) {
	if msg.Global != GlobalFieldDescription {
		return
	}
	if desc, ok := fieldDescriptionFromMessage(msg); ok {
		dec.registry.add(desc)
	}
}
