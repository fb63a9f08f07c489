package fitdec

import (
	"encoding/binary"
	"fmt"
)

// DefinitionMessage is the active layout for one local message number:
// endianness, global message number, and the ordered ordinary and developer
// field tuples. It stays active until the local number is redefined.
type DefinitionMessage struct {
	LocalNum  uint8
	Global    uint16
	Arch      binary.ByteOrder
	Fields    []FieldDefinition
	DevFields []FieldDefinition
}

// dataSize is the exact byte total one data record for this definition
// consumes after its record header.
func (d *DefinitionMessage) dataSize() int {
	n := 0
	for _, f := range d.Fields {
		n += int(f.Size)
	}
	for _, f := range d.DevFields {
		n += int(f.Size)
	}
	return n
}

// parseDefinition reads a definition record body: reserved byte, architecture
// byte, then the global message number in *this message's own* architecture,
// the ordinary field tuples, and, when the record header carried the
// developer-data flag, the developer tuples resolved against the registry
// built so far.
func (dec *Decoder) parseDefinition(headerByte uint8) (*DefinitionMessage, error) {
	read := func(n int) ([]byte, error) {
		if dec.pos+n > len(dec.data) {
			return nil, fmt.Errorf("%w: definition record at byte %d", ErrTruncated, dec.pos)
		}
		out := dec.data[dec.pos : dec.pos+n]
		dec.pos += n
		return out, nil
	}

	if _, err := read(1); err != nil { // reserved
		return nil, err
	}

	archRaw, err := read(1)
	if err != nil {
		return nil, err
	}
	var arch binary.ByteOrder
	switch archRaw[0] {
	case 0:
		arch = binary.LittleEndian
	case 1:
		arch = binary.BigEndian
	default:
		return nil, fmt.Errorf("invalid architecture byte %d at offset %d", archRaw[0], dec.pos-1)
	}

	globalRaw, err := read(2)
	if err != nil {
		return nil, err
	}

	countRaw, err := read(1)
	if err != nil {
		return nil, err
	}
	fields := make([]FieldDefinition, 0, countRaw[0])
	for i := 0; i < int(countRaw[0]); i++ {
		tuple, err := read(3)
		if err != nil {
			return nil, err
		}
		fd, err := parseFieldDef(tuple)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fd)
	}

	var devFields []FieldDefinition
	if headerByte&devDataMask != 0 {
		devCountRaw, err := read(1)
		if err != nil {
			return nil, err
		}
		devFields = make([]FieldDefinition, 0, devCountRaw[0])
		for i := 0; i < int(devCountRaw[0]); i++ {
			tuple, err := read(3)
			if err != nil {
				return nil, err
			}
			fd, err := parseDevFieldDef(tuple, dec.registry)
			if err != nil {
				return nil, err
			}
			devFields = append(devFields, fd)
		}
	}

	return &DefinitionMessage{
		LocalNum:  headerByte & localMesgNumMask,
		Global:    arch.Uint16(globalRaw),
		Arch:      arch,
		Fields:    fields,
		DevFields: devFields,
	}, nil
}
