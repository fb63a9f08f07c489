package fitdec

import "fmt"

// DataField pairs a decoded Value with its originating definition tuple.
// Name/Units/Scale/Offset are populated for developer fields only.
type DataField struct {
	Number uint8
	Name   string
	Units  string
	Scale  float64
	Offset float64
	Value  Value
}

// Scaled applies value = raw/scale − offset when a scale is known, else passes
// the raw value through.
func (f DataField) Scaled() (float64, bool) {
	raw, ok := f.Value.Float()
	if !ok {
		return 0, false
	}
	if f.Scale != 0 {
		return raw/f.Scale - f.Offset, true
	}
	return raw, true
}

// DataMessage is one decoded data record: global message number, ordinary and
// developer values in declaration order, and the monotonically increasing
// file-order index assigned by the stream engine. Immutable once produced.
type DataMessage struct {
	Global    uint16
	Index     int
	Fields    []DataField
	DevFields []DataField
}

// Field returns the ordinary field with the given number.
func (m DataMessage) Field(number uint8) (Value, bool) {
	for _, f := range m.Fields {
		if f.Number == number {
			return f.Value, true
		}
	}
	return Value{}, false
}

// DevField returns the developer field with the given resolved name.
func (m DataMessage) DevField(name string) (DataField, bool) {
	for _, f := range m.DevFields {
		if f.Name == name {
			return f, true
		}
	}
	return DataField{}, false
}

// parseData decodes one data record against the active definition, consuming
// exactly the definition's declared byte total. A short read is fatal for the
// file: record boundaries cannot be re-established afterwards.
func (dec *Decoder) parseData(def *DefinitionMessage) (DataMessage, error) {
	need := def.dataSize()
	if dec.pos+need > len(dec.data) {
		return DataMessage{}, fmt.Errorf("%w: data record for global %d needs %d bytes at offset %d",
			ErrTruncated, def.Global, need, dec.pos)
	}

	msg := DataMessage{
		Global: def.Global,
		Fields: make([]DataField, 0, len(def.Fields)),
	}

	for _, fd := range def.Fields {
		raw := dec.data[dec.pos : dec.pos+int(fd.Size)]
		dec.pos += int(fd.Size)
		v, err := decodeValue(raw, fd.BaseType, def.Arch)
		if err != nil {
			return DataMessage{}, fmt.Errorf("global %d field %d: %w", def.Global, fd.Number, err)
		}
		msg.Fields = append(msg.Fields, DataField{Number: fd.Number, Value: v})
	}

	if len(def.DevFields) > 0 {
		msg.DevFields = make([]DataField, 0, len(def.DevFields))
		for _, fd := range def.DevFields {
			raw := dec.data[dec.pos : dec.pos+int(fd.Size)]
			dec.pos += int(fd.Size)
			v, err := decodeValue(raw, fd.BaseType, def.Arch)
			if err != nil {
				return DataMessage{}, fmt.Errorf("global %d developer field %d: %w", def.Global, fd.Number, err)
			}
			msg.DevFields = append(msg.DevFields, DataField{
				Number: fd.Number,
				Name:   fd.Name,
				Units:  fd.Units,
				Scale:  fd.Scale,
				Offset: fd.Offset,
				Value:  v,
			})
		}
	}

	return msg, nil
}
