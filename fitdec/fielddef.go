package fitdec

import "fmt"

// FieldDefinition is one (field number, byte length, basetype) layout tuple of
// a definition message. Developer fields additionally carry the resolved
// description: name, units, scale, offset, and the developer data index they
// were declared under.
type FieldDefinition struct {
	Number   uint8
	Size     uint8
	BaseType BaseType

	Developer          bool
	DeveloperDataIndex uint8
	Name               string
	Units              string
	Scale              float64
	Offset             float64
}

// parseFieldDef validates one ordinary 3-byte tuple. The declared length must
// be a positive multiple of the basetype width (array fields).
func parseFieldDef(raw []byte) (FieldDefinition, error) {
	bt, err := baseTypeFromRaw(raw[2])
	if err != nil {
		return FieldDefinition{}, fmt.Errorf("field %d: %w", raw[0], err)
	}
	size := raw[1]
	if size == 0 || int(size)%bt.Size() != 0 {
		return FieldDefinition{}, fmt.Errorf("%w: field %d declares %d bytes for %s (width %d)",
			ErrTruncated, raw[0], size, bt, bt.Size())
	}
	return FieldDefinition{Number: raw[0], Size: size, BaseType: bt}, nil
}

// parseDevFieldDef resolves one developer 3-byte tuple, where the third byte
// is the developer data index rather than a basetype. The description must
// already be in the registry: later descriptions cannot name earlier records.
func parseDevFieldDef(raw []byte, reg *registry) (FieldDefinition, error) {
	fieldNum, size, devIdx := raw[0], raw[1], raw[2]
	desc, ok := reg.lookup(fieldNum, devIdx)
	if !ok {
		return FieldDefinition{}, &UnknownFieldDescriptionError{
			FieldNumber:        fieldNum,
			DeveloperDataIndex: devIdx,
		}
	}
	if size == 0 || int(size)%desc.BaseType.Size() != 0 {
		return FieldDefinition{}, fmt.Errorf("%w: developer field %d declares %d bytes for %s (width %d)",
			ErrTruncated, fieldNum, size, desc.BaseType, desc.BaseType.Size())
	}
	return FieldDefinition{
		Number:             fieldNum,
		Size:               size,
		BaseType:           desc.BaseType,
		Developer:          true,
		DeveloperDataIndex: devIdx,
		Name:               desc.Name,
		Units:              desc.Units,
		Scale:              desc.Scale,
		Offset:             desc.Offset,
	}, nil
}
