package fitdec

import "fmt"

// BaseType identifies one of the FIT primitive value kinds. The constants use
// the canonical on-wire byte, where bit 7 marks multi-byte types and the low
// five bits carry the type number.
type BaseType uint8

const (
	BaseEnum    BaseType = 0x00
	BaseSint8   BaseType = 0x01
	BaseUint8   BaseType = 0x02
	BaseSint16  BaseType = 0x83
	BaseUint16  BaseType = 0x84
	BaseSint32  BaseType = 0x85
	BaseUint32  BaseType = 0x86
	BaseString  BaseType = 0x07
	BaseFloat32 BaseType = 0x88
	BaseFloat64 BaseType = 0x89
	BaseUint8z  BaseType = 0x0A
	BaseUint16z BaseType = 0x8B
	BaseUint32z BaseType = 0x8C
	BaseByte    BaseType = 0x0D
	BaseSint64  BaseType = 0x8E
	BaseUint64  BaseType = 0x8F
	BaseUint64z BaseType = 0x90
)

type baseSpec struct {
	name          string
	size          int
	signed        bool
	floating      bool
	zeroIsInvalid bool
}

var baseSpecs = map[BaseType]baseSpec{
	BaseEnum:    {name: "enum", size: 1},
	BaseSint8:   {name: "sint8", size: 1, signed: true},
	BaseUint8:   {name: "uint8", size: 1},
	BaseSint16:  {name: "sint16", size: 2, signed: true},
	BaseUint16:  {name: "uint16", size: 2},
	BaseSint32:  {name: "sint32", size: 4, signed: true},
	BaseUint32:  {name: "uint32", size: 4},
	BaseString:  {name: "string", size: 1},
	BaseFloat32: {name: "float32", size: 4, signed: true, floating: true},
	BaseFloat64: {name: "float64", size: 8, signed: true, floating: true},
	BaseUint8z:  {name: "uint8z", size: 1, zeroIsInvalid: true},
	BaseUint16z: {name: "uint16z", size: 2, zeroIsInvalid: true},
	BaseUint32z: {name: "uint32z", size: 4, zeroIsInvalid: true},
	BaseByte:    {name: "byte", size: 1},
	BaseSint64:  {name: "sint64", size: 8, signed: true},
	BaseUint64:  {name: "uint64", size: 8},
	BaseUint64z: {name: "uint64z", size: 8, zeroIsInvalid: true},
}

// canonicalBaseTypes maps the masked five-bit type number back to the
// canonical byte, so definitions that omit the multi-byte flag still resolve.
var canonicalBaseTypes = map[uint8]BaseType{
	0x00: BaseEnum,
	0x01: BaseSint8,
	0x02: BaseUint8,
	0x03: BaseSint16,
	0x04: BaseUint16,
	0x05: BaseSint32,
	0x06: BaseUint32,
	0x07: BaseString,
	0x08: BaseFloat32,
	0x09: BaseFloat64,
	0x0A: BaseUint8z,
	0x0B: BaseUint16z,
	0x0C: BaseUint32z,
	0x0D: BaseByte,
	0x0E: BaseSint64,
	0x0F: BaseUint64,
	0x10: BaseUint64z,
}

// baseTypeFromRaw resolves the basetype byte of a field definition tuple.
// Unknown type numbers are a decode error, never a panic.
func baseTypeFromRaw(raw uint8) (BaseType, error) {
	bt, ok := canonicalBaseTypes[raw&0x1F]
	if !ok {
		return 0, fmt.Errorf("%w: 0x%02X", ErrInvalidBaseType, raw)
	}
	return bt, nil
}

// Size returns the fixed byte width of one scalar of this type. Width is a
// pure function of the type id; string and byte types count single bytes.
func (bt BaseType) Size() int {
	spec, ok := baseSpecs[bt]
	if !ok {
		return 1
	}
	return spec.size
}

func (bt BaseType) String() string {
	spec, ok := baseSpecs[bt]
	if !ok {
		return fmt.Sprintf("unknown_0x%02X", uint8(bt))
	}
	return spec.name
}
