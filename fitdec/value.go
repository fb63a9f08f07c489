package fitdec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Value is the decoded content of one field: a scalar or array of exactly one
// basetype. The kind always matches the originating field definition.
type Value struct {
	Type BaseType

	data    any // string, or a typed slice matching Type
	invalid bool
}

// decodeValue decodes a declared-length byte span into a Value under the given
// byte order. Array fields repeat the scalar decode declared_length/width
// times, preserving order. The value is marked invalid when every element
// carries its type's invalid sentinel.
func decodeValue(raw []byte, bt BaseType, arch binary.ByteOrder) (Value, error) {
	spec, ok := baseSpecs[bt]
	if !ok {
		return Value{}, fmt.Errorf("%w: 0x%02X", ErrInvalidBaseType, uint8(bt))
	}

	if bt == BaseString {
		s, empty := decodeFitString(raw)
		return Value{Type: bt, data: s, invalid: empty}, nil
	}

	if len(raw) < spec.size {
		return Value{}, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrTruncated, spec.name, spec.size, len(raw))
	}
	if len(raw)%spec.size != 0 {
		return Value{}, fmt.Errorf("%w: %d bytes is not a multiple of %s width %d", ErrTruncated, len(raw), spec.name, spec.size)
	}

	count := len(raw) / spec.size
	invalidCount := 0
	v := Value{Type: bt}

	switch bt {
	case BaseEnum, BaseUint8:
		vals := make([]uint8, count)
		for i := range vals {
			vals[i] = raw[i]
			if vals[i] == 0xFF {
				invalidCount++
			}
		}
		v.data = vals
	case BaseUint8z:
		vals := make([]uint8, count)
		for i := range vals {
			vals[i] = raw[i]
			if vals[i] == 0x00 {
				invalidCount++
			}
		}
		v.data = vals
	case BaseByte:
		vals := make([]uint8, count)
		copy(vals, raw)
		if allBytes(raw, 0xFF) {
			invalidCount = count
		}
		v.data = vals
	case BaseSint8:
		vals := make([]int8, count)
		for i := range vals {
			vals[i] = int8(raw[i])
			if vals[i] == 0x7F {
				invalidCount++
			}
		}
		v.data = vals
	case BaseSint16:
		vals := make([]int16, count)
		for i := range vals {
			vals[i] = int16(arch.Uint16(raw[i*2 : i*2+2]))
			if vals[i] == 0x7FFF {
				invalidCount++
			}
		}
		v.data = vals
	case BaseUint16:
		vals := make([]uint16, count)
		for i := range vals {
			vals[i] = arch.Uint16(raw[i*2 : i*2+2])
			if vals[i] == 0xFFFF {
				invalidCount++
			}
		}
		v.data = vals
	case BaseUint16z:
		vals := make([]uint16, count)
		for i := range vals {
			vals[i] = arch.Uint16(raw[i*2 : i*2+2])
			if vals[i] == 0x0000 {
				invalidCount++
			}
		}
		v.data = vals
	case BaseSint32:
		vals := make([]int32, count)
		for i := range vals {
			vals[i] = int32(arch.Uint32(raw[i*4 : i*4+4]))
			if vals[i] == 0x7FFFFFFF {
				invalidCount++
			}
		}
		v.data = vals
	case BaseUint32:
		vals := make([]uint32, count)
		for i := range vals {
			vals[i] = arch.Uint32(raw[i*4 : i*4+4])
			if vals[i] == 0xFFFFFFFF {
				invalidCount++
			}
		}
		v.data = vals
	case BaseUint32z:
		vals := make([]uint32, count)
		for i := range vals {
			vals[i] = arch.Uint32(raw[i*4 : i*4+4])
			if vals[i] == 0x00000000 {
				invalidCount++
			}
		}
		v.data = vals
	case BaseFloat32:
		vals := make([]float32, count)
		for i := range vals {
			bits := arch.Uint32(raw[i*4 : i*4+4])
			vals[i] = math.Float32frombits(bits)
			if bits == 0xFFFFFFFF {
				invalidCount++
			}
		}
		v.data = vals
	case BaseFloat64:
		vals := make([]float64, count)
		for i := range vals {
			bits := arch.Uint64(raw[i*8 : i*8+8])
			vals[i] = math.Float64frombits(bits)
			if bits == 0xFFFFFFFFFFFFFFFF {
				invalidCount++
			}
		}
		v.data = vals
	case BaseSint64:
		vals := make([]int64, count)
		for i := range vals {
			vals[i] = int64(arch.Uint64(raw[i*8 : i*8+8]))
			if vals[i] == 0x7FFFFFFFFFFFFFFF {
				invalidCount++
			}
		}
		v.data = vals
	case BaseUint64:
		vals := make([]uint64, count)
		for i := range vals {
			vals[i] = arch.Uint64(raw[i*8 : i*8+8])
			if vals[i] == 0xFFFFFFFFFFFFFFFF {
				invalidCount++
			}
		}
		v.data = vals
	case BaseUint64z:
		vals := make([]uint64, count)
		for i := range vals {
			vals[i] = arch.Uint64(raw[i*8 : i*8+8])
			if vals[i] == 0 {
				invalidCount++
			}
		}
		v.data = vals
	default:
		return Value{}, fmt.Errorf("%w: 0x%02X", ErrInvalidBaseType, uint8(bt))
	}

	v.invalid = invalidCount == count
	return v, nil
}

// decodeFitString consumes the full declared length, stops at the first zero
// byte, and drops non-ASCII bytes rather than erroring, tolerating malformed
// firmware strings.
func decodeFitString(raw []byte) (string, bool) {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b == 0x00 {
			break
		}
		if b < 0x80 {
			out = append(out, b)
		}
	}
	return string(out), len(out) == 0
}

func allBytes(raw []byte, value byte) bool {
	if len(raw) == 0 {
		return false
	}
	for _, b := range raw {
		if b != value {
			return false
		}
	}
	return true
}

// Invalid reports whether every element of the value carried its basetype's
// invalid sentinel (0xFF.. for unsigned, 0x7F.. for signed, zero for Z types).
func (v Value) Invalid() bool { return v.invalid }

// Len returns the element count (1 for scalars, 0 for the zero Value).
func (v Value) Len() int {
	switch d := v.data.(type) {
	case string:
		return 1
	case []uint8:
		return len(d)
	case []int8:
		return len(d)
	case []uint16:
		return len(d)
	case []int16:
		return len(d)
	case []uint32:
		return len(d)
	case []int32:
		return len(d)
	case []uint64:
		return len(d)
	case []int64:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	}
	return 0
}

// Scalar accessors return the first element and report whether the value holds
// the requested kind.

func (v Value) Uint8() (uint8, bool) {
	d, ok := v.data.([]uint8)
	if !ok || len(d) == 0 {
		return 0, false
	}
	return d[0], true
}

func (v Value) Int8() (int8, bool) {
	d, ok := v.data.([]int8)
	if !ok || len(d) == 0 {
		return 0, false
	}
	return d[0], true
}

func (v Value) Uint16() (uint16, bool) {
	d, ok := v.data.([]uint16)
	if !ok || len(d) == 0 {
		return 0, false
	}
	return d[0], true
}

func (v Value) Int16() (int16, bool) {
	d, ok := v.data.([]int16)
	if !ok || len(d) == 0 {
		return 0, false
	}
	return d[0], true
}

func (v Value) Uint32() (uint32, bool) {
	d, ok := v.data.([]uint32)
	if !ok || len(d) == 0 {
		return 0, false
	}
	return d[0], true
}

func (v Value) Int32() (int32, bool) {
	d, ok := v.data.([]int32)
	if !ok || len(d) == 0 {
		return 0, false
	}
	return d[0], true
}

func (v Value) Uint64() (uint64, bool) {
	d, ok := v.data.([]uint64)
	if !ok || len(d) == 0 {
		return 0, false
	}
	return d[0], true
}

func (v Value) Int64() (int64, bool) {
	d, ok := v.data.([]int64)
	if !ok || len(d) == 0 {
		return 0, false
	}
	return d[0], true
}

func (v Value) Float64() (float64, bool) {
	switch d := v.data.(type) {
	case []float64:
		if len(d) > 0 {
			return d[0], true
		}
	case []float32:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	}
	return 0, false
}

func (v Value) Str() (string, bool) {
	d, ok := v.data.(string)
	return d, ok
}

// Array accessors.

func (v Value) Uint8s() ([]uint8, bool) {
	d, ok := v.data.([]uint8)
	return d, ok
}

func (v Value) Uint16s() ([]uint16, bool) {
	d, ok := v.data.([]uint16)
	return d, ok
}

func (v Value) Int16s() ([]int16, bool) {
	d, ok := v.data.([]int16)
	return d, ok
}

func (v Value) Int32s() ([]int32, bool) {
	d, ok := v.data.([]int32)
	return d, ok
}

func (v Value) Uint32s() ([]uint32, bool) {
	d, ok := v.data.([]uint32)
	return d, ok
}

// Float reports any numeric scalar as float64, for generic dumps and
// scale/offset application.
func (v Value) Float() (float64, bool) {
	switch d := v.data.(type) {
	case []uint8:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []int8:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []uint16:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []int16:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []uint32:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []int32:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []uint64:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []int64:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []float32:
		if len(d) > 0 {
			return float64(d[0]), true
		}
	case []float64:
		if len(d) > 0 {
			return d[0], true
		}
	}
	return 0, false
}

// Any returns the underlying decoded representation (string or typed slice),
// for generic inspection output.
func (v Value) Any() any { return v.data }
